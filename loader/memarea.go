package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/mem/mem"
)

var (
	// ErrDuplicateArea is returned when a memory name is registered twice.
	ErrDuplicateArea = errors.New("memory area already registered")
	// ErrUnknownArea is returned for an unregistered memory name.
	ErrUnknownArea = errors.New("unknown memory area")
	// ErrNoAreaForAddr is returned when no memory covers a load address.
	ErrNoAreaForAddr = errors.New("no memory area for address")
)

// MemAreaLoc is the load-address window of a memory. Base corresponds to
// an ELF LMA.
type MemAreaLoc struct {
	Base uint32
	Size uint32
}

// end is the first address past the window.
func (l *MemAreaLoc) end() uint64 {
	return uint64(l.Base) + uint64(l.Size)
}

// MemArea is a named simulation memory.
type MemArea struct {
	Name       string
	Location   string
	WidthBytes uint32
	Size       uint32

	// Loc is nil when the memory has no load address.
	Loc *MemAreaLoc

	storage *mem.Storage
}

// Storage returns the backing storage.
func (a *MemArea) Storage() *mem.Storage {
	return a.storage
}

func (a *MemArea) contains(lma uint32) bool {
	return a.Loc != nil && lma >= a.Loc.Base && uint64(lma) < a.Loc.end()
}

func (a *MemArea) write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(a.Size) {
		return fmt.Errorf("%d bytes at 0x%x overflow %s (%d bytes)", len(data), offset, a.Name, a.Size)
	}
	return a.storage.Write(offset, data)
}

// MemAreas is a registry of named memories.
type MemAreas struct {
	byName map[string]*MemArea
	log    logr.Logger
}

// MemAreasOption configures MemAreas.
type MemAreasOption func(*MemAreas)

// WithLogger sets the registry logger.
func WithLogger(log logr.Logger) MemAreasOption {
	return func(m *MemAreas) {
		m.log = log
	}
}

// NewMemAreas creates an empty registry.
func NewMemAreas(opts ...MemAreasOption) *MemAreas {
	m := &MemAreas{
		byName: make(map[string]*MemArea),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a memory of size bytes, widthBits wide. loc may be nil.
func (m *MemAreas) Register(name, location string, widthBits, size uint32, loc *MemAreaLoc) error {
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateArea, name)
	}
	if widthBits == 0 || widthBits%8 != 0 {
		return fmt.Errorf("memory %s: width %d is not a multiple of 8", name, widthBits)
	}
	if size == 0 || size%(widthBits/8) != 0 {
		return fmt.Errorf("memory %s: size %d is not a whole number of words", name, size)
	}

	area := &MemArea{
		Name:       name,
		Location:   location,
		WidthBytes: widthBits / 8,
		Size:       size,
		storage:    mem.NewStorage(uint64(size)),
	}

	if loc != nil {
		if loc.Size == 0 || loc.Size > size || loc.end() > 1<<32 {
			return fmt.Errorf("memory %s: load window of %d bytes does not fit", name, loc.Size)
		}
		for _, other := range m.byName {
			if other.Loc != nil && uint64(loc.Base) < other.Loc.end() &&
				uint64(other.Loc.Base) < loc.end() {
				return fmt.Errorf("memory %s: load window overlaps %s", name, other.Name)
			}
		}
		l := *loc
		area.Loc = &l
	}

	m.byName[name] = area
	m.log.V(1).Info("memory registered", "name", name, "location", location, "size", size)
	return nil
}

// Get returns a registered memory.
func (m *MemAreas) Get(name string) (*MemArea, error) {
	area, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArea, name)
	}
	return area, nil
}

// Resolve returns the storage and size of a memory.
func (m *MemAreas) Resolve(name string) (*mem.Storage, uint32, error) {
	area, err := m.Get(name)
	if err != nil {
		return nil, 0, err
	}
	return area.storage, area.Size, nil
}

// FindByAddr returns the memory whose load window covers lma.
func (m *MemAreas) FindByAddr(lma uint32) (*MemArea, bool) {
	for _, area := range m.byName {
		if area.contains(lma) {
			return area, true
		}
	}
	return nil, false
}

// List returns the registered memories sorted by name.
func (m *MemAreas) List() []*MemArea {
	areas := make([]*MemArea, 0, len(m.byName))
	for _, area := range m.byName {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].Name < areas[j].Name })
	return areas
}

// String lists the memories, one per line.
func (m *MemAreas) String() string {
	var b strings.Builder
	b.WriteString("Registered memory regions:\n")
	for _, area := range m.List() {
		fmt.Fprintf(&b, "  %-8s %-40s %3d bits %6d bytes", area.Name, area.Location, area.WidthBytes*8, area.Size)
		if area.Loc != nil {
			fmt.Fprintf(&b, "  LMA 0x%08x-0x%08x", area.Loc.Base, area.Loc.Base+area.Loc.Size-1)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// LoadProgram places every segment in the memory covering its LMA. BSS
// bytes beyond the file data are zeroed.
func (m *MemAreas) LoadProgram(prog *Program) error {
	for _, seg := range prog.Segments {
		size := max(seg.MemSize, uint32(len(seg.Data)))
		if size == 0 {
			continue
		}

		area, ok := m.FindByAddr(seg.PhysAddr)
		if !ok {
			return fmt.Errorf("%w: 0x%08x", ErrNoAreaForAddr, seg.PhysAddr)
		}
		if uint64(seg.PhysAddr)+uint64(size) > area.Loc.end() {
			return fmt.Errorf("segment at 0x%08x (%d bytes) overflows %s", seg.PhysAddr, size, area.Name)
		}

		data := make([]byte, size)
		copy(data, seg.Data)
		if err := area.write(uint64(seg.PhysAddr-area.Loc.Base), data); err != nil {
			return err
		}

		m.log.V(1).Info("segment loaded", "memory", area.Name, "lma", seg.PhysAddr, "bytes", size)
	}
	return nil
}

// LoadVmem loads a vmem image into a named memory.
func (m *MemAreas) LoadVmem(name string, records []VmemRecord) error {
	area, err := m.Get(name)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := area.write(uint64(rec.Addr)*uint64(area.WidthBytes), rec.Data); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads an image into a named memory. ".vmem" files are vmem
// images; anything else is parsed as ELF and must fit the memory's load
// window.
func (m *MemAreas) LoadFile(name, path string) error {
	area, err := m.Get(name)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".vmem") {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open vmem file: %w", err)
		}
		defer func() { _ = f.Close() }()

		records, err := ParseVmem(f, int(area.WidthBytes))
		if err != nil {
			return err
		}
		return m.LoadVmem(name, records)
	}

	prog, err := LoadELF(path)
	if err != nil {
		return err
	}
	for _, seg := range prog.Segments {
		if max(seg.MemSize, uint32(len(seg.Data))) > 0 && !area.contains(seg.PhysAddr) {
			return fmt.Errorf("segment at 0x%08x is outside %s", seg.PhysAddr, name)
		}
	}
	return m.LoadProgram(prog)
}

// LoadELF loads an ELF file into all memories by LMA and returns the
// parsed program.
func (m *MemAreas) LoadELF(path string) (*Program, error) {
	prog, err := LoadELF(path)
	if err != nil {
		return nil, err
	}
	if err := m.LoadProgram(prog); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return prog, nil
}
