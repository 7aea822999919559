package emu

import (
	"bytes"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/otsim/cosim"
)

// ModelVersion is the semantic version reported by Model.
const ModelVersion = "1.0.0"

// Resolver maps a memory region name to its backing storage and size.
type Resolver interface {
	Resolve(name string) (*mem.Storage, uint32, error)
}

// Model adapts the Emulator to the cosim.Model control surface. Start
// snapshots the named regions into private memories, so the model never
// writes the resolver's storage.
type Model struct {
	resolver Resolver
	opts     []EmulatorOption
	log      logr.Logger

	emu      *Emulator
	dmemName string
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithModelLogger sets the logger of the model and of the emulators it
// creates.
func WithModelLogger(log logr.Logger) ModelOption {
	return func(m *Model) {
		m.log = log
		m.opts = append(m.opts, WithLogger(log))
	}
}

// WithEmulatorOptions passes options to every emulator the model creates.
func WithEmulatorOptions(opts ...EmulatorOption) ModelOption {
	return func(m *Model) {
		m.opts = append(m.opts, opts...)
	}
}

// NewModel creates a model that reads its regions through resolver.
func NewModel(resolver Resolver, opts ...ModelOption) *Model {
	m := &Model{
		resolver: resolver,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Factory returns a cosim.Factory producing models over resolver.
func Factory(resolver Resolver, opts ...ModelOption) cosim.Factory {
	return func() (cosim.Model, error) {
		if resolver == nil {
			return nil, fmt.Errorf("resolver is required")
		}
		return NewModel(resolver, opts...), nil
	}
}

// Version implements cosim.Model.
func (m *Model) Version() string {
	return ModelVersion
}

// Emulator returns the emulator of the current run, or nil before Start.
func (m *Model) Emulator() *Emulator {
	return m.emu
}

// Start implements cosim.Model.
func (m *Model) Start(regions []cosim.Region, startAddr uint32) cosim.Status {
	var imem, dmem *Memory
	m.emu = nil

	for _, r := range regions {
		memory, err := m.snapshot(r)
		if err != nil {
			m.log.Error(err, "failed to start", "region", r.Name)
			return cosim.StatusError
		}
		switch r.Kind {
		case cosim.RegionIMem:
			imem = memory
		case cosim.RegionDMem:
			dmem = memory
			m.dmemName = r.Name
		}
	}

	if imem == nil || dmem == nil {
		m.log.Error(nil, "start requires an imem and a dmem region")
		return cosim.StatusError
	}

	m.emu = NewEmulator(imem, dmem, m.opts...)
	m.emu.SetPC(startAddr)
	return cosim.StatusOK
}

func (m *Model) snapshot(r cosim.Region) (*Memory, error) {
	storage, size, err := m.resolver.Resolve(r.Name)
	if err != nil {
		return nil, err
	}
	if r.Size > size {
		return nil, fmt.Errorf("region %q holds %d bytes, %d requested", r.Name, size, r.Size)
	}

	data, err := storage.Read(0, uint64(r.Size))
	if err != nil {
		return nil, fmt.Errorf("failed to read region %q: %w", r.Name, err)
	}

	memory := NewMemory(r.Size)
	if err := memory.Load(data); err != nil {
		return nil, err
	}
	return memory, nil
}

// Step implements cosim.Model.
func (m *Model) Step() cosim.Status {
	if m.emu == nil {
		return cosim.StatusError
	}

	result := m.emu.Step()
	switch {
	case result.Err != nil:
		m.log.Error(result.Err, "step failed", "pc", m.emu.RegFile().PC)
		return cosim.StatusError
	case result.Done:
		m.log.V(1).Info("program finished", "instructions", m.emu.InstructionCount())
		return cosim.StatusDone
	default:
		return cosim.StatusOK
	}
}

func (m *Model) memory(region string) (*Memory, bool) {
	if m.emu == nil {
		return nil, false
	}
	switch region {
	case m.dmemName:
		return m.emu.DMem(), true
	default:
		return nil, false
	}
}

// LoadMemory implements cosim.Model.
func (m *Model) LoadMemory(region string, dst []byte) cosim.Status {
	memory, ok := m.memory(region)
	if !ok {
		return cosim.StatusError
	}

	data, err := memory.Bytes()
	if err != nil {
		return cosim.StatusError
	}
	copy(dst, data)
	return cosim.StatusOK
}

// CompareMemory implements cosim.Model.
func (m *Model) CompareMemory(region string, want []byte) cosim.Status {
	memory, ok := m.memory(region)
	if !ok {
		return cosim.StatusError
	}

	got, err := memory.Bytes()
	if err != nil {
		return cosim.StatusError
	}

	n := min(len(got), len(want))
	if len(got) != len(want) || !bytes.Equal(got[:n], want[:n]) {
		m.log.Error(nil, "memory mismatch", "region", region, "offset", firstDiff(got, want))
		return cosim.StatusError
	}
	return cosim.StatusOK
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Close implements cosim.Model.
func (m *Model) Close() error {
	m.emu = nil
	return nil
}
