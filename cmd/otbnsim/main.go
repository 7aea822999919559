// Package main provides otbnsim, which runs OTBN programs on the reference
// instruction-set simulator through the co-simulation bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sarchlab/akita/v4/sim"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/sarchlab/otsim/clock"
	"github.com/sarchlab/otsim/cosim"
	"github.com/sarchlab/otsim/emu"
	"github.com/sarchlab/otsim/insts"
	"github.com/sarchlab/otsim/loader"
)

var (
	configPath = flag.String("config", "", "Path to co-simulation config (JSON or YAML)")
	mode       = flag.String("mode", "", "Override mode: standalone or companion")
	expectPath = flag.String("expect", "", "Expected DMEM image (vmem) for companion mode")
	dmemBase   = flag.Uint("dmem-base", 0x10000, "Load address (LMA) of DMEM")
	freqMHz    = flag.Float64("freq", 100, "Clock frequency in MHz")
	maxCycles  = flag.Uint64("max-cycles", 0, "Cycle limit per program (0 uses the config)")
	jobs       = flag.Int("j", 4, "Programs to run in parallel")
	decode     = flag.Bool("decode", false, "Disassemble hex instruction words instead of running")
	verbose    = flag.Int("v", 0, "Log verbosity")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: otbnsim [options] <program.elf>...\n")
		fmt.Fprintf(os.Stderr, "       otbnsim -decode <hex word>...\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *decode {
		os.Exit(runDecode(os.Stdout, flag.Args()))
	}

	log := newLogger(*verbose)

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(runPrograms(context.Background(), config, flag.Args(), log))
}

func newLogger(verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func loadConfig() (*cosim.Config, error) {
	config := cosim.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = cosim.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *mode != "" {
		if err := config.Mode.UnmarshalText([]byte(*mode)); err != nil {
			return nil, err
		}
	}
	if *maxCycles > 0 {
		config.MaxCycles = *maxCycles
	}

	return config, config.Validate()
}

// result is the outcome of one program.
type result struct {
	path         string
	cycles       uint64
	instructions uint64
	elapsed      time.Duration
	err          error
}

func runPrograms(ctx context.Context, config *cosim.Config, paths []string, log logr.Logger) int {
	results := make([]result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))

	for i, path := range paths {
		g.Go(func() error {
			results[i] = runProgram(ctx, config, path, log.WithValues("program", path))
			return nil
		})
	}
	_ = g.Wait()

	report(os.Stdout, results, term.IsTerminal(int(os.Stdout.Fd())))

	for _, r := range results {
		if r.err != nil {
			return 1
		}
	}
	return 0
}

func runProgram(ctx context.Context, config *cosim.Config, path string, log logr.Logger) result {
	r := result{path: path}

	areas := loader.NewMemAreas(loader.WithLogger(log))
	err := areas.Register(config.IMem, "otbn.imem", 32, config.IMemSize,
		&loader.MemAreaLoc{Base: 0, Size: config.IMemSize})
	if err == nil {
		err = areas.Register(config.DMem, "otbn.dmem", 256, config.DMemSize,
			&loader.MemAreaLoc{Base: uint32(*dmemBase), Size: config.DMemSize})
	}
	if err == nil {
		_, err = areas.LoadELF(path)
	}
	if err != nil {
		r.err = err
		return r
	}

	// The bridge's data memory is the design side: the expected image in
	// companion mode, the output buffer in standalone mode.
	if err := areas.Register("design", "design.dmem", 256, config.DMemSize, nil); err != nil {
		r.err = err
		return r
	}
	if config.Mode == cosim.ModeCompanion && *expectPath != "" {
		if err := areas.LoadFile("design", *expectPath); err != nil {
			r.err = err
			return r
		}
	}
	design, _, _ := areas.Resolve("design")

	var model *emu.Model
	factory := func() (cosim.Model, error) {
		model = emu.NewModel(areas, emu.WithModelLogger(log))
		return model, nil
	}

	bridge, err := cosim.New(factory, config, design, cosim.WithLogger(log))
	if err != nil {
		r.err = err
		return r
	}
	defer func() { _ = bridge.Close() }()

	clk := clock.New(sim.Freq(*freqMHz) * sim.MHz)
	clk.Register(bridge)

	bridge.Start()
	r.cycles, err = clk.RunUntil(ctx, func() bool {
		return clk.Cycle() > 0 && !bridge.Running()
	}, config.MaxCycles)
	if err == nil {
		err = bridge.Err()
	}

	r.err = err
	r.elapsed = clk.Now()
	if e := model.Emulator(); e != nil {
		r.instructions = e.InstructionCount()
	}

	return r
}

func report(w io.Writer, results []result, aligned bool) {
	if !aligned {
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", r.path, r.cycles, r.instructions, r.elapsed, status(r.err))
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROGRAM\tCYCLES\tINSTRUCTIONS\tSIM TIME\tSTATUS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.path, r.cycles, r.instructions, r.elapsed, status(r.err))
	}
	_ = tw.Flush()
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

func runDecode(w io.Writer, words []string) int {
	decoder := insts.NewDecoder()
	code := 0

	for _, s := range words {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad instruction word %q\n", s)
			code = 1
			continue
		}

		word := uint32(v)
		d := decoder.Decode(word, true)
		subset := "base"
		if d.Shared.Subset == insts.SubsetBignum {
			subset = "bignum"
		}
		fmt.Fprintf(w, "%08x  %-32s  op=%s subset=%s illegal=%t\n",
			word, insts.Disassemble(word), d.Shared.Op, subset, d.Illegal)
	}

	return code
}
