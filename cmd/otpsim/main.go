// Package main provides otpsim, which initializes the OTP partition
// controllers over a programmed macro image and serves bus reads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/term"

	"github.com/sarchlab/otsim/loader"
	"github.com/sarchlab/otsim/otp"
)

// readReq is one -read argument.
type readReq struct {
	partition string
	addr      uint32
}

var (
	mapPath   = flag.String("map", "", "Path to partition map (JSON or YAML)")
	imagePath = flag.String("image", "", "OTP image to program before init (vmem or ELF)")
	escalate  = flag.Bool("escalate", false, "Assert escalation after init")
	verbose   = flag.Int("v", 0, "Log verbosity")
	reads     []readReq
	seals     []string
)

func init() {
	flag.Func("read", "Bus read PARTITION:ADDR (repeatable)", func(s string) error {
		r, err := parseRead(s)
		if err != nil {
			return err
		}
		reads = append(reads, r)
		return nil
	})
}

func init() {
	flag.Func("seal", "Program the digest of PARTITION before init (repeatable)", func(s string) error {
		seals = append(seals, s)
		return nil
	})
}

func parseRead(s string) (readReq, error) {
	name, addr, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return readReq{}, fmt.Errorf("expected PARTITION:ADDR, got %q", s)
	}
	v, err := strconv.ParseUint(addr, 0, 32)
	if err != nil {
		return readReq{}, fmt.Errorf("bad address %q: %w", addr, err)
	}
	return readReq{partition: name, addr: uint32(v)}, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: otpsim [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: *verbose})

	os.Exit(run(context.Background(), os.Stdout, log))
}

func run(ctx context.Context, w io.Writer, log logr.Logger) int {
	config := otp.DefaultCtrlConfig()
	if *mapPath != "" {
		var err error
		config, err = otp.LoadPartitionMap(*mapPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading partition map: %v\n", err)
			return 1
		}
	}

	ctrl, err := otp.NewCtrl(config, otp.WithCtrlLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating controller: %v\n", err)
		return 1
	}

	if *imagePath != "" {
		if err := programImage(ctrl.Macro(), *imagePath, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error programming image: %v\n", err)
			return 1
		}
	}

	for _, name := range seals {
		if err := seal(ctrl, name); err != nil {
			fmt.Fprintf(os.Stderr, "Error sealing %s: %v\n", name, err)
			return 1
		}
	}

	code := 0
	if err := ctrl.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}

	if *escalate {
		ctrl.Escalate()
		ctrl.Clock().RunCycles(1)
	}

	for _, r := range reads {
		data, err := ctrl.Read(ctx, r.partition, r.addr)
		var busErr *otp.BusError
		switch {
		case errors.As(err, &busErr):
			fmt.Fprintf(w, "%s+0x%03x: bus error (%s)\n", r.partition, r.addr, busErr.State)
			code = 1
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		default:
			fmt.Fprintf(w, "%s+0x%03x: 0x%08x\n", r.partition, r.addr, data)
		}
	}

	report(w, ctrl, term.IsTerminal(int(os.Stdout.Fd())))
	return code
}

// programImage loads a file into a scratch memory shaped like the macro and
// programs it.
func programImage(macro *otp.Macro, path string, log logr.Logger) error {
	areas := loader.NewMemAreas(loader.WithLogger(log))
	size := macro.Size()
	if err := areas.Register("otp", "otp.macro", otp.BlockBytes*8, size,
		&loader.MemAreaLoc{Base: 0, Size: size}); err != nil {
		return err
	}
	if err := areas.LoadFile("otp", path); err != nil {
		return err
	}

	storage, _, err := areas.Resolve("otp")
	if err != nil {
		return err
	}
	data, err := storage.Read(0, uint64(size))
	if err != nil {
		return err
	}
	return macro.Program(0, data)
}

func seal(ctrl *otp.Ctrl, name string) error {
	c, err := ctrl.Controller(name)
	if err != nil {
		return err
	}
	_, err = ctrl.Macro().Seal(c.Partition())
	return err
}

func report(w io.Writer, ctrl *otp.Ctrl, aligned bool) {
	row := "%s\t%s\t%s\t%s\t%s\t%016x\n"
	var out io.Writer = w
	var tw *tabwriter.Writer
	if aligned {
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		out = tw
		fmt.Fprintln(tw, "PARTITION\tSTATE\tERROR\tREAD\tWRITE\tDIGEST")
	}

	for _, p := range ctrl.Partitions() {
		c, _ := ctrl.Controller(p.Name)
		o, _ := ctrl.Outputs(p.Name)
		fmt.Fprintf(out, row, p.Name, c.State(), o.Err, o.Access.ReadLock, o.Access.WriteLock, o.Digest)
	}

	if tw != nil {
		_ = tw.Flush()
	}
}
