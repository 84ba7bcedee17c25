package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"go.uber.org/multierr"
)

type Flags struct {
	showVersion    bool
	cpuprofile     string
	memprofile     string
	cpuProfileFile *os.File
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to given file name")
	fs.StringVar(&f.memprofile, "memprofile", "", "write memory profile to given file name")
}

type Initializer interface {
	Init() error
}

// Init runs the initializers and returns a context canceled by SIGINT,
// SIGPIPE, or SIGTERM along with a cleanup function that stops profiling.
func (f *Flags) Init(all ...Initializer) (context.Context, func(), error) {
	if f.showVersion {
		fmt.Println(VersionLine("arbor"))
		os.Exit(0)
	}
	var err error
	for _, flags := range all {
		err = multierr.Append(err, flags.Init())
	}
	if err != nil {
		return nil, nil, err
	}
	if f.cpuprofile != "" {
		if err := f.runCPUProfile(f.cpuprofile); err != nil {
			return nil, nil, err
		}
	}
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGPIPE, syscall.SIGTERM)
	cleanup := func() {
		cancel()
		f.cleanup()
	}
	return &interruptedContext{ctx}, cleanup, nil
}

type interruptedContext struct{ context.Context }

func (i *interruptedContext) Err() error {
	err := i.Context.Err()
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func (f *Flags) cleanup() {
	if f.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		f.cpuProfileFile.Close()
	}
	if f.memprofile != "" {
		if err := runMemProfile(f.memprofile); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (f *Flags) runCPUProfile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	f.cpuProfileFile = file
	return pprof.StartCPUProfile(file)
}

func runMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	err = pprof.Lookup("allocs").WriteTo(f, 0)
	return multierr.Append(err, f.Close())
}
