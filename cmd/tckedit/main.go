package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jbvmio/tckedit"
	"github.com/jbvmio/tckedit/log"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const usage = `Usage: tckedit [flags] <tracks_in>... <tracks_out>

Perform various editing operations on track files.

Flags:
`

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	pf := pflag.NewFlagSet(`tckedit`, pflag.ContinueOnError)
	pf.SetOutput(stderr)
	pf.Usage = func() {
		fmt.Fprint(stderr, usage)
		pf.PrintDefaults()
	}
	cfgFile := pf.StringP("config", "c", "", "Path to config Yaml file. Flags override its values.")
	verbose := pf.BoolP("verbose", "v", false, "Log debug messages.")
	quiet := pf.BoolP("quiet", "q", false, "Only log errors.")
	pf.StringArray("include", nil, "Inclusion ROI: x,y,z,radius or a JSON shape. May be repeated.")
	pf.StringArray("exclude", nil, "Exclusion ROI: x,y,z,radius or a JSON shape. May be repeated.")
	pf.Bool("ordered", false, "Require inclusion ROIs to be traversed in the order given.")
	pf.Float64("min-length", 0, "Minimum streamline length in mm.")
	pf.Float64("max-length", 0, "Maximum streamline length in mm (0 for no limit).")
	pf.Int("upsample", 1, "Increase the point density by this ratio.")
	pf.Int("downsample", 1, "Decrease the point density by this ratio.")
	pf.Int("max-points", 0, "Truncate streamlines to this many points (0 for no limit).")
	pf.String("truncate-policy", "head", "Points kept when truncating: head or decimate.")
	pf.Int("number", 0, "Maximum number of streamlines to write (0 for no limit).")
	pf.Int("skip", 0, "Number of accepted streamlines to skip before writing.")
	pf.String("tck-weights-in", "", "Per-streamline weights for a single input file.")
	pf.String("tck-weights-out", "", "Write the weights of the written streamlines to this file.")
	pf.Int("workers", 0, "Number of edit workers (0 for one per CPU).")
	pf.Int("batch-size", 0, "Streamlines moved through the queues together.")
	pf.Int("queue-depth", 0, "Batches held by each queue.")
	if err := pf.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitConfig
	}

	cfg := tckedit.DefaultConfig()
	if *cfgFile != "" {
		var err error
		cfg, err = tckedit.ConfigFromFile(*cfgFile)
		if err != nil {
			fmt.Fprintln(stderr, "ERR:", err)
			return exitCode(err)
		}
	}
	if err := applyFlags(&cfg, pf); err != nil {
		fmt.Fprintln(stderr, "ERR:", err)
		pf.Usage()
		return exitConfig
	}

	level := log.LevelInfo
	switch {
	case *verbose:
		level = log.LevelDebug
	case *quiet:
		level = log.LevelError
	}
	l, sync, err := log.NewZap(level)
	if err != nil {
		fmt.Fprintln(stderr, "ERR:", err)
		return exitError
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := tckedit.Edit(ctx, cfg, l)
	if err != nil {
		l.Errorf("edit failed: %v", err)
		fmt.Fprintln(stderr, "ERR:", err)
		return exitCode(err)
	}
	l.Debugf("final counts: %+v", stats)
	return exitOK
}

func exitCode(err error) int {
	if errors.Is(err, tckedit.ErrConfig) {
		return exitConfig
	}
	return exitError
}

// applyFlags copies every flag set on the command line, and the positional
// arguments, into cfg.
func applyFlags(cfg *tckedit.Config, pf *pflag.FlagSet) error {
	var err error
	pf.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "include":
			cfg.Include, err = pf.GetStringArray(f.Name)
		case "exclude":
			cfg.Exclude, err = pf.GetStringArray(f.Name)
		case "ordered":
			cfg.OrderedInclude, err = pf.GetBool(f.Name)
		case "min-length":
			cfg.MinLength, err = pf.GetFloat64(f.Name)
		case "max-length":
			cfg.MaxLength, err = pf.GetFloat64(f.Name)
		case "upsample":
			cfg.Upsample, err = pf.GetInt(f.Name)
		case "downsample":
			cfg.Downsample, err = pf.GetInt(f.Name)
		case "max-points":
			cfg.MaxPoints, err = pf.GetInt(f.Name)
		case "truncate-policy":
			cfg.TruncatePolicy, err = pf.GetString(f.Name)
		case "number":
			cfg.Number, err = pf.GetInt(f.Name)
		case "skip":
			cfg.Skip, err = pf.GetInt(f.Name)
		case "tck-weights-in":
			cfg.WeightsIn, err = pf.GetString(f.Name)
		case "tck-weights-out":
			cfg.WeightsOut, err = pf.GetString(f.Name)
		case "workers":
			cfg.Workers, err = pf.GetInt(f.Name)
		case "batch-size":
			cfg.BatchSize, err = pf.GetInt(f.Name)
		case "queue-depth":
			cfg.QueueDepth, err = pf.GetInt(f.Name)
		}
	})
	if err != nil {
		return err
	}
	switch args := pf.Args(); {
	case len(args) == 1:
		return errors.New("expected at least one input and an output")
	case len(args) > 1:
		cfg.Inputs = args[:len(args)-1]
		cfg.Output = args[len(args)-1]
	}
	return nil
}
