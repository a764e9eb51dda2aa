// Command phasey-render renders a YAML scene through the pitch-shifting
// delay and writes the result as a 16-bit stereo WAV file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/justyntemme/phasey/pkg/framework/debug"
	"github.com/justyntemme/phasey/pkg/phasey"
	"github.com/justyntemme/phasey/pkg/scene"
)

type options struct {
	scenePath string
	outPath   string
	inPath    string
	statePath string
	saveState string
	logLevel  string
	logFile   string
	set       assignments
	list      bool
	play      bool
	profile   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.outPath, "o", "", "Output WAV file. Defaults to the scene path with a .wav extension.")
	flag.StringVar(&opts.inPath, "i", "", "Input WAV file. Overrides the scene's input.")
	flag.StringVar(&opts.statePath, "state", "", "Load parameter state from this file before applying the scene's parameters.")
	flag.StringVar(&opts.saveState, "save-state", "", "Write the final parameter state to this file.")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error or off.")
	flag.StringVar(&opts.logFile, "log-file", "", "Append log output to this file instead of stderr.")
	flag.Var(&opts.set, "set", "Set a parameter by name after the scene's parameters, e.g. -set attack=20ms. Repeatable.")
	flag.BoolVar(&opts.list, "list-params", false, "List the parameters with their values and exit.")
	flag.BoolVar(&opts.play, "play", false, "Play the rendered audio after writing it.")
	flag.BoolVar(&opts.profile, "profile", false, "Print block timing statistics.")
	flag.Usage = printUsage
	flag.Parse()

	if opts.list {
		if err := listParams(opts); err != nil {
			fmt.Fprintf(os.Stderr, "phasey-render: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.scenePath = flag.Arg(0)

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "phasey-render: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] scene.yml\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Renders a scene through the phasey pitch-shifting delay.\n\nFlags:\n")
	flag.PrintDefaults()
}

func run(opts options) error {
	level, err := debug.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	log := debug.Default()
	if opts.logFile != "" {
		var closer io.Closer
		log, closer, err = debug.NewFileLogger(opts.logFile, "", debug.DefaultFlags)
		if err != nil {
			return err
		}
		defer closer.Close()
	}
	log.SetLevel(level)

	s, err := scene.Load(opts.scenePath)
	if err != nil {
		return err
	}
	if opts.inPath != "" {
		s.Input = scene.Input{File: opts.inPath}
	}
	if opts.outPath == "" {
		opts.outPath = strings.TrimSuffix(opts.scenePath, filepath.Ext(opts.scenePath)) + ".wav"
	}

	in, err := loadInput(s)
	if err != nil {
		return err
	}

	proc, err := newProcessor(s, opts.statePath, opts.set, log.WithPrefix("phasey"))
	if err != nil {
		return err
	}

	log.With("scene", opts.scenePath).
		With("frames", s.Frames()).
		With("events", len(s.Events)).
		Infof("rendering")

	res, err := render(s, proc, in, log.WithPrefix("render"))
	if err != nil {
		return err
	}
	if err := proc.SetActive(false); err != nil {
		return err
	}

	if err := writeWAV(opts.outPath, res.Output, int(s.SampleRate)); err != nil {
		return err
	}
	log.With("path", opts.outPath).Infof("wrote output")

	fmt.Printf("%v correlation=%.3f\n", res.Analysis, res.Correlation)
	if res.Analysis.Clipping() {
		log.With("clipped", res.Analysis.ClippedSamples).Warnf("output clipped")
	}
	if res.Rejected > 0 {
		log.With("rejected", res.Rejected).With("events", res.Events).Warnf("events dropped")
	}
	if opts.profile {
		fmt.Print(res.Profile.BlockReport())
	}

	if opts.saveState != "" {
		if err := saveState(proc, opts.saveState); err != nil {
			return err
		}
	}
	if opts.play {
		return play(res.Output, int(s.SampleRate))
	}
	return nil
}

func loadInput(s *scene.Scene) (stereo, error) {
	if s.Input.File == "" {
		return synthesize(s), nil
	}
	in, rate, err := readWAV(s.Input.File)
	if err != nil {
		return stereo{}, err
	}
	if float64(rate) != s.SampleRate {
		return stereo{}, fmt.Errorf("%s: sample rate %d does not match scene rate %v", s.Input.File, rate, s.SampleRate)
	}
	return in, nil
}

// listParams prints the parameter table, with any state file and -set
// assignments applied.
func listParams(opts options) error {
	proc := phasey.New()
	if opts.statePath != "" {
		if err := loadState(proc, opts.statePath); err != nil {
			return err
		}
	}
	if err := applyAssignments(proc.GetParameters(), opts.set); err != nil {
		return err
	}
	listParameters(os.Stdout, proc.GetParameters())
	return nil
}

// newProcessor builds an active processor for s. Parameters come from the
// state file when one is given, then from the scene, then from set.
func newProcessor(s *scene.Scene, statePath string, set []string, log *debug.Logger) (*phasey.Processor, error) {
	proc := phasey.New(phasey.WithLogger(log))
	if statePath != "" {
		if err := loadState(proc, statePath); err != nil {
			return nil, err
		}
	}
	s.Params.Apply(proc)
	if err := applyAssignments(proc.GetParameters(), set); err != nil {
		return nil, err
	}

	if err := proc.Initialize(s.SampleRate, int32(s.BlockSize)); err != nil {
		return nil, err
	}
	if err := proc.SetActive(true); err != nil {
		return nil, err
	}
	return proc, nil
}

func loadState(proc *phasey.Processor, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := proc.LoadState(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func saveState(proc *phasey.Processor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := proc.SaveState(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
