// Package runner drives the MMU with a request file and writes the result
// files.
package runner

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/segmmu/mem/vm/mmu"
	"github.com/sarchlab/segmmu/mem/vm/preload"
	"github.com/sarchlab/segmmu/mem/vm/request"
	"github.com/sarchlab/segmmu/simulation"
)

// Mode selects which passes are run.
type Mode int

// The supported modes.
const (
	ModeBoth Mode = iota
	ModeNoCache
	ModeCache
)

func (m Mode) String() string {
	switch m {
	case ModeNoCache:
		return "nocache"
	case ModeCache:
		return "cache"
	default:
		return "both"
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "both", "":
		return ModeBoth, nil
	case "nocache":
		return ModeNoCache, nil
	case "cache":
		return ModeCache, nil
	}

	return ModeBoth, fmt.Errorf("unknown mode %q", s)
}

// Config describes the files of a run.
type Config struct {
	InitPath      string
	InputPath     string
	OutputPath    string
	TLBOutputPath string
	Mode          Mode
	NumTLBWays    int
}

// A Report summarizes one pass.
type Report struct {
	Name       string
	OutputPath string
	Stats      mmu.Stats
}

// Run executes the passes selected by the mode. Each pass uses a fresh MMU
// loaded from the same initialization file, so the passes do not observe the
// allocations of each other.
func Run(s *simulation.Simulation, cfg Config) ([]Report, error) {
	initData, err := os.ReadFile(cfg.InitPath)
	if err != nil {
		return nil, fmt.Errorf("read init file: %w", err)
	}

	input, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	defer input.Close()

	reqs, err := request.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("parse input file: %w", err)
	}

	var reports []Report

	if cfg.Mode != ModeCache {
		r, err := runToFile(s, cfg, "NoTLB", cfg.OutputPath, initData, reqs, false)
		if err != nil {
			return reports, err
		}

		reports = append(reports, r)
	}

	if cfg.Mode != ModeNoCache {
		r, err := runToFile(s, cfg, "TLB", cfg.TLBOutputPath, initData, reqs, true)
		if err != nil {
			return reports, err
		}

		reports = append(reports, r)
	}

	return reports, nil
}

func runToFile(
	s *simulation.Simulation,
	cfg Config,
	name, path string,
	initData []byte,
	reqs []mmu.Request,
	cached bool,
) (Report, error) {
	b := mmu.MakeBuilder()
	if cfg.NumTLBWays > 0 {
		b = b.WithNumTLBWays(cfg.NumTLBWays)
	}

	m := s.AddMMU(b, name)

	var err error
	m.Update(func() {
		err = preload.Load(bytes.NewReader(initData), m.Translator())
	})
	if err != nil {
		return Report{}, fmt.Errorf("%s: load init file: %w", name, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", name, err)
	}

	w := bufio.NewWriter(f)

	err = Pass(m, reqs, cached, w)
	if err == nil {
		err = w.Flush()
	}

	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		return Report{}, fmt.Errorf("%s: write %s: %w", name, path, err)
	}

	return Report{Name: name, OutputPath: path, Stats: m.Stats()}, nil
}

// Pass sends every request to the MMU in order and writes the result tokens.
func Pass(m *mmu.Comp, reqs []mmu.Request, cached bool, w io.Writer) error {
	tw := request.NewTokenWriter(w)

	for _, req := range reqs {
		err := tw.Write(m.Access(req, cached))
		if err != nil {
			return err
		}
	}

	return nil
}
