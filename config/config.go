// Package config loads Builder default settings from a gcfg-format file,
// following io/config.go and design/io/config.go's ReadFileInto +
// CheckInit pattern: a plain struct decoded by gcfg, then validated and
// normalized by hand before use.
package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gosplinter/builder"
	"github.com/phil-mansfield/gosplinter/knots"
	"github.com/phil-mansfield/gosplinter/sample"
	"github.com/phil-mansfield/gosplinter/solve"
)

// ErrInvalidConfig indicates a config file parsed but failed validation
// (an unrecognized enum string, or an out-of-range numeric field).
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Defaults holds the [defaults] section of a gosplinter config file. All
// fields are optional; zero values leave the corresponding Builder setting
// at its own default.
type Defaults struct {
	// Degree is applied uniformly to every axis.
	Degree int
	// KnotSpacing names a knots.Spacing: "as_sampled", "equidistant", or
	// "experimental".
	KnotSpacing string
	// Smoothing names a solve.Mode: "none", "identity", or "pspline".
	Smoothing string
	Alpha     float64
	Padding   float64
	HFSIters  int
	// HFSConvention names a solve.HFSConvention: "reference" or "book".
	HFSConvention      string
	AllowScatteredData bool
}

type fileFormat struct {
	Defaults Defaults
}

// Load reads and validates a gosplinter config file.
func Load(fname string) (*Defaults, error) {
	var f fileFormat
	if err := gcfg.ReadFileInto(&f, fname); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := f.Defaults.checkInit(); err != nil {
		return nil, err
	}
	return &f.Defaults, nil
}

func (d *Defaults) checkInit() error {
	if d.Degree < 0 {
		return fmt.Errorf("config: Degree must be >= 0, got %d: %w", d.Degree, ErrInvalidConfig)
	}
	if d.Alpha < 0 {
		return fmt.Errorf("config: Alpha must be >= 0, got %g: %w", d.Alpha, ErrInvalidConfig)
	}
	if d.Padding < 0 {
		return fmt.Errorf("config: Padding must be >= 0, got %g: %w", d.Padding, ErrInvalidConfig)
	}
	if d.HFSIters < 0 {
		return fmt.Errorf("config: HFSIters must be >= 0, got %d: %w", d.HFSIters, ErrInvalidConfig)
	}
	if _, err := parseKnotSpacing(d.KnotSpacing); err != nil {
		return err
	}
	if _, err := parseSmoothing(d.Smoothing); err != nil {
		return err
	}
	if _, err := parseConvention(d.HFSConvention); err != nil {
		return err
	}
	return nil
}

func parseKnotSpacing(s string) (knots.Spacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "as_sampled":
		return knots.AsSampled, nil
	case "equidistant":
		return knots.Equidistant, nil
	case "experimental":
		return knots.Experimental, nil
	default:
		return 0, fmt.Errorf("config: unrecognized KnotSpacing %q: %w", s, ErrInvalidConfig)
	}
}

func parseSmoothing(s string) (solve.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return solve.None, nil
	case "identity":
		return solve.Identity, nil
	case "pspline":
		return solve.PSpline, nil
	default:
		return 0, fmt.Errorf("config: unrecognized Smoothing %q: %w", s, ErrInvalidConfig)
	}
}

func parseConvention(s string) (solve.HFSConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reference":
		return solve.ReferenceCode, nil
	case "book":
		return solve.Book, nil
	default:
		return 0, fmt.Errorf("config: unrecognized HFSConvention %q: %w", s, ErrInvalidConfig)
	}
}

// NewBuilder constructs a Builder from store and applies d's settings to
// it, equivalent to hand-calling every relevant Builder setter.
func (d *Defaults) NewBuilder(store *sample.Store) (*builder.Builder, error) {
	b, err := builder.New(store)
	if err != nil {
		return nil, err
	}

	if d.Degree > 0 {
		degrees := make([]int, store.NumVariables())
		for i := range degrees {
			degrees[i] = d.Degree
		}
		if err := b.SetDegrees(degrees); err != nil {
			return nil, err
		}
	}

	spacing, err := parseKnotSpacing(d.KnotSpacing)
	if err != nil {
		return nil, err
	}
	if err := b.SetKnotSpacing(spacing); err != nil {
		return nil, err
	}

	mode, err := parseSmoothing(d.Smoothing)
	if err != nil {
		return nil, err
	}
	if err := b.SetSmoothing(mode); err != nil {
		return nil, err
	}

	convention, err := parseConvention(d.HFSConvention)
	if err != nil {
		return nil, err
	}
	if err := b.SetHFSConvention(convention); err != nil {
		return nil, err
	}

	if d.Alpha > 0 {
		if err := b.SetAlpha(d.Alpha); err != nil {
			return nil, err
		}
	}
	if d.Padding > 0 {
		if err := b.SetPadding(d.Padding); err != nil {
			return nil, err
		}
	}
	if d.HFSIters > 0 {
		if err := b.SetHFSIters(d.HFSIters); err != nil {
			return nil, err
		}
	}
	b.AllowScatteredData(d.AllowScatteredData)

	return b, nil
}
