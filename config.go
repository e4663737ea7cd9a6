// ABOUTME: Tunable options for Open: page size and fill thresholds
// ABOUTME: Defaults derive from the host operating system's page size

package pagedb

import "os"

// Options configures a database on Open. The zero value is not valid on
// its own; use DefaultOptions or rely on Open filling in defaults for any
// field left at zero.
type Options struct {
	// PageSize is the fixed size of every page on disk. Must be a power of
	// two. Defaults to the operating system's page size.
	PageSize int

	// MinFillPercent is the fill factor below which a node is considered
	// under-populated and becomes a rotate/merge candidate.
	MinFillPercent float64

	// MaxFillPercent is the fill factor above which a node is considered
	// over-populated and is split.
	MaxFillPercent float64
}

// DefaultOptions returns the documented defaults from the host API surface:
// OS page size, 0.5 minimum fill, 0.9 maximum fill.
func DefaultOptions() Options {
	return Options{
		PageSize:       os.Getpagesize(),
		MinFillPercent: 0.5,
		MaxFillPercent: 0.9,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.MinFillPercent <= 0 {
		o.MinFillPercent = d.MinFillPercent
	}
	if o.MaxFillPercent <= 0 {
		o.MaxFillPercent = d.MaxFillPercent
	}
	return o
}
