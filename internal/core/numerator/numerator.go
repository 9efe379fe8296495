// Package numerator defines document auto-numbering contracts.
// The PostgreSQL implementation lives in infrastructure/numerator.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Strategy defines how numbers are reserved.
type Strategy int

const (
	// StrategyStrict reserves every number with an UPSERT ... RETURNING.
	// No gaps; used for purchasing and accounting documents.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges in memory. Gaps are possible after a restart.
	StrategyCached
)

// Options for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the block reserved at once by StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns strict numbering.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config describes the number format of one document type.
type Config struct {
	// Prefix of every number (e.g. "PO", "IR")
	Prefix string

	IncludeYear bool

	// PadWidth is the minimum width of the counter (default 5)
	PadWidth int

	// ResetPeriod: "year", "month" or "never"
	ResetPeriod string
}

// DefaultConfig returns PREFIX-YYYY-NNNNN numbering reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Generator produces sequential document numbers.
type Generator interface {
	// GetNextNumber returns e.g. PO-2026-00001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// Format renders counter n for period according to cfg.
func Format(cfg Config, period time.Time, n int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), width, n)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, width, n)
}

// PeriodKey is the sequence partition for period under cfg.ResetPeriod.
func PeriodKey(cfg Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return period.Format("2006-01")
	case "never":
		return "all"
	default:
		return period.Format("2006")
	}
}
