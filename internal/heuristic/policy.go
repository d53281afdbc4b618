package heuristic

import (
	"time"

	"fidelis/internal/config"
)

// Policy holds the thresholds used by the comparator and the plausibility checks.
// The defaults are empirical knobs, not values tuned against labelled fraud data.
type Policy struct {
	// ValueTolerance is the allowed relative difference against the authority total.
	ValueTolerance float64
	DateTolerance  time.Duration

	// RejectAbove rejects a document with more findings than this.
	RejectAbove int

	MinValue float64
	MaxValue float64

	// HighValue totals need at least HighValueMinTextLen characters of text.
	HighValue           float64
	HighValueMinTextLen int

	MinTextLen    int
	LowIntegerMax float64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ValueTolerance:      0.05,
		DateTolerance:       24 * time.Hour,
		RejectAbove:         3,
		MinValue:            5,
		MaxValue:            50000,
		HighValue:           1000,
		HighValueMinTextLen: 200,
		MinTextLen:          50,
		LowIntegerMax:       20,
	}
}

// PolicyFromConfig builds a Policy from configuration. Zero fields keep their defaults.
func PolicyFromConfig(cfg *config.HeuristicsConfig) Policy {
	p := DefaultPolicy()
	if cfg == nil {
		return p
	}
	if cfg.ValueTolerance > 0 {
		p.ValueTolerance = cfg.ValueTolerance
	}
	if cfg.DateTolerance > 0 {
		p.DateTolerance = cfg.DateTolerance
	}
	if cfg.RejectAbove > 0 {
		p.RejectAbove = cfg.RejectAbove
	}
	if cfg.MinValue > 0 {
		p.MinValue = cfg.MinValue
	}
	if cfg.MaxValue > 0 {
		p.MaxValue = cfg.MaxValue
	}
	if cfg.HighValue > 0 {
		p.HighValue = cfg.HighValue
	}
	if cfg.HighValueMinTextLen > 0 {
		p.HighValueMinTextLen = cfg.HighValueMinTextLen
	}
	if cfg.MinTextLen > 0 {
		p.MinTextLen = cfg.MinTextLen
	}
	if cfg.LowIntegerMax > 0 {
		p.LowIntegerMax = cfg.LowIntegerMax
	}
	return p
}

// Engine compares OCR data against authority records and judges OCR-only documents.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the thresholds in use.
func (e *Engine) Policy() Policy {
	return e.policy
}
