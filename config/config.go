// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the Payload Inspector's injected configuration:
// a Config struct built through functional options, mirroring the
// opts ...Option constructors used throughout this module's ancestry.
package config // import "github.com/go-lpc/padi/config"

// Mode selects which InputQ consumer the pipeline wires up.
type Mode int

const (
	// Check runs the validator as the sole InputQ consumer.
	Check Mode = iota
	// View runs the human-readable word dump as the sole InputQ consumer.
	View
	// Filter runs the filtered-output writer as the sole InputQ consumer.
	Filter
)

func (m Mode) String() string {
	switch m {
	case Check:
		return "check"
	case View:
		return "view"
	case Filter:
		return "filter-link"
	default:
		return "unknown"
	}
}

// Config bundles the injected run configuration: where to read from,
// where (if anywhere) to write to, which link to restrict to, and
// which checks/dumps to run.
type Config struct {
	InputPath    string // empty means stdin
	OutputPath   string // empty means stdout
	LinkToFilter uint8
	HasLink      bool
	SanityChecks bool
	DumpRDHs     bool
	Mode         Mode
}

// Option configures a Config.
type Option func(*Config)

// New builds a Config from the given options, defaulting to Check
// mode reading from stdin with no sanity checks.
func New(opts ...Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithInput sets the input file path; an empty path means stdin.
func WithInput(path string) Option {
	return func(cfg *Config) { cfg.InputPath = path }
}

// WithOutput sets the output file path; an empty path means stdout.
func WithOutput(path string) Option {
	return func(cfg *Config) { cfg.OutputPath = path }
}

// WithLinkFilter restricts processing to one link_id.
func WithLinkFilter(linkID uint8) Option {
	return func(cfg *Config) {
		cfg.LinkToFilter = linkID
		cfg.HasLink = true
	}
}

// WithSanityChecks enables the RDH sanity (field-level) checks.
func WithSanityChecks(v bool) Option {
	return func(cfg *Config) { cfg.SanityChecks = v }
}

// WithDumpRDHs enables the tabular RDH dump, independent of Mode.
func WithDumpRDHs(v bool) Option {
	return func(cfg *Config) { cfg.DumpRDHs = v }
}

// WithMode selects the InputQ consumer the pipeline wires up.
func WithMode(m Mode) Option {
	return func(cfg *Config) { cfg.Mode = m }
}
