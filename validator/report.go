// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validator drives the per-link RDH running checks and the
// continuous-mode CDP-FSM over a CdpChunk's payload, producing
// ErrorReport events without ever aborting the run.
package validator // import "github.com/go-lpc/padi/validator"

import "fmt"

// Kind classifies a reported violation by what produced it — a kind,
// not a Go error type, since every report flows through the same
// channel regardless of what produced it.
type Kind int

const (
	KindUnsupportedRdhVersion Kind = iota
	KindBadOffset
	KindShortRead
	KindRdhSanity
	KindRdhRunning
	KindPayloadPadding
	KindFsmUnexpectedWord
	KindWordSanity
	KindInterWordInvariant
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedRdhVersion:
		return "UnsupportedRdhVersion"
	case KindBadOffset:
		return "BadOffset"
	case KindShortRead:
		return "ShortRead"
	case KindRdhSanity:
		return "RdhSanity"
	case KindRdhRunning:
		return "RdhRunning"
	case KindPayloadPadding:
		return "PayloadPadding"
	case KindFsmUnexpectedWord:
		return "FsmUnexpectedWord"
	case KindWordSanity:
		return "WordSanity"
	case KindInterWordInvariant:
		return "InterWordInvariant"
	default:
		return "unknown"
	}
}

// Code returns a short, grep-friendly tag for the kind. It carries no
// semantics of its own — only Kind does — and exists purely so an
// operator can filter a log for one violation family.
func (k Kind) Code() string {
	switch k {
	case KindUnsupportedRdhVersion:
		return "E10"
	case KindBadOffset:
		return "E11"
	case KindShortRead:
		return "E12"
	case KindRdhSanity:
		return "E20"
	case KindRdhRunning:
		return "E21"
	case KindPayloadPadding:
		return "E30"
	case KindFsmUnexpectedWord:
		return "E40"
	case KindWordSanity:
		return "E41"
	case KindInterWordInvariant:
		return "E42"
	default:
		return "E00"
	}
}

// Report is one reported violation: per-word sanity, FSM, or
// RDH-running-check failures are reported this way without aborting
// the pipeline.
type Report struct {
	Kind   Kind
	MemPos uint64
	Link   string
	Msg    string
	Word   []byte // optional: the offending word's raw bytes
}

func (r Report) String() string {
	if len(r.Word) == 0 {
		return fmt.Sprintf("[%s] mem_pos=%d %s [%s]: %s", r.Kind.Code(), r.MemPos, r.Link, r.Kind, r.Msg)
	}
	return fmt.Sprintf("[%s] mem_pos=%d %s [%s]: %s %x", r.Kind.Code(), r.MemPos, r.Link, r.Kind, r.Msg, r.Word)
}
