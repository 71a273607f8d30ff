// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsm implements the continuous-mode CDP (Continuous Detector
// Payload) grammar: the per-payload word-ordering state machine that a
// validator drives one GBT word at a time.
//
// The FSM never looks ahead on its own. Ambiguity between legal next
// words (after a TDH with no_data set, or after a TDT with
// packet_done set) is resolved by the caller: it decodes the next
// word, and Step is handed that word's kind and fields directly. This
// is a single lookahead, not recursion, per the word-ordering grammar.
package fsm // import "github.com/go-lpc/padi/fsm"

import (
	"fmt"

	"github.com/go-lpc/padi/word"
)

// State is a position in the continuous-mode CDP grammar.
type State int

const (
	// StateIHW is the start state: a fresh (non-continuation) page
	// expects an IHW first.
	StateIHW State = iota
	// StateTDH expects a TDH, or (after a no-data TDH) a further TDH
	// or a DDW0 — the first of the grammar's two choice points.
	StateTDH
	// StateData expects a Data word or the closing TDT.
	StateData
	// StateTDT is the second choice point: after a TDT with
	// packet_done set, the next word may start a new trigger (TDH),
	// a new page (IHW) or close the superpage (DDW0).
	StateTDT
	// StateDone is the terminal state: a DDW0 has closed the run.
	StateDone
	// StateCIHW expects the IHW that opens a continuation page
	// (page_counter >= 1, stop_bit == 0).
	StateCIHW
	// StateCTDH expects the TDH that resumes a trigger split across
	// pages (continuation == 1 required).
	StateCTDH
	// StateCData is StateData's continuation-page counterpart.
	StateCData
)

func (s State) String() string {
	switch s {
	case StateIHW:
		return "IHW"
	case StateTDH:
		return "TDH"
	case StateData:
		return "Data"
	case StateTDT:
		return "TDT"
	case StateDone:
		return "DDW0"
	case StateCIHW:
		return "c_IHW"
	case StateCTDH:
		return "c_TDH"
	case StateCData:
		return "c_Data"
	default:
		return "unknown"
	}
}

// Input bundles a decoded GBT word with the RDH and link-state context
// its guards need. Only the fields relevant to the word's Kind are
// read.
type Input struct {
	Kind word.Kind

	// RDH context of the page the word was read from.
	StopBit     uint8
	PageCounter uint16

	// TDH fields.
	NoData          bool
	InternalTrigger bool
	Continuation    bool
	TriggerBC       uint16

	// TDT fields.
	PacketDone bool

	// PrevTDHTriggerBC is the trigger_bc of the last TDH that Step
	// accepted on this link; required when a TDH follows a TDT with
	// packet_done == 1.
	PrevTDHTriggerBC uint16
}

// Step advances s by one GBT word. It returns the new state and a
// non-nil error when in is illegal for s; on error the returned state
// equals s, so a spurious word never corrupts the FSM's trail — the
// caller simply feeds the next word into the same state.
func Step(s State, in Input) (State, error) {
	switch s {
	case StateIHW:
		return stepExpectIHW(in, StateTDH, s)

	case StateTDH:
		if in.Kind == word.KindDDW0 {
			return stepExpectDDW0(in, StateTDH)
		}
		if in.Kind != word.KindTDH {
			return s, fmt.Errorf("fsm: state %s: got %s, want TDH or DDW0", s, in.Kind)
		}
		if in.NoData {
			return StateTDH, nil
		}
		return StateData, nil

	case StateData:
		switch in.Kind {
		case word.KindData:
			return StateData, nil
		case word.KindCDW:
			return StateData, nil
		case word.KindTDT:
			if in.PacketDone {
				return StateTDT, nil
			}
			return StateCIHW, nil
		default:
			return s, fmt.Errorf("fsm: state %s: got %s, want DataWord or TDT", s, in.Kind)
		}

	case StateTDT:
		switch in.Kind {
		case word.KindIHW:
			return stepExpectIHW(in, StateTDH, s)
		case word.KindTDH:
			if !in.InternalTrigger || in.Continuation {
				return s, fmt.Errorf("fsm: state %s: TDH after packet_done TDT needs internal_trigger=1, continuation=0", s)
			}
			if in.TriggerBC <= in.PrevTDHTriggerBC {
				return s, fmt.Errorf("fsm: state %s: trigger_bc %d does not exceed previous %d", s, in.TriggerBC, in.PrevTDHTriggerBC)
			}
			if in.NoData {
				return StateTDH, nil
			}
			return StateData, nil
		case word.KindDDW0:
			return stepExpectDDW0(in, StateTDT)
		default:
			return s, fmt.Errorf("fsm: state %s: got %s, want IHW, TDH or DDW0", s, in.Kind)
		}

	case StateCIHW:
		return stepExpectIHW(in, StateCTDH, s)

	case StateCTDH:
		if in.Kind != word.KindTDH {
			return s, fmt.Errorf("fsm: state %s: got %s, want TDH", s, in.Kind)
		}
		if !in.Continuation {
			return s, fmt.Errorf("fsm: state %s: TDH does not have continuation=1", s)
		}
		return StateCData, nil

	case StateCData:
		switch in.Kind {
		case word.KindData:
			return StateCData, nil
		case word.KindCDW:
			return StateCData, nil
		case word.KindTDT:
			if in.PacketDone {
				return StateTDT, nil
			}
			return StateCIHW, nil
		default:
			return s, fmt.Errorf("fsm: state %s: got %s, want DataWord or TDT", s, in.Kind)
		}

	case StateDone:
		return s, fmt.Errorf("fsm: state %s: payload already terminated, got %s", s, in.Kind)

	default:
		return s, fmt.Errorf("fsm: unknown state %d", s)
	}
}

// stepExpectIHW handles the two states that require an IHW (StateIHW
// and StateCIHW, reached again from StateTDT/StateCData on a mid-run
// IHW). On a guard failure it returns failState — the state Step was
// called with — so a spurious word never corrupts the FSM's trail.
func stepExpectIHW(in Input, next, failState State) (State, error) {
	if in.Kind != word.KindIHW {
		return failState, fmt.Errorf("fsm: expected IHW, got %s", in.Kind)
	}
	wantPage0 := next == StateTDH
	if wantPage0 {
		if in.StopBit != 0 || in.PageCounter != 0 {
			return failState, fmt.Errorf("fsm: IHW requires stop_bit=0, page_counter=0; got stop_bit=%d, page_counter=%d", in.StopBit, in.PageCounter)
		}
	} else {
		if in.StopBit != 0 || in.PageCounter < 1 {
			return failState, fmt.Errorf("fsm: continuation IHW requires stop_bit=0, page_counter>=1; got stop_bit=%d, page_counter=%d", in.StopBit, in.PageCounter)
		}
	}
	return next, nil
}

func stepExpectDDW0(in Input, failState State) (State, error) {
	if in.StopBit != 1 || in.PageCounter < 1 {
		return failState, fmt.Errorf("fsm: DDW0 requires stop_bit=1, page_counter>=1; got stop_bit=%d, page_counter=%d", in.StopBit, in.PageCounter)
	}
	return StateDone, nil
}
