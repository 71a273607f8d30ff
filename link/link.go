// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link holds per-(fee_id, link_id) state and the RDH-level
// running and sanity checks a validator runs before it ever looks at
// a payload's GBT words.
package link // import "github.com/go-lpc/padi/link"

import (
	"fmt"

	"github.com/go-lpc/padi/fsm"
	"github.com/go-lpc/padi/rdh"
)

// ID identifies a unique link as the (fee_id, link_id) pair a CdpChunk
// is routed on.
type ID struct {
	FeeID  rdh.FeeID
	LinkID uint8
}

func (i ID) String() string { return fmt.Sprintf("fee_id=0x%X/link_id=%d", uint16(i.FeeID), i.LinkID) }

// State is the running state a validator keeps for one link across
// its whole lifetime: the expected next page_counter, the RDH fields
// that must stay constant within one page train, the CDP-FSM
// position, and the latched values its per-word invariants compare
// against.
type State struct {
	seen bool

	ExpectedPageCounter uint16
	PrevStopBit         uint8
	PrevOrbit           uint32
	TriggerType         uint32
	DetectorField       uint32
	FeeID               rdh.FeeID

	FSM fsm.State

	PrevTDHTriggerBC uint16
	PrevCDWUserField uint64
	ActiveLanes      uint32
}

// New returns a fresh State for a link about to receive its first RDH.
func New() *State {
	return &State{FSM: fsm.StateIHW}
}

func (s *State) String() string { return fmt.Sprintf("fee_id=0x%X", uint16(s.FeeID)) }

// CheckRunning applies the RDH running checks of a page sequence
// (§4.2.2): page_counter continuity, and field stability across a
// page train. It always advances the link's expected state, even on
// error, so a single bad RDH does not cascade into spurious errors
// downstream.
func (s *State) CheckRunning(h rdh.RDH) error {
	r1, r2, r3 := h.RDH1(), h.RDH2(), h.RDH3()
	var err error

	if !s.seen {
		s.seen = true
	} else {
		switch r2.PageCounter {
		case 0:
			if s.PrevStopBit != 1 {
				err = fmt.Errorf("link %s: page_counter==0 but previous RDH stop_bit was %d", s, s.PrevStopBit)
			} else if r1.Orbit == s.PrevOrbit {
				err = fmt.Errorf("link %s: page_counter==0 orbit %d repeats the previous page train", s, r1.Orbit)
			}
		default:
			if r2.PageCounter != s.ExpectedPageCounter {
				err = fmt.Errorf("link %s: page_counter: got=%d, want=%d", s, r2.PageCounter, s.ExpectedPageCounter)
			} else if r1.Orbit != s.PrevOrbit {
				err = fmt.Errorf("link %s: orbit changed mid page train: got=%d, want=%d", s, r1.Orbit, s.PrevOrbit)
			} else if r2.TriggerType != s.TriggerType {
				err = fmt.Errorf("link %s: trigger_type changed mid page train: got=%d, want=%d", s, r2.TriggerType, s.TriggerType)
			} else if r3.DetectorField != s.DetectorField {
				err = fmt.Errorf("link %s: detector_field changed mid page train: got=0x%X, want=0x%X", s, r3.DetectorField, s.DetectorField)
			} else if h.RDH0().FeeID != s.FeeID {
				err = fmt.Errorf("link %s: fee_id changed mid page train: got=0x%X, want=0x%X", s, uint16(h.RDH0().FeeID), uint16(s.FeeID))
			}
		}
	}

	s.PrevStopBit = r2.StopBit
	s.PrevOrbit = r1.Orbit
	s.TriggerType = r2.TriggerType
	s.DetectorField = r3.DetectorField
	s.FeeID = h.RDH0().FeeID
	if r2.StopBit == 1 {
		s.ExpectedPageCounter = 0
	} else {
		s.ExpectedPageCounter = r2.PageCounter + 1
	}
	return err
}

// latchedHeaderID is set once from the first RDH0.HeaderID observed by
// the process and is read-only thereafter.
var latchedHeaderID uint8
var haveLatchedHeaderID bool

// LatchHeaderID records id as the reference header_id on first call;
// subsequent calls are no-ops.
func LatchHeaderID(id uint8) {
	if !haveLatchedHeaderID {
		latchedHeaderID = id
		haveLatchedHeaderID = true
	}
}

// resetLatchedHeaderID clears the process-wide latch. It exists for
// test isolation only; production code never calls it.
func resetLatchedHeaderID() {
	haveLatchedHeaderID = false
	latchedHeaderID = 0
}

// CheckSanity applies the RDH sanity checks of §4.2.3. It is only run
// when sanity mode is enabled.
func CheckSanity(h rdh.RDH) error {
	r0, r1, r2, r3 := h.RDH0(), h.RDH1(), h.RDH2(), h.RDH3()

	if haveLatchedHeaderID && r0.HeaderID != latchedHeaderID {
		return fmt.Errorf("rdh sanity: header_id: got=%d, want=%d (latched)", r0.HeaderID, latchedHeaderID)
	}
	if r0.HeaderSize != 0x40 {
		return fmt.Errorf("rdh sanity: header_size: got=0x%X, want=0x40", r0.HeaderSize)
	}
	if layer := r0.FeeID.Layer(); layer > 6 {
		return fmt.Errorf("rdh sanity: fee_id.layer: got=%d, want<=6", layer)
	}
	if stave := r0.FeeID.Stave(); stave > 47 {
		return fmt.Errorf("rdh sanity: fee_id.stave: got=%d, want<=47", stave)
	}
	if rs := r0.FeeID.Reserved(); rs != 0 {
		return fmt.Errorf("rdh sanity: fee_id reserved bits set: 0x%X", rs)
	}
	if r0.PriorityBit != 0 {
		return fmt.Errorf("rdh sanity: priority_bit: got=%d, want=0", r0.PriorityBit)
	}
	const itsSystemID = 0x20
	if r0.SystemID != itsSystemID {
		return fmt.Errorf("rdh sanity: system_id: got=0x%X, want=0x%X", r0.SystemID, itsSystemID)
	}

	const maxBC = 0xDEB
	if r1.BC() >= maxBC {
		return fmt.Errorf("rdh sanity: bc: got=0x%X, want<0x%X", r1.BC(), maxBC)
	}
	if rs := r1.Reserved(); rs != 0 {
		return fmt.Errorf("rdh sanity: RDH1 reserved bits set: 0x%X", rs)
	}

	if r2.StopBit > 1 {
		return fmt.Errorf("rdh sanity: stop_bit: got=%d, want<=1", r2.StopBit)
	}
	if r2.TriggerType < 1 {
		return fmt.Errorf("rdh sanity: trigger_type: got=0, want>=1")
	}
	if sb := r2.SpareBits(); sb != 0 {
		return fmt.Errorf("rdh sanity: trigger_type spare bits set: 0x%X", sb)
	}
	if r2.Reserved0 != 0 {
		return fmt.Errorf("rdh sanity: RDH2 reserved byte set: 0x%X", r2.Reserved0)
	}

	if rs := r3.Reserved(); rs != 0 {
		return fmt.Errorf("rdh sanity: detector_field[23:4] reserved bits set: 0x%X", rs)
	}
	if r3.Reserved0 != 0 {
		return fmt.Errorf("rdh sanity: RDH3 reserved word set: 0x%X", r3.Reserved0)
	}

	if h.DW() > 1 {
		return fmt.Errorf("rdh sanity: dw: got=%d, want<=1", h.DW())
	}
	if h.DataFormat() > 2 {
		return fmt.Errorf("rdh sanity: data_format: got=%d, want<=2", h.DataFormat())
	}
	return nil
}
