// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validator

import (
	"github.com/go-lpc/padi/fsm"
	"github.com/go-lpc/padi/link"
	"github.com/go-lpc/padi/rdh"
	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/word"
)

// maxPadding is the largest number of trailing bytes a payload may
// carry past the last GBT word processPayload parses: the bytes after
// a DDW0, or the bytes left over after the last whole 10-byte word.
// Bytes that follow a TDT are parsed as further GBT words, not as
// padding.
const maxPadding = 15

// Validator drives the per-link RDH running checks and the CDP-FSM
// over each CdpChunk's payload. It is not safe for concurrent use:
// the pipeline runs exactly one Validator as the sole consumer of
// InputQ.
type Validator struct {
	links  map[link.ID]*link.State
	sanity bool
	rdhs   uint64
}

// New returns a Validator. sanity enables the RDH sanity (field-level)
// checks.
func New(sanity bool) *Validator {
	return &Validator{links: make(map[link.ID]*link.State), sanity: sanity}
}

// RDHCount reports the number of RDHs this Validator has processed
// across all links, including ones that failed a running check — a
// failure never stops the count from advancing.
func (v *Validator) RDHCount() uint64 { return v.rdhs }

// Links returns the set of distinct links discovered so far.
func (v *Validator) Links() []link.ID {
	ids := make([]link.ID, 0, len(v.links))
	for id := range v.links {
		ids = append(ids, id)
	}
	return ids
}

// Process validates one CdpChunk, returning every violation found.
// RDH running-check failures still advance link state to the observed
// values, and a sanity/FSM/word violation never aborts processing of
// the remainder — this always returns (possibly empty), never an
// error.
func (v *Validator) Process(chunk scanner.CdpChunk) []Report {
	var reports []Report
	v.rdhs++

	id := link.ID{FeeID: chunk.RDH.RDH0().FeeID, LinkID: chunk.RDH.LinkID()}
	ls, ok := v.links[id]
	if !ok {
		ls = link.New()
		v.links[id] = ls
	}

	if err := ls.CheckRunning(chunk.RDH); err != nil {
		reports = append(reports, Report{Kind: KindRdhRunning, MemPos: chunk.MemPos, Link: id.String(), Msg: err.Error()})
	}
	if v.sanity {
		if err := link.CheckSanity(chunk.RDH); err != nil {
			reports = append(reports, Report{Kind: KindRdhSanity, MemPos: chunk.MemPos, Link: id.String(), Msg: err.Error()})
		}
	}

	reports = append(reports, v.processPayload(chunk, ls, id)...)
	return reports
}

// Consume adapts Process to the pipeline.Consumer contract: a
// Validator never fails fatally on its own, so the error return is
// always nil.
func (v *Validator) Consume(chunk scanner.CdpChunk) ([]Report, error) {
	return v.Process(chunk), nil
}

// processPayload feeds the payload's GBT words to the link's FSM one
// at a time, stopping as soon as the FSM reaches its terminal state
// (a DDW0 was consumed). Whatever bytes remain from there to the end
// of the payload are end-of-payload padding; more than maxPadding of
// them is reported and resets the FSM (§4.2.4 recovery boundary).
func (v *Validator) processPayload(chunk scanner.CdpChunk, ls *link.State, id link.ID) []Report {
	var reports []Report
	payload := chunk.Payload
	r2 := chunk.RDH.RDH2()

	n := len(payload) / word.Size
	i := 0
	for ; i < n; i++ {
		b := payload[i*word.Size : (i+1)*word.Size]
		memPos := chunk.MemPos + uint64(rdh.Size) + uint64(i*word.Size)
		reports = append(reports, v.processWord(b, memPos, ls, id, r2)...)
		if ls.FSM == fsm.StateDone {
			i++
			break
		}
	}

	tail := len(payload) - i*word.Size
	if tail > maxPadding {
		reports = append(reports, Report{
			Kind: KindPayloadPadding, MemPos: chunk.MemPos, Link: id.String(),
			Msg: "trailing bytes after the last GBT word exceed 15",
		})
		ls.FSM = fsm.StateIHW
	}
	return reports
}

func (v *Validator) processWord(b []byte, memPos uint64, ls *link.State, id link.ID, r2 rdh.RDH2) []Report {
	var reports []Report

	kind := word.KindOf(b)
	in := fsm.Input{
		Kind:             kind,
		StopBit:          r2.StopBit,
		PageCounter:      r2.PageCounter,
		PrevTDHTriggerBC: ls.PrevTDHTriggerBC,
	}

	switch kind {
	case word.KindIHW:
		w := word.DecodeIHW(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "IHW: " + err.Error(), Word: b})
		}
		ls.ActiveLanes = w.ActiveLanes

	case word.KindTDH:
		w := word.DecodeTDH(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "TDH: " + err.Error(), Word: b})
		}
		in.NoData = w.NoData
		in.InternalTrigger = w.InternalTrigger
		in.Continuation = w.Continuation
		in.TriggerBC = w.TriggerBC

	case word.KindTDT:
		w := word.DecodeTDT(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "TDT: " + err.Error(), Word: b})
		}
		in.PacketDone = w.PacketDone

	case word.KindDDW0:
		w := word.DecodeDDW0(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "DDW0: " + err.Error(), Word: b})
		}

	case word.KindCDW:
		w := word.DecodeCDW(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "CDW: " + err.Error(), Word: b})
		}
		if w.UserField != ls.PrevCDWUserField && w.Index != 0 {
			reports = append(reports, Report{
				Kind: KindInterWordInvariant, MemPos: memPos, Link: id.String(),
				Msg: "CDW index must be 0 when user_field changes", Word: b,
			})
		}
		ls.PrevCDWUserField = w.UserField
		in.Kind = word.KindData // a CDW occupies a Data slot in the grammar

	case word.KindData:
		w := word.DecodeDataWord(b)
		if err := w.Sanity(); err != nil {
			reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "DataWord: " + err.Error(), Word: b})
		} else {
			lane := w.Lane()
			if !word.IsLaneActive(lane, ls.ActiveLanes) {
				reports = append(reports, Report{
					Kind: KindInterWordInvariant, MemPos: memPos, Link: id.String(),
					Msg: "lane not in the latest IHW active_lanes", Word: b,
				})
			}
		}

	default:
		reports = append(reports, Report{Kind: KindWordSanity, MemPos: memPos, Link: id.String(), Msg: "unrecognized GBT word id", Word: b})
		if ls.FSM == fsm.StateData || ls.FSM == fsm.StateCData {
			// A data slot accepts any lane/connector ID; an
			// unrecognized one is a malformed data word, not a
			// grammar violation — report it once, not twice.
			in.Kind = word.KindData
		}
	}

	next, err := fsm.Step(ls.FSM, in)
	if err != nil {
		reports = append(reports, Report{Kind: KindFsmUnexpectedWord, MemPos: memPos, Link: id.String(), Msg: err.Error(), Word: b})
	} else if kind == word.KindTDH {
		ls.PrevTDHTriggerBC = in.TriggerBC
	}
	ls.FSM = next
	return reports
}
