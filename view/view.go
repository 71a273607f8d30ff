// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package view is the alternate InputQ consumer for "padi view": it
// prints a human-readable per-word dump instead of only validating,
// and (independently) the tabular RDH dump used by --dump-rdhs.
package view // import "github.com/go-lpc/padi/view"

import (
	"fmt"
	"io"

	"github.com/go-lpc/padi/fsm"
	"github.com/go-lpc/padi/link"
	"github.com/go-lpc/padi/rdh"
	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/validator"
	"github.com/go-lpc/padi/word"
)

// Consumer prints an hbf_view-style dump of every CdpChunk it
// consumes: one line per RDH, one line per GBT word. It advances a
// per-link FSM with each recognized word but does not print that
// state; a word it cannot make sense of is reported rather than
// silently skipped.
type Consumer struct {
	w             io.Writer
	links         map[link.ID]*link.State
	headerPrinted bool
}

// New returns a view Consumer writing to w.
func New(w io.Writer) *Consumer {
	return &Consumer{w: w, links: make(map[link.ID]*link.State)}
}

func (c *Consumer) header() {
	fmt.Fprintf(c.w, "\nMemory    Word%37s%12s%12s%12s%12s\n", "Trig.", "Packet", "Expect", "Link", "Lane  ")
	fmt.Fprintf(c.w, "Position  type%36s %12s%12s%12s%12s\n\n", "type", "status", "Data? ", "ID  ", "faults")
}

// Consume implements pipeline.Consumer.
func (c *Consumer) Consume(chunk scanner.CdpChunk) ([]validator.Report, error) {
	if !c.headerPrinted {
		c.header()
		c.headerPrinted = true
	}

	id := link.ID{FeeID: chunk.RDH.RDH0().FeeID, LinkID: chunk.RDH.LinkID()}
	ls, ok := c.links[id]
	if !ok {
		ls = link.New()
		c.links[id] = ls
	}

	fmt.Fprintf(c.w, "%8X: RDH v%d %28s #%-18d\n",
		chunk.MemPos, chunk.RDH.Version(), triggerTypeString(chunk.RDH.RDH2().TriggerType), chunk.RDH.LinkID())

	var reports []validator.Report
	n := len(chunk.Payload) / word.Size
	for i := 0; i < n; i++ {
		b := chunk.Payload[i*word.Size : (i+1)*word.Size]
		memPos := chunk.MemPos + uint64(rdh.Size) + uint64(i*word.Size)

		kind := word.KindOf(b)
		fmt.Fprintf(c.w, "%8X: %s %s\n", memPos, kind, formatWordBytes(b))
		if kind == word.KindUnknown {
			reports = append(reports, validator.Report{
				Kind: validator.KindWordSanity, MemPos: memPos, Link: id.String(),
				Msg: "unrecognized GBT word id", Word: b,
			})
			continue
		}

		in := fsm.Input{Kind: kind}
		if next, err := fsm.Step(ls.FSM, in); err == nil {
			ls.FSM = next
		}
	}

	// End-of-payload padding is not reported in view mode: it is purely
	// a display tool and leaves validation to "padi check".
	return reports, nil
}

func triggerTypeString(triggerType uint32) string {
	const (
		maskSOC = 1 << 9
		maskHB  = 1 << 1
		maskPhT = 1 << 4
	)
	switch {
	case triggerType&maskSOC != 0:
		return "SOC"
	case triggerType&maskHB != 0:
		return "HB"
	case triggerType&maskPhT != 0:
		return "PhT"
	default:
		return "Other"
	}
}

func formatWordBytes(b []byte) string {
	return fmt.Sprintf("[%02X %02X %02X %02X %02X %02X %02X %02X %02X %02X]",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8], b[9])
}

// DumpRDHTable prints a one-line-per-RDH tabular dump of every RDH in
// the chunk, independent of any consumer mode.
func DumpRDHTable(w io.Writer, chunk scanner.CdpChunk) {
	r0 := chunk.RDH.RDH0()
	r1 := chunk.RDH.RDH1()
	r2 := chunk.RDH.RDH2()
	fmt.Fprintf(w, "%8X  v%d  fee_id=0x%04X  link=%-3d  orbit=%-10d  bc=%-4d  stop=%d  page=%-5d  mem_size=%-5d\n",
		chunk.MemPos, chunk.RDH.Version(), uint16(r0.FeeID), chunk.RDH.LinkID(),
		r1.Orbit, r1.BC(), r2.StopBit, r2.PageCounter, chunk.RDH.MemorySize())
}
