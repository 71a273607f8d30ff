// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats holds the StatsController: the single consumer of the
// stats queue, owning every counter and error bucket for the run.
package stats // import "github.com/go-lpc/padi/stats"

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/go-lpc/padi/validator"
)

// dedupThreshold is how many times a (kind, link) pair is printed in
// full before the controller collapses further occurrences into a
// running count only.
const dedupThreshold = 5

// Event is one message flowing through StatsQ: either a validator
// Report, or a plain progress tick that counts one RDH/payload.
type Event struct {
	Report validator.Report
	IsTick bool
}

// TickEvent returns an Event that only advances the RDH/payload
// counters. The pipeline sends one per consumed chunk, whether or not
// that chunk also produced reports.
func TickEvent() Event { return Event{IsTick: true} }

// ReportEvent wraps a validator Report as a stats Event.
func ReportEvent(r validator.Report) Event { return Event{Report: r} }

type bucketKey struct {
	kind validator.Kind
	link string
}

// Controller is the single consumer of StatsQ. It is not safe for
// concurrent use; Run owns it exclusively for the run's duration.
type Controller struct {
	msg *log.Logger

	rdhs     uint64
	payloads uint64
	errors   uint64

	counts map[bucketKey]uint64
	links  map[string]struct{}
}

// New returns a Controller that logs to w.
func New(w io.Writer) *Controller {
	return &Controller{
		msg:    log.New(w, "padi: ", 0),
		counts: make(map[bucketKey]uint64),
		links:  make(map[string]struct{}),
	}
}

// Consume drains q until it is closed (all producers disconnected),
// recording every Event and printing reports as they arrive, subject
// to the per-(kind,link) dedup threshold. It returns the count of
// reports seen, for the caller to derive an exit code from.
func (c *Controller) Consume(q <-chan Event) uint64 {
	for ev := range q {
		c.record(ev)
	}
	return c.errors
}

func (c *Controller) record(ev Event) {
	if ev.IsTick {
		c.rdhs++
		c.payloads++
		return
	}

	r := ev.Report
	c.errors++
	if r.Link != "" {
		c.links[r.Link] = struct{}{}
	}

	key := bucketKey{kind: r.Kind, link: r.Link}
	c.counts[key]++

	n := c.counts[key]
	switch {
	case n <= dedupThreshold:
		c.msg.Printf("%s", r.String())
	case n == dedupThreshold+1:
		c.msg.Printf("%s [%s/%s]: further occurrences suppressed", r.Kind, r.Link, r.Kind)
	}
}

// Summary prints the final per-run totals: RDH/payload counts, the
// discovered link set, and a sorted breakdown of error counts by kind.
func (c *Controller) Summary(w io.Writer) {
	fmt.Fprintf(w, "padi: summary\n")
	fmt.Fprintf(w, "  rdhs:     %d\n", c.rdhs)
	fmt.Fprintf(w, "  payloads: %d\n", c.payloads)
	fmt.Fprintf(w, "  links:    %d\n", len(c.links))
	fmt.Fprintf(w, "  errors:   %d\n", c.errors)

	if c.errors == 0 {
		return
	}

	byKind := make(map[validator.Kind]uint64)
	for k, n := range c.counts {
		byKind[k.kind] += n
	}
	kinds := make([]validator.Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(w, "    %-20s %d\n", k, byKind[k])
	}
}

// ErrorCount returns the running total of reported violations.
func (c *Controller) ErrorCount() uint64 { return c.errors }
