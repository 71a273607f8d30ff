// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-lpc/padi/stats"
	"github.com/go-lpc/padi/validator"
)

func TestConsumeTicksAndReports(t *testing.T) {
	var out bytes.Buffer
	c := stats.New(&out)

	q := make(chan stats.Event, 4)
	q <- stats.TickEvent()
	q <- stats.ReportEvent(validator.Report{Kind: validator.KindRdhRunning, Link: "fee_id=0x0/link_id=0", Msg: "bad page_counter"})
	close(q)

	n := c.Consume(q)
	if n != 1 {
		t.Fatalf("error count: got=%d, want=1", n)
	}
	if !strings.Contains(out.String(), "bad page_counter") {
		t.Fatalf("expected the report message in the log output, got %q", out.String())
	}
}

func TestDedupAboveThreshold(t *testing.T) {
	var out bytes.Buffer
	c := stats.New(&out)

	q := make(chan stats.Event, 10)
	for i := 0; i < 8; i++ {
		q <- stats.ReportEvent(validator.Report{Kind: validator.KindWordSanity, Link: "fee_id=0x1/link_id=2", Msg: "bad word"})
	}
	close(q)
	c.Consume(q)

	if got, want := strings.Count(out.String(), "bad word"), 5; got != want {
		t.Fatalf("expected exactly %d full report lines, got %d in %q", want, got, out.String())
	}
	if !strings.Contains(out.String(), "further occurrences suppressed") {
		t.Fatalf("expected a suppression notice, got %q", out.String())
	}
}

func TestSummaryCountsByKind(t *testing.T) {
	var out bytes.Buffer
	c := stats.New(&out)

	q := make(chan stats.Event, 2)
	q <- stats.ReportEvent(validator.Report{Kind: validator.KindRdhSanity, Link: "fee_id=0x0/link_id=0", Msg: "m1"})
	q <- stats.ReportEvent(validator.Report{Kind: validator.KindRdhSanity, Link: "fee_id=0x0/link_id=1", Msg: "m2"})
	close(q)
	c.Consume(q)

	var summary bytes.Buffer
	c.Summary(&summary)
	if !strings.Contains(summary.String(), "RdhSanity") {
		t.Fatalf("expected RdhSanity in summary, got %q", summary.String())
	}
	if got, want := c.ErrorCount(), uint64(2); got != want {
		t.Fatalf("error count: got=%d, want=%d", got, want)
	}
}
