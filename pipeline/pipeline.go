// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline wires the scanner, an InputQ consumer (validator,
// view or writer) and the stats controller together over bounded
// channels, and joins the three goroutines.
package pipeline // import "github.com/go-lpc/padi/pipeline"

import (
	"errors"
	"io"
	"sync"

	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/stats"
	"github.com/go-lpc/padi/validator"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// queueCapacity bounds InputQ and StatsQ; a full queue blocks its
// producer, which is how backpressure is provided.
const queueCapacity = 64

// Consumer is the single consumer of InputQ for a given run mode: the
// validator in check mode, or the view/writer consumer otherwise. It
// never aborts on a reported violation — only a non-nil error is
// fatal.
type Consumer interface {
	Consume(chunk scanner.CdpChunk) ([]validator.Report, error)
}

// Source produces the next CdpChunk from the byte stream, or an error
// wrapping io.EOF once the stream is cleanly exhausted.
type Source interface {
	Next() (scanner.CdpChunk, error)
}

// CheckSource adapts a *scanner.Scanner's LoadCDP for runs with no
// link filter.
type CheckSource struct{ Scanner *scanner.Scanner }

// Next implements Source.
func (s CheckSource) Next() (scanner.CdpChunk, error) { return s.Scanner.LoadCDP() }

// FilterSource adapts a *scanner.Scanner's LoadNextRDHToFilter for
// runs restricted to one link (filter-link mode, or --link in any
// mode), skipping non-matching links without materializing their
// payload.
type FilterSource struct {
	Scanner *scanner.Scanner
	LinkID  uint8
}

// Next implements Source.
func (s FilterSource) Next() (scanner.CdpChunk, error) { return s.Scanner.LoadNextRDHToFilter(s.LinkID) }

// Run drives one full pass: a producer goroutine pulls CdpChunks from
// src and feeds InputQ; a consumer goroutine drains InputQ through c,
// forwarding a tick and its reports to StatsQ; the calling goroutine
// drains StatsQ through sc until the consumer goroutine has finished,
// then prints the summary.
// The first fatal error from src or c is returned; reported violations
// never surface here; the caller derives its exit code from
// sc.ErrorCount() and the returned error.
func Run(src Source, c Consumer, sc *stats.Controller, summary io.Writer) error {
	inputQ := make(chan scanner.CdpChunk, queueCapacity)
	statsQ := make(chan stats.Event, queueCapacity)

	// quit unblocks a producer stuck sending to inputQ once the
	// consumer has given up early on a fatal error of its own.
	quit := make(chan struct{})
	var quitOnce sync.Once
	closeQuit := func() { quitOnce.Do(func() { close(quit) }) }

	var grp errgroup.Group

	grp.Go(func() error {
		defer close(inputQ)
		for {
			chunk, err := src.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				closeQuit()
				return xerrors.Errorf("pipeline: scanner: %w", err)
			}
			select {
			case inputQ <- chunk:
			case <-quit:
				return nil
			}
		}
	})

	consumerDone := make(chan struct{})
	grp.Go(func() error {
		defer close(consumerDone)
		for chunk := range inputQ {
			reports, err := c.Consume(chunk)
			if err != nil {
				closeQuit()
				return xerrors.Errorf("pipeline: consumer: %w", err)
			}
			// One tick per chunk regardless of how many violations it
			// produced, so rdhs/payloads count chunks, not events.
			statsQ <- stats.TickEvent()
			for _, r := range reports {
				statsQ <- stats.ReportEvent(r)
			}
		}
		return nil
	})

	go func() {
		<-consumerDone
		close(statsQ)
	}()

	sc.Consume(statsQ)
	sc.Summary(summary)

	return grp.Wait()
}
