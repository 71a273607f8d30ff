// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/go-lpc/padi/pipeline"
	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/stats"
	"github.com/go-lpc/padi/validator"
	"golang.org/x/xerrors"
)

// fakeSource replays a fixed slice of chunks, then reports a wrapped
// io.EOF, mimicking a cleanly exhausted stream.
type fakeSource struct {
	chunks []scanner.CdpChunk
	i      int
}

func (s *fakeSource) Next() (scanner.CdpChunk, error) {
	if s.i >= len(s.chunks) {
		return scanner.CdpChunk{}, xerrors.Errorf("fake: %w", io.EOF)
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

type countingConsumer struct{ n int }

func (c *countingConsumer) Consume(chunk scanner.CdpChunk) ([]validator.Report, error) {
	c.n++
	if chunk.MemPos == 42 {
		return []validator.Report{{Kind: validator.KindWordSanity, Msg: "boom"}}, nil
	}
	return nil, nil
}

func TestRunDrainsAllChunksAndSummarizes(t *testing.T) {
	src := &fakeSource{chunks: []scanner.CdpChunk{{MemPos: 0}, {MemPos: 42}, {MemPos: 100}}}
	c := &countingConsumer{}
	sc := stats.New(io.Discard)

	var summary bytes.Buffer
	if err := pipeline.Run(src, c, sc, &summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.n != 3 {
		t.Fatalf("expected 3 chunks consumed, got %d", c.n)
	}
	if got, want := sc.ErrorCount(), uint64(1); got != want {
		t.Fatalf("error count: got=%d, want=%d", got, want)
	}
}

type fatalConsumer struct{}

func (fatalConsumer) Consume(chunk scanner.CdpChunk) ([]validator.Report, error) {
	return nil, fmt.Errorf("disk full")
}

func TestRunPropagatesFatalConsumerError(t *testing.T) {
	src := &fakeSource{chunks: []scanner.CdpChunk{{MemPos: 0}, {MemPos: 1}, {MemPos: 2}}}
	sc := stats.New(io.Discard)

	err := pipeline.Run(src, fatalConsumer{}, sc, io.Discard)
	if err == nil {
		t.Fatalf("expected a fatal error")
	}
}

type fatalSource struct{}

func (fatalSource) Next() (scanner.CdpChunk, error) {
	return scanner.CdpChunk{}, fmt.Errorf("bad offset")
}

func TestRunPropagatesFatalSourceError(t *testing.T) {
	c := &countingConsumer{}
	sc := stats.New(io.Discard)

	err := pipeline.Run(fatalSource{}, c, sc, io.Discard)
	if err == nil {
		t.Fatalf("expected a fatal error")
	}
}
