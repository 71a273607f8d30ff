// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package view_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-lpc/padi/rdh"
	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/view"
	"github.com/go-lpc/padi/word"
)

func gbtWord(id byte) []byte {
	b := make([]byte, word.Size)
	b[word.Size-1] = id
	return b
}

func rawRDH() []byte {
	b := make([]byte, rdh.Size)
	b[0] = 7
	b[1] = 0x40
	b[5] = 0x20
	return b
}

func chunkFrom(t *testing.T, payload []byte) scanner.CdpChunk {
	t.Helper()
	h, err := rdh.Decode(rawRDH())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return scanner.CdpChunk{RDH: h, Payload: payload}
}

func TestConsumeDumpsWordsAndHeaderOnce(t *testing.T) {
	var out bytes.Buffer
	c := view.New(&out)

	var payload []byte
	payload = append(payload, gbtWord(0xE0)...)
	payload = append(payload, gbtWord(0xE8)...)

	if _, err := c.Consume(chunkFrom(t, payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Consume(chunkFrom(t, payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	if got, want := strings.Count(text, "Memory    Word"), 1; got != want {
		t.Fatalf("header printed %d times, want %d", got, want)
	}
	if got, want := strings.Count(text, "IHW"), 2; got != want {
		t.Fatalf("IHW lines: got=%d, want=%d", got, want)
	}
}

func TestConsumeReportsUnknownWord(t *testing.T) {
	c := view.New(&bytes.Buffer{})
	reports, err := c.Consume(chunkFrom(t, gbtWord(0x00)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %v", reports)
	}
}

func TestDumpRDHTable(t *testing.T) {
	var out bytes.Buffer
	view.DumpRDHTable(&out, chunkFrom(t, nil))
	if !strings.Contains(out.String(), "fee_id=0x0000") {
		t.Fatalf("expected fee_id in output, got %q", out.String())
	}
}
