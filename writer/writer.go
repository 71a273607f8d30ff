// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package writer is the alternate InputQ consumer for "padi
// filter-link": it re-emits a matched link's RDH and payload bytes
// verbatim to an output file or stdout, buffering to cut down on
// syscalls.
package writer // import "github.com/go-lpc/padi/writer"

import (
	"bufio"
	"io"

	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/validator"
)

// Consumer buffers matched-link bytes and flushes them to w. It keeps
// no per-link state of its own: filtering already happened in the
// scanner (scanner.LoadNextRDHToFilter), so every CdpChunk handed to
// Consume belongs to the link under inspection.
type Consumer struct {
	w *bufio.Writer
}

// New returns a writer Consumer flushing to w.
func New(w io.Writer) *Consumer {
	return &Consumer{w: bufio.NewWriter(w)}
}

// Consume implements pipeline.Consumer: it writes the RDH bytes
// followed by the payload bytes, verbatim, and never reports a
// violation of its own — a write failure is fatal and returned as an
// error instead.
func (c *Consumer) Consume(chunk scanner.CdpChunk) ([]validator.Report, error) {
	if _, err := c.w.Write(chunk.RDH.Bytes()); err != nil {
		return nil, err
	}
	if _, err := c.w.Write(chunk.Payload); err != nil {
		return nil, err
	}
	return nil, nil
}

// Flush writes any buffered bytes out. The caller must call Flush
// after the pipeline finishes; there is no finalizer, unlike the
// buffer this consumer is grounded on.
func (c *Consumer) Flush() error { return c.w.Flush() }
