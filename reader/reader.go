// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reader holds the minimal input contract the scanner needs:
// exact-size reads and forward-only relative seeking, with adapters
// for a seekable file and for stdin (which cannot seek, so forward
// motion is emulated by discarding bytes).
package reader // import "github.com/go-lpc/padi/reader"

import (
	"bufio"
	"io"

	"golang.org/x/xerrors"
)

// Reader is the collaborator contract a scanner reads from: exact-size
// reads, and forward seeking by a relative byte delta.
type Reader interface {
	ReadFull(buf []byte) error
	SeekRelative(delta int64) error
}

// file adapts an io.ReadSeeker (e.g. an *os.File) to Reader.
type file struct {
	r io.ReadSeeker
}

// NewFile returns a Reader backed by a seekable source.
func NewFile(r io.ReadSeeker) Reader { return &file{r: r} }

func (f *file) ReadFull(buf []byte) error {
	_, err := io.ReadFull(f.r, buf)
	if err != nil {
		return xerrors.Errorf("reader: could not read %d bytes: %w", len(buf), err)
	}
	return nil
}

func (f *file) SeekRelative(delta int64) error {
	if delta == 0 {
		return nil
	}
	if delta < 0 {
		return xerrors.Errorf("reader: negative seek delta %d is not supported", delta)
	}
	if _, err := f.r.Seek(delta, io.SeekCurrent); err != nil {
		return xerrors.Errorf("reader: could not seek by %d bytes: %w", delta, err)
	}
	return nil
}

// discard adapts a plain io.Reader (e.g. os.Stdin) to Reader. Since
// stdin cannot seek, forward motion is emulated by reading and
// discarding the requested number of bytes.
type discard struct {
	r *bufio.Reader
}

// NewStdin returns a Reader backed by a non-seekable stream.
func NewStdin(r io.Reader) Reader { return &discard{r: bufio.NewReader(r)} }

func (d *discard) ReadFull(buf []byte) error {
	_, err := io.ReadFull(d.r, buf)
	if err != nil {
		return xerrors.Errorf("reader: could not read %d bytes: %w", len(buf), err)
	}
	return nil
}

func (d *discard) SeekRelative(delta int64) error {
	if delta == 0 {
		return nil
	}
	if delta < 0 {
		return xerrors.Errorf("reader: negative seek delta %d is not supported on a non-seekable stream", delta)
	}
	n, err := io.CopyN(io.Discard, d.r, delta)
	if err != nil {
		return xerrors.Errorf("reader: could not discard %d bytes (discarded %d): %w", delta, n, err)
	}
	return nil
}
