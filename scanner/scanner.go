// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner turns a raw byte stream into a sequence of CdpChunk
// values, using only the RDH's self-described offsets to find each
// payload boundary.
package scanner // import "github.com/go-lpc/padi/scanner"

import (
	"github.com/go-lpc/padi/link"
	"github.com/go-lpc/padi/rdh"
	"github.com/go-lpc/padi/reader"
	"golang.org/x/xerrors"
)

// maxCdpSize bounds the bytes skipped after a payload: offset_to_next
// minus memory_size may be at most maxCdpSize-rdh.Size. The payload
// size itself is not checked against it.
const maxCdpSize = 20480

// CdpChunk is one RDH plus its payload, tagged with the byte offset
// in the logical stream at which the RDH began.
type CdpChunk struct {
	RDH     rdh.RDH
	Payload []byte
	MemPos  uint64
}

// Scanner incrementally parses a byte stream into CdpChunks. It owns
// the Reader exclusively and tracks the logical stream position so
// errors downstream can cite where they were detected.
type Scanner struct {
	r      reader.Reader
	memPos uint64
}

// New returns a Scanner reading from r.
func New(r reader.Reader) *Scanner { return &Scanner{r: r} }

// MemPos returns the current logical byte position in the stream.
func (s *Scanner) MemPos() uint64 { return s.memPos }

// LoadRDH reads and decodes one 64-byte RDH. An unsupported
// header_id is a fatal error.
func (s *Scanner) LoadRDH() (rdh.RDH, error) {
	buf := make([]byte, rdh.Size)
	if err := s.r.ReadFull(buf); err != nil {
		return nil, xerrors.Errorf("scanner: short read at mem_pos=%d loading RDH: %w", s.memPos, err)
	}
	h, err := rdh.Decode(buf)
	if err != nil {
		return nil, xerrors.Errorf("scanner: mem_pos=%d: %w", s.memPos, err)
	}
	link.LatchHeaderID(buf[0])
	s.memPos += uint64(rdh.Size)
	return h, nil
}

// LoadPayload reads exactly size bytes of payload.
func (s *Scanner) LoadPayload(size uint16) ([]byte, error) {
	buf := make([]byte, size)
	if err := s.r.ReadFull(buf); err != nil {
		return nil, xerrors.Errorf("scanner: short read at mem_pos=%d loading a %d-byte payload: %w", s.memPos, size, err)
	}
	s.memPos += uint64(size)
	return buf, nil
}

// LoadCDP reads one full CdpChunk: an RDH, its payload, then advances
// past any bytes offset_to_next leaves unaccounted for.
func (s *Scanner) LoadCDP() (CdpChunk, error) {
	startPos := s.memPos
	h, err := s.LoadRDH()
	if err != nil {
		return CdpChunk{}, err
	}

	headerSize := uint16(h.HeaderSize())
	memSize := h.MemorySize()
	if memSize < headerSize {
		return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: memory_size %d is smaller than header_size %d", startPos, memSize, headerSize)
	}
	payloadSize := memSize - headerSize

	payload, err := s.LoadPayload(payloadSize)
	if err != nil {
		return CdpChunk{}, err
	}

	offsetToNext := h.OffsetToNext()
	if offsetToNext < memSize {
		return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: offset_to_next %d is smaller than memory_size %d", startPos, offsetToNext, memSize)
	}
	seekDelta := int64(offsetToNext - memSize)
	if seekDelta > maxCdpSize-int64(rdh.Size) {
		return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: seek_delta %d exceeds the %d-byte CDP budget", startPos, seekDelta, maxCdpSize-int64(rdh.Size))
	}
	if err := s.r.SeekRelative(seekDelta); err != nil {
		return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: %w", startPos, err)
	}
	s.memPos += uint64(seekDelta)

	return CdpChunk{RDH: h, Payload: payload, MemPos: startPos}, nil
}

// LoadNextRDHToFilter behaves like LoadCDP, but skips via seek — never
// materializing the payload — any RDH whose link_id does not match
// linkID.
func (s *Scanner) LoadNextRDHToFilter(linkID uint8) (CdpChunk, error) {
	for {
		startPos := s.memPos
		h, err := s.LoadRDH()
		if err != nil {
			return CdpChunk{}, err
		}

		headerSize := uint16(h.HeaderSize())
		memSize := h.MemorySize()
		if memSize < headerSize {
			return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: memory_size %d is smaller than header_size %d", startPos, memSize, headerSize)
		}
		payloadSize := memSize - headerSize

		offsetToNext := h.OffsetToNext()
		if offsetToNext < memSize {
			return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: offset_to_next %d is smaller than memory_size %d", startPos, offsetToNext, memSize)
		}
		tailDelta := int64(offsetToNext - memSize)
		if tailDelta > maxCdpSize-int64(rdh.Size) {
			return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: seek_delta %d exceeds the %d-byte CDP budget", startPos, tailDelta, maxCdpSize-int64(rdh.Size))
		}

		if h.LinkID() != linkID {
			if err := s.r.SeekRelative(int64(payloadSize) + tailDelta); err != nil {
				return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: %w", startPos, err)
			}
			s.memPos += uint64(payloadSize) + uint64(tailDelta)
			continue
		}

		payload, err := s.LoadPayload(payloadSize)
		if err != nil {
			return CdpChunk{}, err
		}
		if err := s.r.SeekRelative(tailDelta); err != nil {
			return CdpChunk{}, xerrors.Errorf("scanner: mem_pos=%d: %w", startPos, err)
		}
		s.memPos += uint64(tailDelta)
		return CdpChunk{RDH: h, Payload: payload, MemPos: startPos}, nil
	}
}
