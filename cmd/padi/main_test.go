// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/padi/rdh"
	"github.com/go-lpc/padi/word"
)

func rawRDH(linkID uint8, memSize, offsetToNext uint16, stopBit uint8, pageCounter uint16) []byte {
	b := make([]byte, rdh.Size)
	b[0] = 7
	b[1] = 0x40
	b[5] = 0x20 // system_id
	b[12] = linkID
	binary.BigEndian.PutUint16(b[10:12], memSize)
	binary.BigEndian.PutUint16(b[8:10], offsetToNext)
	b[38] = stopBit
	binary.BigEndian.PutUint16(b[36:38], pageCounter)
	return b
}

func gbtWord(id byte, flags byte) []byte {
	b := make([]byte, word.Size)
	b[8] = flags
	b[word.Size-1] = id
	return b
}

func writeCleanStream(t *testing.T) string {
	t.Helper()
	var payload0 bytes.Buffer
	payload0.Write(gbtWord(0xE0, 0))    // IHW
	payload0.Write(gbtWord(0xE8, 0x01)) // TDH, internal_trigger
	payload0.Write(gbtWord(0xF0, 0x01)) // TDT, packet_done

	var payload1 bytes.Buffer
	payload1.Write(gbtWord(0xE4, 0x01)) // DDW0, index=1

	var stream bytes.Buffer
	stream.Write(rawRDH(0, uint16(rdh.Size+payload0.Len()), uint16(rdh.Size+payload0.Len()), 0, 0))
	stream.Write(payload0.Bytes())
	stream.Write(rawRDH(0, uint16(rdh.Size+payload1.Len()), uint16(rdh.Size+payload1.Len()), 1, 1))
	stream.Write(payload1.Bytes())

	dir := t.TempDir()
	path := filepath.Join(dir, "clean.raw")
	if err := os.WriteFile(path, stream.Bytes(), 0o644); err != nil {
		t.Fatalf("unexpected error writing test stream: %v", err)
	}
	return path
}

func TestXmainCheckCleanStreamExitsZero(t *testing.T) {
	path := writeCleanStream(t)
	if got, want := xmain([]string{"check", path}), 0; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainCheckBadOffsetExitsTwo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "badoffset.raw")
	b := rawRDH(0, rdh.Size, rdh.Size+0x7000, 0, 0)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := xmain([]string{"check", path}), 2; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainVersionExitsZero(t *testing.T) {
	if got, want := xmain([]string{"version"}), 0; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainNoArgsExitsThree(t *testing.T) {
	if got, want := xmain(nil), 3; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainFilterLinkWithoutLinkExitsThree(t *testing.T) {
	path := writeCleanStream(t)
	if got, want := xmain([]string{"filter-link", path}), 3; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainViewRuns(t *testing.T) {
	path := writeCleanStream(t)
	if got, want := xmain([]string{"view", path}), 0; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
}

func TestXmainFilterLinkWritesOutput(t *testing.T) {
	path := writeCleanStream(t)
	out := filepath.Join(t.TempDir(), "out.raw")
	if got, want := xmain([]string{"filter-link", "--link", "0", "--output", out, path}), 0; got != want {
		t.Fatalf("exit code: got=%d, want=%d", got, want)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("unexpected error reading output: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected non-empty filtered output")
	}
}
