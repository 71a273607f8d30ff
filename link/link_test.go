// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"testing"

	"github.com/go-lpc/padi/rdh"
)

type fakeRDH struct {
	rdh.RDH
	r0 rdh.RDH0
	r1 rdh.RDH1
	r2 rdh.RDH2
	r3 rdh.RDH3
	dw uint8
	df uint8
}

func (f fakeRDH) RDH0() rdh.RDH0   { return f.r0 }
func (f fakeRDH) RDH1() rdh.RDH1   { return f.r1 }
func (f fakeRDH) RDH2() rdh.RDH2   { return f.r2 }
func (f fakeRDH) RDH3() rdh.RDH3   { return f.r3 }
func (f fakeRDH) DW() uint8        { return f.dw }
func (f fakeRDH) DataFormat() uint8 { return f.df }

func baseRDH() fakeRDH {
	return fakeRDH{
		r0: rdh.RDH0{HeaderID: 7, HeaderSize: 0x40, SystemID: 0x20},
		r2: rdh.RDH2{TriggerType: 1},
	}
}

func TestCheckRunningFirstRDHAlwaysPasses(t *testing.T) {
	s := New()
	h := baseRDH()
	h.r1.Orbit = 100
	if err := s.CheckRunning(h); err != nil {
		t.Fatalf("unexpected error on first RDH: %v", err)
	}
}

func TestCheckRunningPageCounterContinuity(t *testing.T) {
	s := New()
	h0 := baseRDH()
	h0.r1.Orbit = 100
	h0.r2.PageCounter = 0
	if err := s.CheckRunning(h0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h1 := baseRDH()
	h1.r1.Orbit = 100
	h1.r2.PageCounter = 1
	if err := s.CheckRunning(h1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h2bad := baseRDH()
	h2bad.r1.Orbit = 100
	h2bad.r2.PageCounter = 5
	if err := s.CheckRunning(h2bad); err == nil {
		t.Fatalf("expected a page_counter continuity error")
	}
}

func TestCheckRunningOrbitMustChangeAtNewPageTrain(t *testing.T) {
	s := New()
	h0 := baseRDH()
	h0.r1.Orbit = 100
	h0.r2.StopBit = 1
	if err := s.CheckRunning(h0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h1 := baseRDH()
	h1.r1.Orbit = 100 // same orbit as previous page-0 train: illegal
	h1.r2.PageCounter = 0
	if err := s.CheckRunning(h1); err == nil {
		t.Fatalf("expected an error: orbit did not change across stop_bit transition")
	}
}

func TestCheckRunningFieldsMustStayConstantMidTrain(t *testing.T) {
	s := New()
	h0 := baseRDH()
	h0.r1.Orbit = 100
	h0.r2.TriggerType = 7
	if err := s.CheckRunning(h0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h1 := baseRDH()
	h1.r1.Orbit = 100
	h1.r2.PageCounter = 1
	h1.r2.TriggerType = 8 // changed mid train: illegal
	if err := s.CheckRunning(h1); err == nil {
		t.Fatalf("expected an error: trigger_type changed mid page train")
	}
}

func TestCheckSanity(t *testing.T) {
	resetLatchedHeaderID()
	h := baseRDH()
	if err := CheckSanity(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := baseRDH()
	bad.r0.SystemID = 0x99
	if err := CheckSanity(bad); err == nil {
		t.Fatalf("expected an error for a non-ITS system_id")
	}
}

func TestCheckSanityLatchedHeaderID(t *testing.T) {
	resetLatchedHeaderID()
	LatchHeaderID(7)
	defer resetLatchedHeaderID()

	h := baseRDH()
	h.r0.HeaderID = 6
	if err := CheckSanity(h); err == nil {
		t.Fatalf("expected an error: header_id does not match the latched value")
	}
}

func TestCheckSanityFeeIDBounds(t *testing.T) {
	resetLatchedHeaderID()
	h := baseRDH()
	h.r0.FeeID = rdh.FeeID(48) // stave 48, out of [0,47]
	if err := CheckSanity(h); err == nil {
		t.Fatalf("expected an error for stave out of range")
	}
}

func TestCheckSanityDWAndDataFormat(t *testing.T) {
	resetLatchedHeaderID()
	h := baseRDH()
	h.dw = 2
	if err := CheckSanity(h); err == nil {
		t.Fatalf("expected an error for dw > 1")
	}

	h = baseRDH()
	h.df = 3
	if err := CheckSanity(h); err == nil {
		t.Fatalf("expected an error for data_format > 2")
	}
}
