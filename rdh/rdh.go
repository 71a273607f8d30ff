// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rdh holds the Raw Data Header (RDH) types for the ITS CRU
// readout stream: RDH0 through RDH3 and the two wire-compatible RDH
// versions (v6, v7) the scanner accepts.
package rdh // import "github.com/go-lpc/padi/rdh"

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// Size is the fixed on-wire size, in bytes, of any RDH (v6 or v7).
const Size = 64

// FeeID is the 16-bit front-end-electronics identifier bitfield carried
// in RDH0: [5:0] stave, [7:6] reserved, [9:8] fiber uplink, [11:10]
// reserved, [14:12] layer, [15] reserved.
type FeeID uint16

// Stave returns the 6-bit stave number.
func (f FeeID) Stave() uint8 { return uint8(f & 0x3F) }

// FiberUplink returns the 2-bit fiber uplink number.
func (f FeeID) FiberUplink() uint8 { return uint8((f >> 8) & 0x3) }

// Layer returns the 3-bit layer number.
func (f FeeID) Layer() uint8 { return uint8((f >> 12) & 0x7) }

// feeIDReservedMask masks the reserved bits of FeeID: bit 15, bits
// [11:10] and bits [7:6].
const feeIDReservedMask FeeID = 0b1000_1100_1100_0000

// Reserved returns the reserved bits of the FeeID, which must be 0.
func (f FeeID) Reserved() uint16 { return uint16(f & feeIDReservedMask) }

// RDH0 is the first 8 bytes of every RDH.
type RDH0 struct {
	HeaderID   uint8
	HeaderSize uint8
	FeeID      FeeID
	PriorityBit uint8
	SystemID    uint8
	Reserved0   uint16
}

func (r *RDH0) unmarshal(b []byte) {
	r.HeaderID = b[0]
	r.HeaderSize = b[1]
	r.FeeID = FeeID(binary.BigEndian.Uint16(b[2:4]))
	r.PriorityBit = b[4]
	r.SystemID = b[5]
	r.Reserved0 = binary.BigEndian.Uint16(b[6:8])
}

// RDH1 carries the bunch-crossing counter and orbit.
type RDH1 struct {
	bcReserved uint32 // [11:0] bc, [31:12] reserved
	Orbit      uint32
}

// BC returns the 12-bit bunch-crossing counter.
func (r RDH1) BC() uint16 { return uint16(r.bcReserved & 0xFFF) }

// Reserved returns the 20 reserved bits of word1, which must be 0.
func (r RDH1) Reserved() uint32 { return r.bcReserved >> 12 }

func (r *RDH1) unmarshal(b []byte) {
	r.bcReserved = binary.BigEndian.Uint32(b[0:4])
	r.Orbit = binary.BigEndian.Uint32(b[4:8])
}

// RDH2 carries the trigger type, page counter and stop bit.
type RDH2 struct {
	TriggerType uint32
	PageCounter uint16
	StopBit     uint8
	Reserved0   uint8
}

func (r *RDH2) unmarshal(b []byte) {
	r.TriggerType = binary.BigEndian.Uint32(b[0:4])
	r.PageCounter = binary.BigEndian.Uint16(b[4:6])
	r.StopBit = b[6]
	r.Reserved0 = b[7]
}

// triggerTypeSpareMask masks the spare bits [26:15] of TriggerType, which
// must be 0 when sanity checks run.
const triggerTypeSpareMask uint32 = 0b0000_0111_1111_1111_1000_0000_0000_0000

// SpareBits returns the spare bits of TriggerType.
func (r RDH2) SpareBits() uint32 { return r.TriggerType & triggerTypeSpareMask }

// RDH3 carries the detector field.
type RDH3 struct {
	DetectorField uint32
	ParBit        uint16
	Reserved0     uint16
}

func (r *RDH3) unmarshal(b []byte) {
	r.DetectorField = binary.BigEndian.Uint32(b[0:4])
	r.ParBit = binary.BigEndian.Uint16(b[4:6])
	r.Reserved0 = binary.BigEndian.Uint16(b[6:8])
}

// detectorFieldReservedMask masks bits [23:4] of DetectorField, which
// must be 0 when sanity checks run (see DESIGN.md Open Question 1).
const detectorFieldReservedMask uint32 = 0x00FF_FFF0

// Reserved returns the reserved bits of DetectorField.
func (r RDH3) Reserved() uint32 { return r.DetectorField & detectorFieldReservedMask }

// RDH is the version-polymorphic Raw Data Header abstraction: it collapses
// the "generic over RDH version" idiom to an interface backed by two
// concrete, wire-identical variants, V6 and V7. Only RDH0.HeaderID (6 or
// 7) differs between the two on the wire.
type RDH interface {
	Version() uint8
	HeaderSize() uint8
	RDH0() RDH0
	RDH1() RDH1
	RDH2() RDH2
	RDH3() RDH3
	Bytes() []byte

	LinkID() uint8
	PacketCounter() uint8
	OffsetToNext() uint16
	MemorySize() uint16
	CRUID() uint16
	DW() uint8
	DataFormat() uint8
}

// common holds the 64-byte layout shared by every RDH version.
type common struct {
	raw [Size]byte

	rdh0          RDH0
	offsetToNext  uint16
	memorySize    uint16
	linkID        uint8
	packetCounter uint8
	cruIDDW       uint16 // [11:0] cru_id, [15:12] dw
	rdh1          RDH1
	dataFormatRes uint64 // [7:0] data_format, [63:8] reserved0
	rdh2          RDH2
	reserved1     uint64
	rdh3          RDH3
	reserved2     uint64
}

func (c *common) unmarshal(b []byte) {
	copy(c.raw[:], b)
	c.rdh0.unmarshal(b[0:8])
	c.offsetToNext = binary.BigEndian.Uint16(b[8:10])
	c.memorySize = binary.BigEndian.Uint16(b[10:12])
	c.linkID = b[12]
	c.packetCounter = b[13]
	c.cruIDDW = binary.BigEndian.Uint16(b[14:16])
	c.rdh1.unmarshal(b[16:24])
	c.dataFormatRes = binary.BigEndian.Uint64(b[24:32])
	c.rdh2.unmarshal(b[32:40])
	c.reserved1 = binary.BigEndian.Uint64(b[40:48])
	c.rdh3.unmarshal(b[48:56])
	c.reserved2 = binary.BigEndian.Uint64(b[56:64])
}

func (c *common) HeaderSize() uint8  { return c.rdh0.HeaderSize }
func (c *common) RDH0() RDH0         { return c.rdh0 }
func (c *common) RDH1() RDH1         { return c.rdh1 }
func (c *common) RDH2() RDH2         { return c.rdh2 }
func (c *common) RDH3() RDH3         { return c.rdh3 }
func (c *common) Bytes() []byte      { return c.raw[:] }
func (c *common) LinkID() uint8      { return c.linkID }
func (c *common) PacketCounter() uint8 { return c.packetCounter }
func (c *common) OffsetToNext() uint16 { return c.offsetToNext }
func (c *common) MemorySize() uint16   { return c.memorySize }
func (c *common) CRUID() uint16        { return c.cruIDDW & 0x0FFF }
func (c *common) DW() uint8            { return uint8((c.cruIDDW & 0xF000) >> 12) }
func (c *common) DataFormat() uint8    { return uint8(c.dataFormatRes & 0xFF) }
func (c *common) DataFormatReserved() uint64 { return c.dataFormatRes >> 8 }

// V6 is an RDHv6, wire-identical to V7 save for RDH0.HeaderID.
type V6 struct{ common }

// Version returns 6.
func (v *V6) Version() uint8 { return v.rdh0.HeaderID }

// V7 is an RDHv7, wire-identical to V6 save for RDH0.HeaderID.
type V7 struct{ common }

// Version returns 7.
func (v *V7) Version() uint8 { return v.rdh0.HeaderID }

// Decode parses a 64-byte buffer into the matching RDH version. b must be
// exactly Size bytes. The version is taken from the first byte
// (RDH0.HeaderID); any value other than 6 or 7 is an error.
func Decode(b []byte) (RDH, error) {
	if len(b) != Size {
		return nil, xerrors.Errorf("rdh: invalid buffer size: got=%d, want=%d", len(b), Size)
	}
	switch b[0] {
	case 6:
		rdh := &V6{}
		rdh.unmarshal(b)
		return rdh, nil
	case 7:
		rdh := &V7{}
		rdh.unmarshal(b)
		return rdh, nil
	default:
		return nil, xerrors.Errorf("rdh: unsupported header_id: got=0x%x, want=6 or 7", b[0])
	}
}
