// Package wordentry implements the fixed-width dictionary record that
// backs every edge in the lattice: a word's emission cost together with
// the context id used to look up connection costs.
package wordentry

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SerializedLen is the on-disk size of a WordEntry: a little-endian i16
// word cost followed by a little-endian u16 cost id. word_id is not part
// of the serialized form; it is recovered by the caller's own indexing
// (position in dict.vals, or a synthetic MaxWordID for unknown words).
const SerializedLen = 4

// MaxWordID marks a synthetic WordEntry minted for unknown-word
// generation rather than read from dict.words/dict.wordsidx.
const MaxWordID uint32 = 1<<32 - 1

// WordEntry is a value object carrying a word's emission cost and the
// cost_id used as both its left and right connection-cost context.
//
// The source lexicon's left and right ids are always equal by
// construction; WordID is carried separately since it is not part of
// the 4-byte serialized form.
type WordEntry struct {
	WordCost int16
	CostID   uint16
	WordID   uint32
}

// LeftID and RightID are both CostID: the compiler enforces that a
// lexicon entry's left and right context ids coincide.
func (e WordEntry) LeftID() uint16  { return e.CostID }
func (e WordEntry) RightID() uint16 { return e.CostID }

// Serialize writes the 4-byte on-disk form of e to w.
func (e WordEntry) Serialize(w io.Writer) error {
	var buf [SerializedLen]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(e.WordCost))
	binary.LittleEndian.PutUint16(buf[2:4], e.CostID)
	_, err := w.Write(buf[:])
	return err
}

// Deserialize reads a WordEntry from the first SerializedLen bytes of b.
// WordID is left zero; the caller assigns it from external indexing.
func Deserialize(b []byte) (WordEntry, error) {
	if len(b) < SerializedLen {
		return WordEntry{}, fmt.Errorf("wordentry: need %d bytes, got %d", SerializedLen, len(b))
	}
	return WordEntry{
		WordCost: int16(binary.LittleEndian.Uint16(b[0:2])),
		CostID:   binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// EncodeU64 packs e as (cost_id << 32) | word_cost, a legacy variant used
// when an FST's output value directly carries a single WordEntry instead
// of an (offset, len) run descriptor into a values blob.
func EncodeU64(e WordEntry) uint64 {
	return uint64(e.CostID)<<32 | uint64(uint32(e.WordCost))
}

// DecodeU64 is the inverse of EncodeU64.
func DecodeU64(v uint64) WordEntry {
	return WordEntry{
		WordCost: int16(int32(uint32(v))),
		CostID:   uint16(v >> 32),
	}
}
