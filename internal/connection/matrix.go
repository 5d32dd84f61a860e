// Package connection implements the dense connection-cost table used by
// Viterbi to price the transition between two word-context classes.
package connection

import (
	"encoding/binary"
	"fmt"
	"math"
)

// headerLen is the two u16 LE size fields preceding the cost cells.
const headerLen = 4

// Infinity is the sentinel stored for a missing connection cost.
const Infinity = int16(math.MaxInt16)

// Matrix is a dense (right_id, left_id) -> cost table, loaded from the
// matrix.mtx layout: forward_size u16 LE, backward_size u16 LE, then
// forward_size*backward_size i16 LE cost cells.
type Matrix struct {
	costs        []int16
	forwardSize  int
	backwardSize int
}

// Load parses a matrix.mtx byte image.
func Load(data []byte) (*Matrix, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("connection: matrix header truncated: got %d bytes", len(data))
	}
	forwardSize := int(binary.LittleEndian.Uint16(data[0:2]))
	backwardSize := int(binary.LittleEndian.Uint16(data[2:4]))
	wantCells := forwardSize * backwardSize
	wantBytes := headerLen + wantCells*2
	if len(data) != wantBytes {
		return nil, fmt.Errorf("connection: matrix body size mismatch: want %d bytes for %dx%d cells, got %d",
			wantBytes, forwardSize, backwardSize, len(data))
	}
	costs := make([]int16, wantCells)
	for i := range costs {
		off := headerLen + i*2
		costs[i] = int16(binary.LittleEndian.Uint16(data[off : off+2]))
	}
	return &Matrix{costs: costs, forwardSize: forwardSize, backwardSize: backwardSize}, nil
}

// ForwardSize and BackwardSize report the matrix dimensions as read from
// the header.
func (m *Matrix) ForwardSize() int  { return m.forwardSize }
func (m *Matrix) BackwardSize() int { return m.backwardSize }

// Cost returns the connection cost for a left-context word adjoining a
// right-context word, indexed as data[2 + left + right*backward_size]
// (the 2 accounts for the two header fields counted in units of i16
// cells, the same headerLen offset applied above during Load).
// Out-of-range ids are a programming error; behavior is unspecified
// (here: it panics via slice indexing).
func (m *Matrix) Cost(rightID, leftID uint16) int16 {
	idx := int(leftID) + int(rightID)*m.backwardSize
	return m.costs[idx]
}
