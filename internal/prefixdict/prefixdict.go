// Package prefixdict implements PrefixDict: an FST-backed enumerator of
// every dictionary key that is a prefix of a query string.
package prefixdict

import (
	"fmt"

	"github.com/kotobakit/kotoba/internal/fst"
	"github.com/kotobakit/kotoba/internal/wordentry"
)

// lenMask extracts the 5-bit run-length field from a packed FST output
// value; lenShift is how far offset is shifted left of it.
const (
	lenBits  = 5
	lenMask  = 1<<lenBits - 1
	lenShift = lenBits
	// MaxRunLength is the largest number of homographs one surface form
	// may carry: the 5-bit len field tops out at 31.
	MaxRunLength = lenMask
)

// PrefixDict is a read-only, shareable map from UTF-8 surface forms to
// groups of WordEntry, physically an Automaton over dict.fst plus a flat
// dict.vals blob of packed WordEntry records.
type PrefixDict struct {
	automaton *fst.Automaton
	vals      []byte
}

// New wraps an already-compiled automaton and values blob (e.g. loaded
// from dict.fst/dict.vals by internal/dictbytes, or produced directly by
// Builder in tests).
func New(automaton *fst.Automaton, vals []byte) *PrefixDict {
	return &PrefixDict{automaton: automaton, vals: vals}
}

// Load decodes a dict.fst byte image and pairs it with the raw
// dict.vals bytes.
func Load(fstBytes, vals []byte) (*PrefixDict, error) {
	automaton, err := fst.Decode(fstBytes)
	if err != nil {
		return nil, fmt.Errorf("prefixdict: %w", err)
	}
	if err := validateOutputs(automaton); err != nil {
		return nil, fmt.Errorf("prefixdict: %w", err)
	}
	return New(automaton, vals), nil
}

// validateOutputs rejects an automaton carrying any final state whose
// output's len field is 0: such a state accepts a key but decodes to
// zero WordEntry records, which Prefix would otherwise swallow
// silently instead of surfacing as a corrupt artifact.
func validateOutputs(automaton *fst.Automaton) error {
	for id := 0; id < automaton.NumStates(); id++ {
		output, final := automaton.IsFinal(int32(id))
		if final && output&lenMask == 0 {
			return fmt.Errorf("final state %d has a zero-length output run", id)
		}
	}
	return nil
}

// EncodeFST returns the dict.fst byte image for d's automaton, for
// callers (an offline compiler, or tests standing one up) that persist
// the dictionary to disk.
func (d *PrefixDict) EncodeFST() []byte {
	return fst.Encode(d.automaton)
}

// Vals returns the dict.vals byte blob backing d.
func (d *PrefixDict) Vals() []byte {
	return d.vals
}

// Match is one hit returned by Prefix: a prefix length in bytes and the
// WordEntry found at that prefix.
type Match struct {
	PrefixLen int
	Entry     wordentry.WordEntry
}

// Prefix walks the automaton one input byte at a time starting at the
// root: at every step where the current state is final, the accumulated
// output decodes to an (offset, len) pair and
// len entries are emitted at the current prefix length. The walk stops
// at the first byte with no outgoing transition. Matches are yielded in
// increasing prefix-length order; within one prefix, entries are
// yielded in on-disk order.
func (d *PrefixDict) Prefix(s string, out []Match) []Match {
	out = out[:0]
	state := d.automaton.Root()
	for i := 0; i < len(s); i++ {
		next, ok := d.automaton.Step(state, s[i])
		if !ok {
			break
		}
		state = next
		if output, final := d.automaton.IsFinal(state); final {
			out = d.appendRun(out, i+1, output)
		}
	}
	return out
}

func (d *PrefixDict) appendRun(out []Match, prefixLen int, output uint64) []Match {
	n := int(output & lenMask)
	offset := int(output >> lenShift)
	for i := 0; i < n; i++ {
		start := (offset + i) * wordentry.SerializedLen
		end := start + wordentry.SerializedLen
		if end > len(d.vals) {
			break
		}
		entry, err := wordentry.Deserialize(d.vals[start:end])
		if err != nil {
			break
		}
		entry.WordID = uint32(offset + i)
		out = append(out, Match{PrefixLen: prefixLen, Entry: entry})
	}
	return out
}

// Builder assembles a PrefixDict from sorted (surface, []WordEntry)
// groups, packing each group's entries contiguously into a values blob
// and the automaton's output value to (offset<<5 | len).
type Builder struct {
	fstBuilder *fst.Builder
	vals       []byte
	offset     int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{fstBuilder: fst.NewBuilder()}
}

// Insert records surface -> entries. Surfaces must be inserted in
// strictly ascending byte order (the same contract fst.Builder.Insert
// imposes); entries must be non-empty and number at most MaxRunLength,
// since a run's length has to fit in the automaton output's 5-bit
// length field.
func (b *Builder) Insert(surface string, entries []wordentry.WordEntry) error {
	n := len(entries)
	if n == 0 {
		return fmt.Errorf("prefixdict: %q has no entries", surface)
	}
	if n > MaxRunLength {
		return fmt.Errorf("prefixdict: %q has %d homographs, max is %d", surface, n, MaxRunLength)
	}
	offset := b.offset
	for _, e := range entries {
		var buf [wordentry.SerializedLen]byte
		w := &byteBuf{buf: buf[:0:len(buf)]}
		if err := e.Serialize(w); err != nil {
			return fmt.Errorf("prefixdict: serialize %q: %w", surface, err)
		}
		b.vals = append(b.vals, w.buf...)
	}
	b.offset += n
	output := uint64(offset)<<lenShift | uint64(n)
	b.fstBuilder.Insert([]byte(surface), output)
	return nil
}

// Finish compiles the automaton and returns the PrefixDict together with
// the packed values blob (callers that persist dict.fst/dict.vals to
// disk want the blob directly; callers building an in-memory dictionary
// for tests just want the PrefixDict).
func (b *Builder) Finish() (*PrefixDict, []byte, error) {
	automaton, err := b.fstBuilder.Finish()
	if err != nil {
		return nil, nil, fmt.Errorf("prefixdict: %w", err)
	}
	return New(automaton, b.vals), b.vals, nil
}

// byteBuf is a minimal io.Writer over a fixed-capacity slice, avoiding a
// bytes.Buffer allocation for the 4-byte WordEntry.Serialize call above.
type byteBuf struct{ buf []byte }

func (w *byteBuf) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
