// Package unkdict holds the per-category fallback word entries
// instantiated when the prefix dictionary doesn't (or doesn't fully)
// cover the input at a position.
package unkdict

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/kotobakit/kotoba/internal/chardef"
	"github.com/kotobakit/kotoba/internal/wordentry"
)

// UnknownDictionary maps a CategoryID to the WordEntry templates that
// should be instantiated (with the surface span's byte offsets filled
// in) when an unknown word of that category is generated. Every entry's
// WordID is wordentry.MaxWordID, flagging it as synthetic.
type UnknownDictionary struct {
	categoryReferences [][]wordentry.WordEntry
}

type gobPayload struct {
	CategoryReferences [][]wordentry.WordEntry
}

// Encode serializes d for embedding into unk.bin.
func Encode(d *UnknownDictionary) ([]byte, error) {
	var buf bytes.Buffer
	p := gobPayload{CategoryReferences: d.categoryReferences}
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("unkdict: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Checksum returns the xxhash64 of the gob payload.
func Checksum(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// Decode parses an unk.bin gob payload.
func Decode(payload []byte) (*UnknownDictionary, error) {
	var p gobPayload
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&p); err != nil {
		return nil, fmt.Errorf("unkdict: decode: %w", err)
	}
	return &UnknownDictionary{categoryReferences: p.CategoryReferences}, nil
}

// WordEntriesFor returns the candidate entries to instantiate for an
// unknown word of the given category. The returned slice is shared and
// must not be mutated by the caller.
func (d *UnknownDictionary) WordEntriesFor(cat chardef.CategoryID) []wordentry.WordEntry {
	if int(cat) >= len(d.categoryReferences) {
		return nil
	}
	return d.categoryReferences[cat]
}

// Builder assembles an UnknownDictionary by category name, the shape the
// offline compiler would populate it in from unk.def (see
// original_source/src/unknown_dictionary.rs's make_category_references).
type Builder struct {
	chars   *chardef.CharacterDefinitions
	entries map[chardef.CategoryID][]wordentry.WordEntry
}

// NewBuilder returns an empty Builder bound to a resolved
// CharacterDefinitions (unk.bin and char_def.bin are compiled together:
// category ids must agree between them).
func NewBuilder(chars *chardef.CharacterDefinitions) *Builder {
	return &Builder{chars: chars, entries: map[chardef.CategoryID][]wordentry.WordEntry{}}
}

// Add registers a fallback WordEntry for the named category. WordID is
// forced to wordentry.MaxWordID regardless of what the caller passes, so
// that downstream detail lookups never treat an unknown-word entry as
// pointing into dict.words.
func (b *Builder) Add(categoryName string, entry wordentry.WordEntry) error {
	id, ok := b.chars.ID(categoryName)
	if !ok {
		return fmt.Errorf("unkdict: unknown category %q", categoryName)
	}
	entry.WordID = wordentry.MaxWordID
	b.entries[id] = append(b.entries[id], entry)
	return nil
}

// Build finalizes the dictionary.
func (b *Builder) Build() *UnknownDictionary {
	refs := make([][]wordentry.WordEntry, len(b.chars.Names))
	for id, entries := range b.entries {
		refs[id] = append([]wordentry.WordEntry(nil), entries...)
	}
	return &UnknownDictionary{categoryReferences: refs}
}
