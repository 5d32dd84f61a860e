// Package chardef maps Unicode scalars to the character categories that
// drive unknown-word generation, and carries the per-category rules
// (invoke / group / length) that the lattice builder consults.
package chardef

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// CategoryID names a character category. Ids are assigned densely from 0
// in the order category names are first registered, so 0 is a valid id.
type CategoryID int

// Well-known category names every compiled char_def.bin is expected to
// define; CharacterDefinitions.ID resolves these (and any compiler-
// supplied extras) by name.
const (
	NameDefault      = "DEFAULT"
	NameHiragana     = "HIRAGANA"
	NameKatakana     = "KATAKANA"
	NameKanji        = "KANJI"
	NameKanjiNumeric = "KANJINUMERIC"
	NameSymbol       = "SYMBOL"
	NameAlpha        = "ALPHA"
	NameNumeric      = "NUMERIC"
)

// CategoryData carries the unknown-word generation rules for one
// category.
type CategoryData struct {
	// Invoke forces unknown-word generation at positions of this
	// category, in addition to any known-word matches (union semantics).
	Invoke bool
	// Group consumes a maximal run of same-category characters as one
	// unknown-word span.
	Group bool
	// Length is the count of additional fixed lengths (1..=Length,
	// measured in scalars) to emit as unknown-word spans.
	Length uint
}

type interval struct {
	Lo, Hi     rune
	Categories []CategoryID
}

// CharacterDefinitions is the immutable, shareable table of interval ->
// category mappings plus per-category rules, loaded once at tokenizer
// construction.
type CharacterDefinitions struct {
	Intervals      []interval
	Categories     []CategoryData
	Names          []string
	DefaultCat     CategoryID
	nameToCategory map[string]CategoryID
}

// gobPayload is the structure persisted inside char_def.bin, after the
// integrity header described in internal/dictbytes.
type gobPayload struct {
	Intervals  []interval
	Categories []CategoryData
	Names      []string
	DefaultCat CategoryID
}

// Encode serializes d for embedding into char_def.bin, as the payload
// that internal/dictbytes wraps with a magic/version/checksum header.
func Encode(d *CharacterDefinitions) ([]byte, error) {
	var buf bytes.Buffer
	p := gobPayload{
		Intervals:  d.Intervals,
		Categories: d.Categories,
		Names:      d.Names,
		DefaultCat: d.DefaultCat,
	}
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("chardef: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Checksum returns the xxhash64 of the gob payload: the same hash
// internal/dictbytes stores in, and verifies against, char_def.bin's
// header to catch truncation or corruption.
func Checksum(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// Decode parses a char_def.bin gob payload (post integrity check).
func Decode(payload []byte) (*CharacterDefinitions, error) {
	var p gobPayload
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&p); err != nil {
		return nil, fmt.Errorf("chardef: decode: %w", err)
	}
	d := &CharacterDefinitions{
		Intervals:  p.Intervals,
		Categories: p.Categories,
		Names:      p.Names,
		DefaultCat: p.DefaultCat,
	}
	d.nameToCategory = make(map[string]CategoryID, len(d.Names))
	for i, name := range d.Names {
		d.nameToCategory[name] = CategoryID(i)
	}
	return d, nil
}

// ID resolves a category name to its id, for tests and for the offline
// compiler's builder (below).
func (d *CharacterDefinitions) ID(name string) (CategoryID, bool) {
	id, ok := d.nameToCategory[name]
	return id, ok
}

// CategoryName returns the display name for id.
func (d *CharacterDefinitions) CategoryName(id CategoryID) string {
	return d.Names[id]
}

// Lookup returns the category data for id.
func (d *CharacterDefinitions) Lookup(id CategoryID) CategoryData {
	return d.Categories[id]
}

// LookupCategories scans the interval table in order, appends each
// matching category id not already present (first-seen order is
// load-bearing: downstream unknown-word generation depends on
// reproducible ordering), and falls back to DefaultCat if nothing
// matched. The returned slice reuses out's backing array across calls.
func (d *CharacterDefinitions) LookupCategories(c rune, out []CategoryID) []CategoryID {
	out = out[:0]
	for _, iv := range d.Intervals {
		if c < iv.Lo || c > iv.Hi {
			continue
		}
		for _, cat := range iv.Categories {
			if !containsCategory(out, cat) {
				out = append(out, cat)
			}
		}
	}
	if len(out) == 0 {
		out = append(out, d.DefaultCat)
	}
	return out
}

func containsCategory(s []CategoryID, v CategoryID) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Builder assembles a CharacterDefinitions from source rules, the shape
// an offline dictionary compiler would drive. It lives in this package
// because char_def.bin has no fixed layout beyond a self-describing
// encode/decode contract, and because tests build small dictionaries
// with it directly rather than shipping binary fixtures.
type Builder struct {
	nameToCategory map[string]CategoryID
	categories     []CategoryData
	intervals      []interval
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nameToCategory: map[string]CategoryID{}}
}

// CategoryID interns category by name, assigning the next id on first
// use, mirroring CharacterDefinitionsBuilder::category_id in
// original_source/src/character_definition.rs.
func (b *Builder) CategoryID(name string) CategoryID {
	if id, ok := b.nameToCategory[name]; ok {
		return id
	}
	id := CategoryID(len(b.nameToCategory))
	b.nameToCategory[name] = id
	b.categories = append(b.categories, CategoryData{})
	return id
}

// SetRule records the invoke/group/length rule for a category.
func (b *Builder) SetRule(name string, data CategoryData) {
	id := b.CategoryID(name)
	b.categories[id] = data
}

// AddRange records an inclusive codepoint interval mapped to the given
// category names.
func (b *Builder) AddRange(lo, hi rune, categoryNames ...string) {
	ids := make([]CategoryID, len(categoryNames))
	for i, name := range categoryNames {
		ids[i] = b.CategoryID(name)
	}
	b.intervals = append(b.intervals, interval{Lo: lo, Hi: hi, Categories: ids})
}

// Build finalizes the table. It errors if no DEFAULT category was
// registered, matching the "no default category defined" panic in
// original_source's Rust builder, turned into a returned error.
func (b *Builder) Build() (*CharacterDefinitions, error) {
	defID, ok := b.nameToCategory[NameDefault]
	if !ok {
		return nil, fmt.Errorf("chardef: no %s category defined", NameDefault)
	}
	names := make([]string, len(b.nameToCategory))
	for name, id := range b.nameToCategory {
		names[id] = name
	}
	d := &CharacterDefinitions{
		Intervals:      append([]interval(nil), b.intervals...),
		Categories:     append([]CategoryData(nil), b.categories...),
		Names:          names,
		DefaultCat:     defID,
		nameToCategory: make(map[string]CategoryID, len(names)),
	}
	for i, name := range names {
		d.nameToCategory[name] = CategoryID(i)
	}
	return d, nil
}
