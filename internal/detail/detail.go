// Package detail reads the dict.words / dict.wordsidx companion table:
// human-readable per-word information (reading, part of speech, ...)
// keyed by word id, kept out of the hot segmentation path entirely.
package detail

import (
	"encoding/binary"
	"fmt"
)

// idxEntryLen is the byte width of one dict.wordsidx record: a u32 LE
// offset into dict.words.
const idxEntryLen = 4

// Table is a read-only view over a loaded dict.words/dict.wordsidx
// pair.
type Table struct {
	words []byte
	idx   []byte
}

// New wraps the raw bytes of dict.words and dict.wordsidx. It does not
// copy either slice.
func New(words, idx []byte) (*Table, error) {
	if len(idx)%idxEntryLen != 0 {
		return nil, fmt.Errorf("detail: wordsidx length %d is not a multiple of %d", len(idx), idxEntryLen)
	}
	return &Table{words: words, idx: idx}, nil
}

// Len reports how many word ids the index covers.
func (t *Table) Len() int { return len(t.idx) / idxEntryLen }

// WordDetail is the parsed record at a word id.
type WordDetail struct {
	Reading        string
	PartOfSpeech   string
	BaseForm       string
	ConjugatedForm string
}

// Lookup returns the detail record for id, or ok=false if id is out of
// range or its record fails to parse.
func (t *Table) Lookup(id uint32) (WordDetail, bool) {
	n := uint32(t.Len())
	if id >= n {
		return WordDetail{}, false
	}
	off := binary.LittleEndian.Uint32(t.idx[id*idxEntryLen:])
	if int(off) >= len(t.words) {
		return WordDetail{}, false
	}
	rec, ok := readRecord(t.words[off:])
	if !ok {
		return WordDetail{}, false
	}
	return rec, true
}

// readRecord parses a length-prefixed detail record: a u32 LE byte
// length followed by four length-prefixed (u16 LE) UTF-8 fields in
// order: reading, part of speech, base form, conjugated form.
func readRecord(b []byte) (WordDetail, bool) {
	if len(b) < 4 {
		return WordDetail{}, false
	}
	total := binary.LittleEndian.Uint32(b[0:4])
	if uint32(len(b)-4) < total {
		return WordDetail{}, false
	}
	body := b[4 : 4+total]

	fields := make([]string, 4)
	for i := range fields {
		if len(body) < 2 {
			return WordDetail{}, false
		}
		flen := int(binary.LittleEndian.Uint16(body[0:2]))
		body = body[2:]
		if len(body) < flen {
			return WordDetail{}, false
		}
		fields[i] = string(body[:flen])
		body = body[flen:]
	}

	return WordDetail{
		Reading:        fields[0],
		PartOfSpeech:   fields[1],
		BaseForm:       fields[2],
		ConjugatedForm: fields[3],
	}, true
}
