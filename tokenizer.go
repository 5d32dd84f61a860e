// Package kotoba is a morphological analyzer for Japanese text: given a
// string, it segments it into a sequence of dictionary words and
// unknown-word fragments by building a lattice of candidate edges and
// running Viterbi to find the minimum-cost path through it.
package kotoba

import (
	"github.com/kotobakit/kotoba/internal/chardef"
	"github.com/kotobakit/kotoba/internal/connection"
	"github.com/kotobakit/kotoba/internal/detail"
	"github.com/kotobakit/kotoba/internal/dictbytes"
	"github.com/kotobakit/kotoba/internal/lattice"
	"github.com/kotobakit/kotoba/internal/prefixdict"
	"github.com/kotobakit/kotoba/internal/unkdict"
)

// Tokenizer is the façade binding the read-only dictionary components
// to one owned, reusable Lattice. A Tokenizer is not safe for
// concurrent use by multiple goroutines; see TokenizeMany for sharing
// the read-only components across many Tokenizer instances.
type Tokenizer struct {
	pd     *prefixdict.PrefixDict
	matrix *connection.Matrix
	chars  *chardef.CharacterDefinitions
	unk    *unkdict.UnknownDictionary
	detail *detail.Table // nil if dict.words/dict.wordsidx were not present

	mode Mode
	lat  *lattice.Lattice

	mappings []*dictbytes.Mapping
}

// New constructs a Tokenizer from the five (or seven, with word detail)
// binary artifacts in dictDir. If dictDir is empty, the KOTOBA_DICT_DIR
// environment variable is used instead. Construction is the only
// fallible operation in this package: Tokenize and TokenizeOffsets never
// return an error. Input text is not normalized before lookup: its
// characters are matched against dictionary surface forms exactly as
// given.
func New(dictDir string, mode Mode) (*Tokenizer, error) {
	dir, err := dictbytes.ResolveDir(dictDir)
	if err != nil {
		return nil, err
	}

	tk := &Tokenizer{mode: mode, lat: lattice.New()}
	ok := false
	defer func() {
		if !ok {
			tk.Close()
		}
	}()

	fstMap, err := tk.load(dir, dictbytes.FileFST)
	if err != nil {
		return nil, malformed(ArtifactFST, "load", err)
	}
	valsMap, err := tk.load(dir, dictbytes.FileVals)
	if err != nil {
		return nil, malformed(ArtifactVals, "load", err)
	}
	tk.pd, err = prefixdict.Load(fstMap.Bytes(), valsMap.Bytes())
	if err != nil {
		return nil, malformed(ArtifactFST, "decode", err)
	}

	matrixMap, err := tk.load(dir, dictbytes.FileMatrix)
	if err != nil {
		return nil, malformed(ArtifactMatrix, "load", err)
	}
	tk.matrix, err = connection.Load(matrixMap.Bytes())
	if err != nil {
		return nil, malformed(ArtifactMatrix, "decode", err)
	}

	charsPayload, err := tk.loadWrapped(dir, dictbytes.FileCharDef, ArtifactCharDef)
	if err != nil {
		return nil, err
	}
	tk.chars, err = chardef.Decode(charsPayload)
	if err != nil {
		return nil, malformed(ArtifactCharDef, "decode", err)
	}

	unkPayload, err := tk.loadWrapped(dir, dictbytes.FileUnkDef, ArtifactUnkDef)
	if err != nil {
		return nil, err
	}
	tk.unk, err = unkdict.Decode(unkPayload)
	if err != nil {
		return nil, malformed(ArtifactUnkDef, "decode", err)
	}

	wordsMap, werr := tk.load(dir, dictbytes.FileWords)
	idxMap, ierr := tk.load(dir, dictbytes.FileWordsIdx)
	if werr == nil && ierr == nil {
		tk.detail, err = detail.New(wordsMap.Bytes(), idxMap.Bytes())
		if err != nil {
			return nil, malformed(ArtifactWordsIndex, "decode", err)
		}
	}

	ok = true
	return tk, nil
}

func (tk *Tokenizer) load(dir, name string) (*dictbytes.Mapping, error) {
	m, err := dictbytes.LoadFile(dir, name)
	if err != nil {
		return nil, err
	}
	tk.mappings = append(tk.mappings, m)
	return m, nil
}

func (tk *Tokenizer) loadWrapped(dir, name string, artifact Artifact) ([]byte, error) {
	m, err := tk.load(dir, name)
	if err != nil {
		return nil, malformed(artifact, "load", err)
	}
	payload, _, isVersionMismatch, err := dictbytes.UnwrapPayload(m.Bytes())
	if err != nil {
		if isVersionMismatch {
			return nil, versionMismatch(artifact, "header", err)
		}
		return nil, malformed(artifact, "header", err)
	}
	return payload, nil
}

// Close releases every mmap'd artifact. A Tokenizer must not be used
// after Close.
func (tk *Tokenizer) Close() error {
	var first error
	for _, m := range tk.mappings {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	tk.mappings = nil
	return first
}

// The two sentence-splitting delimiters; both are 3 UTF-8 bytes.
const (
	delimKuten = "。"
	delimToten = "、"
	delimLen   = 3
)

// nextSentenceEnd returns the byte offset just past the first occurrence
// of either sentence delimiter in text, or -1 if neither occurs.
func nextSentenceEnd(text string) int {
	best := -1
	for _, d := range [2]string{delimKuten, delimToten} {
		if i := indexString(text, d); i >= 0 {
			end := i + delimLen
			if best == -1 || end < best {
				best = end
			}
		}
	}
	return best
}

// indexString is a tiny substring search, avoiding a "strings" import
// for a single three-byte needle.
func indexString(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// Token is one segment of a Tokenize result: a surface substring plus,
// lazily, its WordDetail.
type Token struct {
	surface string
	id      uint32
	tk      *Tokenizer
}

// Surface returns the token's text.
func (t Token) Surface() string { return t.surface }

// Detail looks up the token's human-readable detail record (reading,
// part of speech, ...), decoding it on first use. It returns ok=false
// for unknown-word tokens (synthetic WordID) or when the dictionary
// directory carried no dict.words/dict.wordsidx pair.
func (t Token) Detail() (detail.WordDetail, bool) {
	if t.tk.detail == nil {
		return detail.WordDetail{}, false
	}
	return t.tk.detail.Lookup(t.id)
}

// Tokenize segments text into tokens. It applies the sentence-splitting
// heuristic: find the first occurrence of 。 or 、, process the
// substring through and including that punctuation, then continue on
// the remainder. This bounds Lattice size per segment regardless of the
// overall input length.
func (tk *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	for len(text) > 0 {
		cut := nextSentenceEnd(text)
		if cut < 0 {
			cut = len(text)
		}
		sentence := text[:cut]
		text = text[cut:]

		tk.lat.SetText(sentence, tk.pd, tk.chars, tk.unk)
		tk.lat.CalculatePathCosts(tk.matrix, tk.mode)
		for _, id := range tk.lat.PathNodes() {
			n := tk.lat.Node(id)
			tokens = append(tokens, Token{surface: sentence[n.Start:n.Stop], id: n.Entry.WordID, tk: tk})
		}
	}
	return tokens
}

// TokenizeOffsets returns only the byte start offsets of each token,
// skipping Token construction entirely for callers that only need
// boundaries.
func (tk *Tokenizer) TokenizeOffsets(text string) []int {
	var offsets []int
	base := 0
	for len(text) > 0 {
		cut := nextSentenceEnd(text)
		if cut < 0 {
			cut = len(text)
		}
		sentence := text[:cut]

		tk.lat.SetText(sentence, tk.pd, tk.chars, tk.unk)
		tk.lat.CalculatePathCosts(tk.matrix, tk.mode)
		for _, o := range tk.lat.TokensOffset() {
			offsets = append(offsets, base+o)
		}
		base += cut
		text = text[cut:]
	}
	return offsets
}
