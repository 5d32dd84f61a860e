package lattice

import (
	"encoding/binary"
	"testing"

	"github.com/kotobakit/kotoba/internal/chardef"
	"github.com/kotobakit/kotoba/internal/connection"
	"github.com/kotobakit/kotoba/internal/prefixdict"
	"github.com/kotobakit/kotoba/internal/unkdict"
	"github.com/kotobakit/kotoba/internal/wordentry"
)

// buildMatrix packs a uniform connection matrix where every transition,
// between any two contexts, costs uniformCost.
func buildMatrix(t *testing.T, size int, uniformCost int16) *connection.Matrix {
	t.Helper()
	cells := make([]int16, size*size)
	for i := range cells {
		cells[i] = uniformCost
	}
	buf := make([]byte, 4+len(cells)*2)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(size))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(size))
	for i, c := range cells {
		off := 4 + i*2
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(c))
	}
	m, err := connection.Load(buf)
	if err != nil {
		t.Fatalf("connection.Load: %v", err)
	}
	return m
}

// fixture bundles a small hand-built dictionary exercising known words,
// an unknown-word fallback category, and a uniform connection matrix.
type fixture struct {
	pd     *prefixdict.PrefixDict
	chars  *chardef.CharacterDefinitions
	unk    *unkdict.UnknownDictionary
	matrix *connection.Matrix
}

func buildFixture(t *testing.T) fixture {
	t.Helper()

	cb := chardef.NewBuilder()
	cb.SetRule(chardef.NameDefault, chardef.CategoryData{Invoke: true, Length: 10})
	cb.SetRule(chardef.NameKatakana, chardef.CategoryData{Invoke: true, Group: true})
	cb.AddRange(0x30A0, 0x30FF, chardef.NameKatakana)
	chars, err := cb.Build()
	if err != nil {
		t.Fatalf("chardef Build: %v", err)
	}

	ub := unkdict.NewBuilder(chars)
	if err := ub.Add(chardef.NameDefault, wordentry.WordEntry{WordCost: 1000, CostID: 0}); err != nil {
		t.Fatalf("Add DEFAULT: %v", err)
	}
	if err := ub.Add(chardef.NameKatakana, wordentry.WordEntry{WordCost: 500, CostID: 0}); err != nil {
		t.Fatalf("Add KATAKANA: %v", err)
	}
	unk := ub.Build()

	pb := prefixdict.NewBuilder()
	// すもも = plum, もも = peach, もものうち = "among peaches" (compound).
	if err := pb.Insert("すもも", []wordentry.WordEntry{{WordCost: 100, CostID: 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := pb.Insert("もも", []wordentry.WordEntry{{WordCost: 100, CostID: 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := pb.Insert("もものうち", []wordentry.WordEntry{{WordCost: 50, CostID: 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	pd, _, err := pb.Finish()
	if err != nil {
		t.Fatalf("prefixdict Finish: %v", err)
	}

	return fixture{pd: pd, chars: chars, unk: unk, matrix: buildMatrix(t, 2, 0)}
}

func tokensFromOffsets(text string, offsets []int) []string {
	out := make([]string, len(offsets))
	for i, start := range offsets {
		stop := len(text)
		if i+1 < len(offsets) {
			stop = offsets[i+1]
		}
		out[i] = text[start:stop]
	}
	return out
}

func TestSetTextAndViterbiPrefersLongerKnownCompound(t *testing.T) {
	fx := buildFixture(t)
	text := "すもももももものうち"

	l := New()
	l.SetText(text, fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	offsets := l.TokensOffset()

	tokens := tokensFromOffsets(text, offsets)
	joined := ""
	for _, tok := range tokens {
		joined += tok
	}
	if joined != text {
		t.Fatalf("tokens must reconstruct input: got %q from %v", joined, tokens)
	}
	// もものうち (word_cost 50) must win over もも+の+うち since it is
	// cheaper and the matrix charges no connection cost here.
	found := false
	for _, tok := range tokens {
		if tok == "もものうち" {
			found = true
		}
	}
	if !found {
		t.Errorf("want もものうち as one token, got %v", tokens)
	}
}

func TestEmptyInputYieldsNoTokens(t *testing.T) {
	fx := buildFixture(t)
	l := New()
	l.SetText("", fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	offsets := l.TokensOffset()
	if len(offsets) != 0 {
		t.Errorf("want no offsets for empty input, got %v", offsets)
	}
}

func TestUnknownWordFallbackForUncoveredText(t *testing.T) {
	fx := buildFixture(t)
	text := "ZZZ"
	l := New()
	l.SetText(text, fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	offsets := l.TokensOffset()
	tokens := tokensFromOffsets(text, offsets)

	joined := ""
	for _, tok := range tokens {
		joined += tok
	}
	if joined != text {
		t.Fatalf("tokens must reconstruct input: got %q from %v", joined, tokens)
	}
}

func TestKatakanaGroupRunProducesOneUnknownSpan(t *testing.T) {
	fx := buildFixture(t)
	text := "ステーション" // a katakana run with no dictionary coverage
	l := New()
	l.SetText(text, fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	offsets := l.TokensOffset()
	tokens := tokensFromOffsets(text, offsets)

	if len(tokens) != 1 || tokens[0] != text {
		t.Errorf("want the whole katakana run grouped as one token, got %v", tokens)
	}
}

func TestClearReusesLatticeAcrossCalls(t *testing.T) {
	fx := buildFixture(t)
	l := New()

	l.SetText("すもも", fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	first := l.TokensOffset()

	l.SetText("もも", fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	second := l.TokensOffset()

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("want one token each call, got %v then %v", first, second)
	}
}

func TestSearchModePenalizesLongRun(t *testing.T) {
	fx := buildFixture(t)
	text := "ZZZZZZZZZZ" // 10 unknown DEFAULT-category characters
	l := New()

	l.SetText(text, fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, NormalMode())
	normalOffsets := l.TokensOffset()

	l.SetText(text, fx.pd, fx.chars, fx.unk)
	l.CalculatePathCosts(fx.matrix, SearchMode(DefaultPenalty()))
	searchOffsets := l.TokensOffset()

	// Search mode's length penalty only ever biases toward more, smaller
	// tokens (never fewer), so it must not produce fewer tokens than
	// normal mode for the same input.
	if len(searchOffsets) < len(normalOffsets) {
		t.Errorf("search mode produced fewer tokens (%d) than normal mode (%d)", len(searchOffsets), len(normalOffsets))
	}
}

// TestOverlappingCategoriesBothContributeEdges covers a scalar
// classified under two categories whose rules happen to produce a span
// of the same length (mirroring the 々 -> {KANJI, HIRAGANA} overlap
// internal/chardef's fixture exercises): both categories must still add
// their own unknown-word edges, even though their spans coincide in end
// offset.
func TestOverlappingCategoriesBothContributeEdges(t *testing.T) {
	cb := chardef.NewBuilder()
	cb.SetRule(chardef.NameDefault, chardef.CategoryData{Invoke: true, Length: 1})
	cb.SetRule(chardef.NameKanji, chardef.CategoryData{Invoke: true, Length: 1})
	cb.SetRule(chardef.NameHiragana, chardef.CategoryData{Invoke: true, Length: 1})
	cb.AddRange(0x3005, 0x3005, chardef.NameKanji, chardef.NameHiragana)
	chars, err := cb.Build()
	if err != nil {
		t.Fatalf("chardef Build: %v", err)
	}

	ub := unkdict.NewBuilder(chars)
	if err := ub.Add(chardef.NameKanji, wordentry.WordEntry{WordCost: 100, CostID: 0}); err != nil {
		t.Fatalf("Add KANJI: %v", err)
	}
	if err := ub.Add(chardef.NameHiragana, wordentry.WordEntry{WordCost: 200, CostID: 0}); err != nil {
		t.Fatalf("Add HIRAGANA: %v", err)
	}
	unk := ub.Build()

	pb := prefixdict.NewBuilder()
	pd, _, err := pb.Finish()
	if err != nil {
		t.Fatalf("prefixdict Finish: %v", err)
	}

	l := New()
	l.SetText("々", pd, chars, unk)

	var costs []int16
	for i := 0; i < l.NumNodes(); i++ {
		n := l.Node(NodeID(i))
		if n.Kind == KindUnknown {
			costs = append(costs, n.Entry.WordCost)
		}
	}
	if len(costs) != 2 {
		t.Fatalf("want 2 unknown edges (one per overlapping category), got %d: %v", len(costs), costs)
	}
	foundKanji, foundHiragana := false, false
	for _, c := range costs {
		if c == 100 {
			foundKanji = true
		}
		if c == 200 {
			foundHiragana = true
		}
	}
	if !foundKanji || !foundHiragana {
		t.Errorf("want both KANJI (cost 100) and HIRAGANA (cost 200) edges, got %v", costs)
	}
}
