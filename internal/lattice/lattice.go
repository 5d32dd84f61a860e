// Package lattice builds the word-candidate DAG over an input string and
// runs Viterbi to find its minimum-cost path: the segmentation engine at
// the heart of the tokenizer.
package lattice

import (
	"unicode/utf8"

	"github.com/kotobakit/kotoba/internal/chardef"
	"github.com/kotobakit/kotoba/internal/connection"
	"github.com/kotobakit/kotoba/internal/prefixdict"
	"github.com/kotobakit/kotoba/internal/unkdict"
	"github.com/kotobakit/kotoba/internal/wordentry"
)

// NodeID indexes Lattice.nodes. BOS and EOS are always the first two
// nodes added by SetText.
type NodeID int32

const (
	BOS NodeID = 0
	EOS NodeID = 1
)

// Kind distinguishes how a Node's WordEntry was produced.
type Kind uint8

const (
	KindBOS Kind = iota
	KindEOS
	KindKnown
	KindUnknown
)

// noLeft marks a Node with no predecessor resolved yet.
const noLeft NodeID = -1

// maxCost stands in for "unreached" path cost. Edge costs (word costs,
// connection costs, search-mode penalties) are all small compared to
// this margin, so it never gets confused with a real accumulated cost.
const maxCost = int64(1) << 40

// Node is one lattice vertex: a candidate word occupying a byte span,
// together with the bookkeeping Viterbi needs.
type Node struct {
	Entry     wordentry.WordEntry
	Start     int // byte offset, inclusive
	Stop      int // byte offset, exclusive
	Kind      Kind
	PathCost  int64
	Left      NodeID
	NumChars  int  // scalar count of the span, for the search-mode penalty
	KanjiOnly bool // true iff every scalar in the span is in the CJK Unified Ideographs block (see spanStats)
}

// Lattice is the reusable working memory of Viterbi. It is owned
// exclusively by one Tokenizer, grows monotonically in capacity, and is
// reset between calls with Clear, so SetText reuses its node and edge
// buffers once they have grown to the largest input seen. PathNodes and
// TokensOffset allocate a fresh result slice on every call.
type Lattice struct {
	nodes    []Node
	startsAt [][]NodeID
	endsAt   [][]NodeID
	capacity int

	// scratch buffers reused across SetText calls to avoid per-call
	// allocation.
	catBuf   []chardef.CategoryID
	spanBuf  []chardef.CategoryID
	matchBuf []prefixdict.Match
}

// New returns an empty Lattice ready for SetText.
func New() *Lattice {
	return &Lattice{}
}

// Clear resets l for reuse, retaining the capacity of its backing
// slices.
func (l *Lattice) Clear() {
	l.nodes = l.nodes[:0]
	for i := range l.startsAt {
		l.startsAt[i] = l.startsAt[i][:0]
	}
	for i := range l.endsAt {
		l.endsAt[i] = l.endsAt[i][:0]
	}
}

// NumNodes reports how many nodes the last SetText produced; useful to
// tests and callers that want lattice-size diagnostics.
func (l *Lattice) NumNodes() int { return len(l.nodes) }

// Node returns the node at id.
func (l *Lattice) Node(id NodeID) *Node { return &l.nodes[id] }

func (l *Lattice) addNode(n Node) NodeID {
	id := NodeID(len(l.nodes))
	l.nodes = append(l.nodes, n)
	return id
}

func (l *Lattice) addEdge(n Node) {
	id := l.addNode(n)
	l.startsAt[n.Start] = append(l.startsAt[n.Start], id)
	l.endsAt[n.Stop] = append(l.endsAt[n.Stop], id)
}

// SetText builds the DAG of candidate edges over text. It makes
// startsAt/endsAt cover at least len(text)+1 positions (reallocating only
// when growing past previously observed capacity) and clears stale
// edges, appends BOS/EOS, then for every byte offset reachable from BOS
// adds known-word edges from pd.Prefix and, where called for,
// unknown-word edges derived from chars/unk.
func (l *Lattice) SetText(text string, pd *prefixdict.PrefixDict, chars *chardef.CharacterDefinitions, unk *unkdict.UnknownDictionary) {
	n := len(text)
	if l.capacity < n {
		l.capacity = n
		l.nodes = l.nodes[:0]
		l.startsAt = make([][]NodeID, n+1)
		l.endsAt = make([][]NodeID, n+1)
	} else {
		l.Clear()
	}

	l.addEdge(Node{Kind: KindBOS, Start: 0, Stop: 0, Left: noLeft, PathCost: 0})
	eos := l.addNode(Node{Kind: KindEOS, Start: n, Stop: n, Left: noLeft, PathCost: maxCost})
	l.startsAt[n] = append(l.startsAt[n], eos)

	for start := 0; start < n; start++ {
		if len(l.endsAt[start]) == 0 {
			continue
		}

		l.matchBuf = pd.Prefix(text[start:], l.matchBuf)
		for _, m := range l.matchBuf {
			l.addSpanEdges(text, start, start+m.PrefixLen, KindKnown, []wordentry.WordEntry{m.Entry})
		}

		c, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			continue
		}
		l.catBuf = chars.LookupCategories(c, l.catBuf)
		if len(l.catBuf) == 0 {
			continue
		}
		primary := l.catBuf[0]
		invoke := chars.Lookup(primary).Invoke
		if invoke || len(l.matchBuf) == 0 {
			l.addUnknownEdges(text, start, l.catBuf, chars, unk)
		}
	}
}

// addUnknownEdges generates every unknown-word span called for at
// start, taking the union of group/length rules over every category
// the first scalar belongs to, and for each span
// instantiates one edge per candidate WordEntry for each of those
// categories. Each category's own spans are deduped independently of
// every other category's, so that two categories both matching the
// first scalar (e.g. a codepoint classified as both KANJI and
// KANJINUMERIC) each still contribute their own edges even when one
// category's group-run and length-k spans happen to coincide in end
// offset with another category's.
func (l *Lattice) addUnknownEdges(text string, start int, cats []chardef.CategoryID, chars *chardef.CharacterDefinitions, unk *unkdict.UnknownDictionary) {
	for _, cat := range cats {
		data := chars.Lookup(cat)
		entries := unk.WordEntriesFor(cat)
		if len(entries) == 0 {
			continue
		}
		var seenStops []int
		if data.Group {
			stop := l.groupRunEnd(text, start, cat, chars)
			seenStops = l.emitUnknownSpan(text, start, stop, entries, seenStops)
		}
		for k := 1; k <= int(data.Length); k++ {
			stop := nthRuneBoundary(text, start, k)
			seenStops = l.emitUnknownSpan(text, start, stop, entries, seenStops)
		}
	}
}

// emitUnknownSpan adds one edge per entry spanning [start, stop), unless
// that exact span was already emitted earlier in this category's own
// group/length rules (a group rule and a length-k rule can otherwise
// request the same span twice).
func (l *Lattice) emitUnknownSpan(text string, start, stop int, entries []wordentry.WordEntry, seenStops []int) []int {
	if stop <= start {
		return seenStops
	}
	for _, s := range seenStops {
		if s == stop {
			return seenStops
		}
	}
	l.addSpanEdges(text, start, stop, KindUnknown, entries)
	return append(seenStops, stop)
}

// addSpanEdges appends one edge per entry, all spanning [start, stop).
func (l *Lattice) addSpanEdges(text string, start, stop int, kind Kind, entries []wordentry.WordEntry) {
	numChars, kanjiOnly := spanStats(text[start:stop])
	for _, e := range entries {
		l.addEdge(Node{
			Entry: e, Start: start, Stop: stop, Kind: kind,
			Left: noLeft, PathCost: maxCost, NumChars: numChars, KanjiOnly: kanjiOnly,
		})
	}
}

// groupRunEnd returns the end byte offset of the maximal run starting at
// start of scalars whose category set also contains cat.
func (l *Lattice) groupRunEnd(text string, start int, cat chardef.CategoryID, chars *chardef.CharacterDefinitions) int {
	i := start
	for i < len(text) {
		c, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		l.spanBuf = chars.LookupCategories(c, l.spanBuf)
		if !hasCategory(l.spanBuf, cat) {
			break
		}
		i += size
	}
	return i
}

func hasCategory(s []chardef.CategoryID, v chardef.CategoryID) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// nthRuneBoundary returns the byte offset after the first k scalars of
// text[start:], clipped to len(text).
func nthRuneBoundary(text string, start, k int) int {
	i := start
	for j := 0; j < k && i < len(text); j++ {
		_, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		i += size
	}
	return i
}

// spanStats reports the scalar count of s and whether every scalar in it
// falls in the CJK Unified Ideographs block, the KANJI category's range
// in every IPADIC-derived char_def.bin this module targets. Computing
// kanji-only-ness this way (instead of consulting CharacterDefinitions
// per scalar) keeps edge construction allocation-free; since the
// penalty function only consults KanjiOnly in Search mode, a dictionary
// compiled with an unconventional KANJI range would only affect search
// penalties, never segmentation correctness.
func spanStats(s string) (numChars int, kanjiOnly bool) {
	kanjiOnly = true
	for _, r := range s {
		numChars++
		if r < 0x4E00 || r > 0x9FFF {
			kanjiOnly = false
		}
	}
	return numChars, kanjiOnly
}

// CalculatePathCosts runs Viterbi over the lattice SetText built. For
// every right-edge starting at each byte index it chooses the ends_at
// predecessor minimizing
// left.PathCost + connectionCost + right.wordCost + penalty, breaking
// ties by earliest-added predecessor (stable ends_at iteration order).
func (l *Lattice) CalculatePathCosts(matrix *connection.Matrix, mode Mode) {
	for i := range l.startsAt {
		lefts := l.endsAt[i]
		for _, rightID := range l.startsAt[i] {
			right := &l.nodes[rightID]
			if right.Kind == KindBOS {
				right.PathCost = 0
				right.Left = noLeft
				continue
			}
			penalty := int64(mode.cost(right.NumChars, right.KanjiOnly))
			bestCost := maxCost
			bestLeft := noLeft
			for _, leftID := range lefts {
				left := &l.nodes[leftID]
				conn := int64(matrix.Cost(left.Entry.RightID(), right.Entry.LeftID()))
				cost := left.PathCost + conn
				if cost < bestCost {
					bestCost = cost
					bestLeft = leftID
				}
			}
			right.Left = bestLeft
			right.PathCost = bestCost + int64(right.Entry.WordCost) + penalty
		}
	}
}

// PathNodes backtraces from EOS along Left pointers, returning the node
// ids of the best path in ascending byte-offset order, BOS and EOS both
// excluded. Walking Left from EOS visits EOS itself, every token node in
// reverse, then stops at BOS without visiting it (BOS.Left is noLeft);
// reversing that walk puts EOS last, which is then trimmed off.
func (l *Lattice) PathNodes() []NodeID {
	var stack []NodeID
	id := EOS
	for {
		n := &l.nodes[id]
		if n.Left == noLeft {
			break
		}
		stack = append(stack, id)
		id = n.Left
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	if len(stack) > 0 {
		stack = stack[:len(stack)-1]
	}
	return stack
}

// TokensOffset backtraces from EOS along Left pointers, returning the
// ascending byte start offsets of each token (BOS dropped). The caller
// appends len(text) to obtain token boundaries.
func (l *Lattice) TokensOffset() []int {
	nodes := l.PathNodes()
	offsets := make([]int, len(nodes))
	for i, id := range nodes {
		offsets[i] = l.nodes[id].Start
	}
	return offsets
}
