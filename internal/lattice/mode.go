package lattice

// Mode selects Viterbi behavior: Normal applies no length penalty, while
// Search adds one to bias the shortest path toward smaller, more
// index-friendly tokens. Search carries its own Penalty, keeping every
// tunable in one place and leaving Viterbi itself penalty-function-
// oblivious.
type Mode struct {
	search  bool
	penalty Penalty
}

// NormalMode is the default: Viterbi runs with no length penalty.
func NormalMode() Mode { return Mode{} }

// SearchMode runs Viterbi with the given Penalty.
func SearchMode(p Penalty) Mode { return Mode{search: true, penalty: p} }

// IsSearch reports whether m is a search mode.
func (m Mode) IsSearch() bool { return m.search }

// Penalty carries the thresholds and per-character costs that bias
// Viterbi against long compound runs in Mode.Search.
type Penalty struct {
	KanjiThreshold int
	KanjiPenalty   int32
	OtherThreshold int
	OtherPenalty   int32
}

// DefaultPenalty returns the reference thresholds: kanjiThreshold=2,
// kanjiPenalty=3000, otherThreshold=7, otherPenalty=1700.
func DefaultPenalty() Penalty {
	return Penalty{
		KanjiThreshold: 2,
		KanjiPenalty:   3000,
		OtherThreshold: 7,
		OtherPenalty:   1700,
	}
}

// cost computes the length penalty for an edge spanning numChars
// scalars, where kanjiOnly is the edge's Node.KanjiOnly flag (every
// scalar in the CJK Unified Ideographs block). Returns 0 outside of
// Search mode.
func (m Mode) cost(numChars int, kanjiOnly bool) int32 {
	if !m.search {
		return 0
	}
	p := m.penalty
	if numChars <= p.KanjiThreshold {
		return 0
	}
	if kanjiOnly {
		return int32(numChars-p.KanjiThreshold) * p.KanjiPenalty
	}
	if numChars > p.OtherThreshold {
		return int32(numChars-p.OtherThreshold) * p.OtherPenalty
	}
	return 0
}
