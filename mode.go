package kotoba

import "github.com/kotobakit/kotoba/internal/lattice"

// Mode selects Tokenizer behavior: Normal applies no length penalty to
// Viterbi's path costs, while Search adds one to bias the shortest path
// toward smaller, more index-friendly tokens.
type Mode = lattice.Mode

// Penalty carries the thresholds and per-character costs that bias
// Viterbi against long compound runs in Mode.Search.
type Penalty = lattice.Penalty

// NormalMode is the default: Viterbi runs with no length penalty.
func NormalMode() Mode { return lattice.NormalMode() }

// SearchMode runs Viterbi with the given Penalty. Use DefaultPenalty for
// the reference thresholds below.
func SearchMode(p Penalty) Mode { return lattice.SearchMode(p) }

// DefaultPenalty returns the reference thresholds:
// kanjiThreshold=2, kanjiPenalty=3000, otherThreshold=7, otherPenalty=1700.
func DefaultPenalty() Penalty { return lattice.DefaultPenalty() }
