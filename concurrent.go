package kotoba

import (
	"sync"

	"github.com/kotobakit/kotoba/internal/lattice"
)

// Spawn returns a new Tokenizer sharing tk's read-only dictionary
// components (PrefixDict, ConnectionCostMatrix, CharacterDefinitions,
// UnknownDictionary) but owning its own Lattice, per the concurrency
// model: the read-only components may be shared by many Tokenizer
// instances for embarrassingly parallel throughput, while each
// Tokenizer's Lattice is exclusive to it. The spawned Tokenizer must not
// be Close'd; only the original owns the underlying mappings.
func (tk *Tokenizer) Spawn() *Tokenizer {
	return &Tokenizer{
		pd:     tk.pd,
		matrix: tk.matrix,
		chars:  tk.chars,
		unk:    tk.unk,
		detail: tk.detail,
		mode:   tk.mode,
		lat:    lattice.New(),
	}
}

// workItem pairs an input's original index with its text, so results can
// be restored to input order once every worker has drained the queue.
type workItem struct {
	index int
	text  string
}

// TokenizeMany tokenizes every text in texts using numWorkers goroutines,
// each running its own Spawn()'d Tokenizer so the shared read-only
// dictionary components are consulted concurrently while each worker's
// Lattice stays exclusive to it. Results are returned in the same order
// as texts.
func (tk *Tokenizer) TokenizeMany(texts []string, numWorkers int) [][]Token {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(texts) {
		numWorkers = len(texts)
	}
	if numWorkers == 0 {
		return nil
	}

	work := make(chan workItem, len(texts))
	go func() {
		defer close(work)
		for i, text := range texts {
			work <- workItem{index: i, text: text}
		}
	}()

	results := make([][]Token, len(texts))
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			worker := tk.Spawn()
			for item := range work {
				results[item.index] = worker.Tokenize(item.text)
			}
		}()
	}
	wg.Wait()
	return results
}
