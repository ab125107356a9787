package vocab

import (
	"slices"

	"github.com/crimson-sun/dropoff/internal/model"
)

// Reserved ids.
const (
	PadID = 0
	UnkID = 1

	PadSymbol = "<PAD>"
	UnkSymbol = "<UNK>"
)

// Vocabulary maps event symbols to dense ids. Ids are assigned once and never
// reused. A Vocabulary is never mutated after construction; Extend returns a
// new value, so a snapshot can be shared freely across goroutines.
type Vocabulary struct {
	symbolToID map[string]int
	idToSymbol []string
}

// New returns a vocabulary holding only the reserved padding and unknown symbols.
func New() *Vocabulary {
	return &Vocabulary{
		symbolToID: map[string]int{PadSymbol: PadID, UnkSymbol: UnkID},
		idToSymbol: []string{PadSymbol, UnkSymbol},
	}
}

// Extend returns a vocabulary that keeps every existing assignment and adds
// the unseen symbols, in sorted order, with fresh ids. If nothing is new, the
// receiver itself is returned.
func (v *Vocabulary) Extend(symbols []string) *Vocabulary {
	var fresh []string
	seen := make(map[string]bool)
	for _, s := range symbols {
		if _, ok := v.symbolToID[s]; ok || seen[s] {
			continue
		}
		seen[s] = true
		fresh = append(fresh, s)
	}
	if len(fresh) == 0 {
		return v
	}
	slices.Sort(fresh)

	next := &Vocabulary{
		symbolToID: make(map[string]int, len(v.symbolToID)+len(fresh)),
		idToSymbol: make([]string, len(v.idToSymbol), len(v.idToSymbol)+len(fresh)),
	}
	for s, id := range v.symbolToID {
		next.symbolToID[s] = id
	}
	copy(next.idToSymbol, v.idToSymbol)
	for _, s := range fresh {
		next.symbolToID[s] = len(next.idToSymbol)
		next.idToSymbol = append(next.idToSymbol, s)
	}
	return next
}

// Lookup returns the id for symbol, or UnkID if it is not in the vocabulary.
func (v *Vocabulary) Lookup(symbol string) int {
	if id, ok := v.symbolToID[symbol]; ok {
		return id
	}
	return UnkID
}

// Contains reports whether symbol has an assigned id.
func (v *Vocabulary) Contains(symbol string) bool {
	_, ok := v.symbolToID[symbol]
	return ok
}

// Symbol returns the symbol for id.
func (v *Vocabulary) Symbol(id int) (string, bool) {
	if id < 0 || id >= len(v.idToSymbol) {
		return "", false
	}
	return v.idToSymbol[id], true
}

// Size returns the number of ids, reserved ones included.
func (v *Vocabulary) Size() int {
	return len(v.idToSymbol)
}

// Entries returns the id -> symbol table in id order.
func (v *Vocabulary) Entries() []model.VocabEntry {
	out := make([]model.VocabEntry, len(v.idToSymbol))
	for id, s := range v.idToSymbol {
		out[id] = model.VocabEntry{ID: id, Symbol: s}
	}
	return out
}
