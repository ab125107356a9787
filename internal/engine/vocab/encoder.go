package vocab

import "github.com/crimson-sun/dropoff/internal/model"

// DefaultMaxSeqLen is the fixed model input length.
const DefaultMaxSeqLen = 15

// Encoder converts sequences into fixed-length id vectors.
type Encoder struct {
	MaxSeqLen int
}

// NewEncoder creates an Encoder. maxSeqLen <= 0 selects DefaultMaxSeqLen.
func NewEncoder(maxSeqLen int) *Encoder {
	if maxSeqLen <= 0 {
		maxSeqLen = DefaultMaxSeqLen
	}
	return &Encoder{MaxSeqLen: maxSeqLen}
}

// Encode extends v with every symbol in seqs and encodes each sequence
// against the extended vocabulary, which is returned alongside.
func (e *Encoder) Encode(v *Vocabulary, seqs []model.Sequence) (*Vocabulary, []model.EncodedSequence) {
	var symbols []string
	for _, s := range seqs {
		symbols = append(symbols, s.Events...)
	}
	v = v.Extend(symbols)

	out := make([]model.EncodedSequence, len(seqs))
	for i, s := range seqs {
		out[i] = e.EncodeOne(v, s)
	}
	return v, out
}

// EncodeOne encodes a single sequence without extending v. Symbols missing
// from v map to UnkID.
func (e *Encoder) EncodeOne(v *Vocabulary, s model.Sequence) model.EncodedSequence {
	ids := make([]int, len(s.Events))
	for i, ev := range s.Events {
		ids[i] = v.Lookup(ev)
	}
	return model.EncodedSequence{
		TransactionID: s.TransactionID,
		IDs:           ids,
		Vector:        e.Pad(ids),
		Label:         s.Label,
	}
}

// Pad truncates ids at the tail to MaxSeqLen and right-pads with PadID.
// The result always has length MaxSeqLen.
func (e *Encoder) Pad(ids []int) []int {
	vec := make([]int, e.MaxSeqLen) // zero value is PadID
	copy(vec, ids)
	return vec
}

// Unknown counts the UnkID entries in an encoded sequence.
func Unknown(es model.EncodedSequence) int {
	n := 0
	for _, id := range es.IDs {
		if id == UnkID {
			n++
		}
	}
	return n
}
