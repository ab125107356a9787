package vocab

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/dropoff/internal/model"
)

func seq(id int64, events ...string) model.Sequence {
	return model.Sequence{TransactionID: id, Events: events}
}

func TestNewReserved(t *testing.T) {
	v := New()
	assert.Equal(t, 2, v.Size())
	assert.Equal(t, PadID, v.Lookup(PadSymbol))
	assert.Equal(t, UnkID, v.Lookup(UnkSymbol))
	assert.Equal(t, UnkID, v.Lookup("Screen_Login"))
}

func TestExtendSortedAndMonotonic(t *testing.T) {
	v1 := New().Extend([]string{"b", "a", "b", "c"})
	assert.Equal(t, 2, v1.Lookup("a"))
	assert.Equal(t, 3, v1.Lookup("b"))
	assert.Equal(t, 4, v1.Lookup("c"))

	v2 := v1.Extend([]string{"0first", "a", "z"})
	// Existing ids never move; new ones append after the current maximum.
	assert.Equal(t, 2, v2.Lookup("a"))
	assert.Equal(t, 3, v2.Lookup("b"))
	assert.Equal(t, 4, v2.Lookup("c"))
	assert.Equal(t, 5, v2.Lookup("0first"))
	assert.Equal(t, 6, v2.Lookup("z"))

	// The older snapshot is untouched.
	assert.False(t, v1.Contains("z"))
	assert.Same(t, v2, v2.Extend([]string{"a", "z"}))
}

func TestExtendDeterministic(t *testing.T) {
	a := New().Extend([]string{"Screen_Login", "UseCase_AuthUser", "Screen_S14"})
	b := New().Extend([]string{"Screen_S14", "Screen_Login", "UseCase_AuthUser"})
	assert.Equal(t, a.Entries(), b.Entries())
}

func TestEntries(t *testing.T) {
	v := New().Extend([]string{"x"})
	assert.Equal(t, []model.VocabEntry{
		{ID: 0, Symbol: PadSymbol},
		{ID: 1, Symbol: UnkSymbol},
		{ID: 2, Symbol: "x"},
	}, v.Entries())

	s, ok := v.Symbol(2)
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = v.Symbol(3)
	assert.False(t, ok)
}

func TestEncodeShortSequencePads(t *testing.T) {
	e := NewEncoder(0)
	v, enc := e.Encode(New(), []model.Sequence{seq(1, "A", "B", "C")})

	require.Len(t, enc, 1)
	want := make([]int, DefaultMaxSeqLen)
	want[0], want[1], want[2] = v.Lookup("A"), v.Lookup("B"), v.Lookup("C")
	assert.Equal(t, want, enc[0].Vector)
	assert.Equal(t, []int{2, 3, 4}, enc[0].IDs)
}

func TestEncodeLongSequenceTruncatesTail(t *testing.T) {
	events := make([]string, 20)
	for i := range events {
		events[i] = fmt.Sprintf("E%02d", i)
	}
	e := NewEncoder(15)
	v, enc := e.Encode(New(), []model.Sequence{seq(1, events...)})

	require.Len(t, enc[0].Vector, 15)
	for i, id := range enc[0].Vector {
		assert.Equal(t, v.Lookup(events[i]), id)
		assert.NotEqual(t, PadID, id)
	}
	assert.Len(t, enc[0].IDs, 20)
}

func TestEncodeUnknownAgainstForeignVocabulary(t *testing.T) {
	e := NewEncoder(4)
	foreign := New().Extend([]string{"A"})
	got := e.EncodeOne(foreign, seq(1, "A", "Nope", "A"))
	assert.Equal(t, []int{2, UnkID, 2, PadID}, got.Vector)
	assert.Equal(t, 1, Unknown(got))
}

func TestEncodeIdempotent(t *testing.T) {
	e := NewEncoder(6)
	v := New().Extend([]string{"A", "B"})
	s := seq(3, "B", "A", "C")
	assert.Equal(t, e.EncodeOne(v, s), e.EncodeOne(v, s))
}

func TestEncodeMonotonicAcrossCalls(t *testing.T) {
	e := NewEncoder(5)
	v, first := e.Encode(New(), []model.Sequence{seq(1, "Screen_Login", "UseCase_AuthUser")})
	v, second := e.Encode(v, []model.Sequence{seq(2, "Aaa", "Screen_Login")})

	assert.Equal(t, first[0].Vector[0], second[0].Vector[1])
	assert.Equal(t, 5, v.Size())
}

func TestPadInvariant(t *testing.T) {
	e := NewEncoder(8)
	for n := 0; n <= 12; n++ {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = 2 + i%3
		}
		vec := e.Pad(ids)
		require.Len(t, vec, 8)
		seenPad := false
		for _, id := range vec {
			if id == PadID {
				seenPad = true
			} else if seenPad {
				t.Fatalf("n=%d: non-padding id after padding in %v", n, vec)
			}
		}
	}
}
