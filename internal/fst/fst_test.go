package fst

import "testing"

func buildSample(t *testing.T) *Automaton {
	t.Helper()
	b := NewBuilder()
	b.Insert([]byte("an"), 1)
	b.Insert([]byte("and"), 2)
	b.Insert([]byte("ant"), 3)
	b.Insert([]byte("bee"), 4)
	a, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return a
}

func walk(a *Automaton, key string) (uint64, bool) {
	state := a.Root()
	for i := 0; i < len(key); i++ {
		next, ok := a.Step(state, key[i])
		if !ok {
			return 0, false
		}
		state = next
	}
	return a.IsFinal(state)
}

func TestWalkExactKeys(t *testing.T) {
	a := buildSample(t)
	cases := []struct {
		key      string
		want     uint64
		wantOK   bool
	}{
		{"an", 1, true},
		{"and", 2, true},
		{"ant", 3, true},
		{"bee", 4, true},
		{"a", 0, false},
		{"ants", 0, false},
		{"be", 0, false},
		{"cee", 0, false},
	}
	for _, c := range cases {
		got, ok := walk(a, c.key)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("walk(%q) = (%d, %v), want (%d, %v)", c.key, got, ok, c.want, c.wantOK)
		}
	}
}

func TestInsertRejectsUnsortedKeys(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic for out-of-order insert, got none")
		}
	}()
	b := NewBuilder()
	b.Insert([]byte("b"), 1)
	b.Insert([]byte("a"), 2)
}

func TestInsertRejectsDuplicateKeys(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic for duplicate key, got none")
		}
	}()
	b := NewBuilder()
	b.Insert([]byte("a"), 1)
	b.Insert([]byte("a"), 2)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := buildSample(t)
	data := Encode(a)
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, key := range []string{"an", "and", "ant", "bee"} {
		want, wantOK := walk(a, key)
		gotVal, gotOK := walk(got, key)
		if wantOK != gotOK || want != gotVal {
			t.Errorf("after round trip, walk(%q) = (%d,%v), want (%d,%v)", key, gotVal, gotOK, want, wantOK)
		}
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	a := buildSample(t)
	data := Encode(a)
	if _, err := Decode(data[:len(data)-1]); err == nil {
		t.Fatal("want error for truncated data, got nil")
	}
}

func TestDecodeRejectsTooSmall(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("want error for too-small input, got nil")
	}
}
