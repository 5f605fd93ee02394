package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestGetMissing(t *testing.T) {
	m := New[int]()

	if _, ok := m.Get("missing"); ok {
		t.Error("Get reported a value for an unregistered key")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestGetOrSet(t *testing.T) {
	m := New[int]()

	v, existed := m.GetOrSet("users", 1)
	if existed || v != 1 {
		t.Errorf("first GetOrSet = (%d, %v), want (1, false)", v, existed)
	}

	v, existed = m.GetOrSet("users", 2)
	if !existed || v != 1 {
		t.Errorf("second GetOrSet = (%d, %v), want (1, true)", v, existed)
	}

	got, ok := m.Get("users")
	if !ok || got != 1 {
		t.Errorf("Get = (%d, %v), want (1, true)", got, ok)
	}
}

func TestGetOrSetFirstWriterWins(t *testing.T) {
	m := New[*int]()

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := new(int)
			*v = i
			results[i], _ = m.GetOrSet("users", v)
		}(i)
	}
	wg.Wait()

	winner, ok := m.Get("users")
	if !ok {
		t.Fatal("key missing after concurrent GetOrSet")
	}
	for i, got := range results {
		if got != winner {
			t.Errorf("goroutine %d observed %p, want winner %p", i, got, winner)
		}
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestCount(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.GetOrSet(fmt.Sprintf("cache-%d", i), i)
	}
	if got := m.Count(); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}
}

func TestRange(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.GetOrSet(fmt.Sprintf("cache-%d", i), i)
	}

	seen := make(map[string]int)
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	if len(seen) != 10 {
		t.Errorf("Range visited %d entries, want 10", len(seen))
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.GetOrSet(fmt.Sprintf("cache-%d", i), i)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range visited %d entries after early stop, want 3", visited)
	}
}

func TestKeys(t *testing.T) {
	m := New[int]()
	want := []string{"orders", "sessions", "users"}
	for i, k := range want {
		m.GetOrSet(k, i)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != len(want) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	m := New[int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("cache-%d", i)
				m.GetOrSet(key, i)
				if v, ok := m.Get(key); !ok || v != i {
					t.Errorf("Get(%s) = (%d, %v), want (%d, true)", key, v, ok, i)
				}
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 200 {
		t.Errorf("Count() = %d, want 200 (first writer wins per key)", got)
	}
}
