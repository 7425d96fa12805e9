package storage

import (
	"sync"
	"testing"
)

func TestStoreGetSet(t *testing.T) {
	s := New[string]()

	if _, ok := s.Get("missing"); ok {
		t.Error("Expected missing key to be absent")
	}

	s.Set("b", "deux")
	s.Set("a", "un")
	if got, ok := s.Get("a"); !ok || got != "un" {
		t.Errorf("Expected 'un', got %q (ok=%v)", got, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 items, got %d", s.Len())
	}

	s.Set("a", "one")
	if got, _ := s.Get("a"); got != "one" {
		t.Errorf("Expected overwritten value 'one', got %q", got)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 items after overwrite, got %d", s.Len())
	}
}

func TestStoreConcurrentUpdate(t *testing.T) {
	s := New[[]int]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Update("k", func(current []int, _ bool) []int {
				return append(current, n)
			})
		}(i)
	}
	wg.Wait()

	got, _ := s.Get("k")
	if len(got) != 50 {
		t.Errorf("Expected 50 values, got %d", len(got))
	}
}
