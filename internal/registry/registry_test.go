package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type widget struct {
	id string
}

func TestKey(t *testing.T) {
	if got := Key("stock", "shares", "TQBR"); got != "stock/shares/TQBR" {
		t.Errorf("Key = %q, want %q", got, "stock/shares/TQBR")
	}
	if got := Key("stock"); got != "stock" {
		t.Errorf("Key = %q, want %q", got, "stock")
	}
}

func TestGetOrCreate(t *testing.T) {
	t.Run("same key yields same instance", func(t *testing.T) {
		r := New[*widget]()

		a, err := r.GetOrCreate("stock", func() (*widget, error) { return &widget{id: "stock"}, nil })
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		b, err := r.GetOrCreate("stock", func() (*widget, error) {
			t.Fatal("factory should not run twice")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}

		if a != b {
			t.Error("lookups of the same key returned different instances")
		}
	})

	t.Run("different keys yield different instances", func(t *testing.T) {
		r := New[*widget]()

		a, _ := r.GetOrCreate("a", func() (*widget, error) { return &widget{id: "a"}, nil })
		b, _ := r.GetOrCreate("b", func() (*widget, error) { return &widget{id: "b"}, nil })

		if a == b {
			t.Error("distinct keys returned the same instance")
		}
	})

	t.Run("failed construction is retried", func(t *testing.T) {
		r := New[*widget]()
		boom := errors.New("boom")

		_, err := r.GetOrCreate("x", func() (*widget, error) { return nil, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want %v", err, boom)
		}

		w, err := r.GetOrCreate("x", func() (*widget, error) { return &widget{id: "x"}, nil })
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if w == nil {
			t.Fatal("retry returned nil")
		}
	})
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := New[*widget]()
	var constructions atomic.Int32

	const goroutines = 50
	results := make([]*widget, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := r.GetOrCreate("stock", func() (*widget, error) {
				constructions.Add(1)
				return &widget{id: "stock"}, nil
			})
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
			}
			results[i] = w
		}(i)
	}
	wg.Wait()

	if n := constructions.Load(); n != 1 {
		t.Errorf("constructions = %d, want 1", n)
	}
	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent lookups returned different instances")
		}
	}
}

func TestGet(t *testing.T) {
	r := New[*widget]()

	if _, ok := r.Get("stock"); ok {
		t.Error("Get on an empty registry should miss")
	}

	want, _ := r.GetOrCreate("stock", func() (*widget, error) { return &widget{id: "stock"}, nil })
	got, ok := r.Get("stock")
	if !ok || got != want {
		t.Errorf("Get = %v, %v; want cached instance", got, ok)
	}
}

func TestClear(t *testing.T) {
	r := New[*widget]()
	old, _ := r.GetOrCreate("stock", func() (*widget, error) { return &widget{id: "stock"}, nil })

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", r.Len())
	}

	fresh, _ := r.GetOrCreate("stock", func() (*widget, error) { return &widget{id: "stock"}, nil })
	if fresh == old {
		t.Error("Clear should drop cached instances")
	}
}
