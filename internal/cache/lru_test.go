package cache

import (
	"fmt"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", st)
	}
}

func TestEvictsFirstInserted(t *testing.T) {
	const capacity = 3
	c := New[string, int](capacity)
	for i := 0; i <= capacity; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	if c.Has("k0") {
		t.Error("first inserted key should be evicted")
	}
	if !c.Has(fmt.Sprintf("k%d", capacity)) {
		t.Error("last inserted key should remain")
	}
	if c.Len() != capacity {
		t.Errorf("Len = %d, want %d", c.Len(), capacity)
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("evictions = %d, want 1", ev)
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New[string, int](2)
	c.Set("old", 1)
	c.Set("mid", 2)
	if _, ok := c.Get("old"); !ok {
		t.Fatal("old should be cached")
	}
	c.Set("new", 3)

	if !c.Has("old") {
		t.Error("recently read key was evicted")
	}
	if c.Has("mid") {
		t.Error("mid should have been evicted")
	}
}

func TestUpdateExistingDoesNotEvict(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if c.Len() != 2 || c.Stats().Evictions != 0 {
		t.Fatalf("len = %d evictions = %d", c.Len(), c.Stats().Evictions)
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("a = %d, want 10", v)
	}
	c.Set("c", 3)
	if c.Has("b") {
		t.Error("b should be the eviction candidate after a was updated")
	}
}

func TestHasDoesNotTouchRecency(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	_ = c.Has("a")
	c.Set("c", 3)
	if c.Has("a") {
		t.Error("Has must not refresh recency")
	}
}

func TestKeysFollowAccessOrder(t *testing.T) {
	c := New[int, int](4)
	for i := 0; i < 4; i++ {
		c.Set(i, i)
	}
	c.Get(1)
	c.Set(2, 20)
	_ = c.Has(0)

	want := []int{0, 3, 1, 2}
	keys := c.Keys()
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	if !c.Delete("a") {
		t.Error("Delete(a) should report presence")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) should report absence")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	if c.Stats().Evictions != 0 {
		t.Error("Clear must not count evictions")
	}
}

func TestZeroCapacity(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero-capacity cache must always miss")
	}
	if c.Len() != 0 || c.Has("a") || c.Delete("a") {
		t.Error("zero-capacity cache must stay empty")
	}
	c.Clear()
	if c.Stats().Misses != 1 {
		t.Errorf("misses = %d, want 1", c.Stats().Misses)
	}
}
