package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("stats:acme_corp:deal", "s1", 1*time.Second)
	c.Set("stats:acme_corp:ticket", "s2", 1*time.Second)
	c.Set("stats:globex_inc:deal", "s3", 1*time.Second)
	c.Invalidate("stats:acme_corp:")
	_, ok1 := c.Get("stats:acme_corp:deal")
	_, ok2 := c.Get("stats:acme_corp:ticket")
	_, ok3 := c.Get("stats:globex_inc:deal")
	if ok1 || ok2 {
		t.Fatalf("expected acme_corp stats keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected other tenant's key to still exist")
	}
}
