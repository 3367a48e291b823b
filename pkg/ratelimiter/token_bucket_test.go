package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucket_BurstUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d within capacity was rejected", i)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity was allowed")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(100, 1) // 100 tokens/sec refills quickly

	if !tb.Allow() {
		t.Fatal("first request was rejected")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket did not refill after waiting")
	}
}

func TestTokenBucket_CapacityIsCeiling(t *testing.T) {
	tb := NewTokenBucket(1000, 2)

	time.Sleep(20 * time.Millisecond) // would add ~20 tokens without the cap

	allowed := 0
	for i := 0; i < 10; i++ {
		if tb.Allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d requests from a capacity-2 bucket, want 2", allowed)
	}
}
