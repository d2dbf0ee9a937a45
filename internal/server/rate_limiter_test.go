package server

import (
	"testing"
	"time"
)

func TestFrameLimiterAllowsBurst(t *testing.T) {
	l := newFrameLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.allow() {
			t.Fatalf("frame %d within burst should be allowed", i)
		}
	}
	if l.allow() {
		t.Error("frame beyond burst should be discarded")
	}
}

func TestFrameLimiterRefills(t *testing.T) {
	l := newFrameLimiter(1, 10*time.Millisecond)

	if !l.allow() {
		t.Fatal("first frame should be allowed")
	}
	if l.allow() {
		t.Fatal("second immediate frame should be discarded")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.allow() {
		t.Error("frame after refill interval should be allowed")
	}
}

func TestFrameLimiterSanitizesArguments(t *testing.T) {
	l := newFrameLimiter(0, 0)
	if !l.allow() {
		t.Error("limiter with sanitized defaults should allow at least one frame")
	}
}
