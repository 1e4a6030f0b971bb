// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playback

import (
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

// recorder collects sink calls.
type recorder struct {
	mu     sync.Mutex
	chunks []string
	ends   int
	after  bool // a chunk arrived after end-of-stream
}

func (r *recorder) sink(chunk string, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done {
		r.ends++
		return
	}
	if r.ends > 0 {
		r.after = true
	}
	r.chunks = append(r.chunks, chunk)
}

func (r *recorder) snapshot() (string, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.chunks, ""), len(r.chunks), r.ends
}

func fast(seed uint64) *Simulator {
	return New(WithSeed(seed), WithDelay(0, time.Millisecond))
}

func waitDone(t *testing.T, p *Playback) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}
}

// =============================================================================
// CHUNKING
// =============================================================================

func TestChunks_Concatenate(t *testing.T) {
	texts := []string{
		"a",
		"Hello, world!",
		"## Two Sum\n\nUse a hash map: `seen[target-x]`.",
		"multi-byte: 日本語のテキスト ✓ 🚀",
		strings.Repeat("0123456789", 50),
	}
	for seed := uint64(1); seed <= 20; seed++ {
		s := fast(seed)
		for _, text := range texts {
			chunks := s.Chunks(text)
			if got := strings.Join(chunks, ""); got != text {
				t.Fatalf("seed %d: chunks joined = %q, want %q", seed, got, text)
			}
			for _, c := range chunks {
				n := utf8.RuneCountInString(c)
				if n < DefaultMinChunk || n > DefaultMaxChunk {
					t.Fatalf("chunk %q has %d runes", c, n)
				}
				if !utf8.ValidString(c) {
					t.Fatalf("chunk %q splits a character", c)
				}
			}
		}
	}
}

func TestChunks_InvalidUTF8KeptVerbatim(t *testing.T) {
	text := "ab\xffcd\xe2\x82"
	for seed := uint64(1); seed <= 10; seed++ {
		if got := strings.Join(fast(seed).Chunks(text), ""); got != text {
			t.Fatalf("seed %d: chunks joined = %q, want %q", seed, got, text)
		}
	}

	rec := &recorder{}
	p := New(WithSeed(3), WithDelay(0, 0)).Play(text, rec.sink)
	waitDone(t, p)
	if got, _, ends := rec.snapshot(); got != text || ends != 1 {
		t.Errorf("played %q with %d ends, want %q with 1", got, ends, text)
	}
}

func TestChunks_Empty(t *testing.T) {
	if got := New().Chunks(""); len(got) != 0 {
		t.Errorf("Chunks(\"\") = %v, want none", got)
	}
}

func TestChunks_Instant(t *testing.T) {
	got := New(Instant()).Chunks("whole reply")
	if len(got) != 1 || got[0] != "whole reply" {
		t.Errorf("Instant chunks = %v", got)
	}
}

func TestChunks_SeedIsReproducible(t *testing.T) {
	text := "reproducible chunking across runs"
	a := strings.Join(New(WithSeed(7)).Chunks(text), "|")
	b := strings.Join(New(WithSeed(7)).Chunks(text), "|")
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}
}

func TestWithChunkSize_Clamps(t *testing.T) {
	s := New(WithChunkSize(0, -3))
	if s.minChunk != 1 || s.maxChunk != 1 {
		t.Errorf("chunk range = %d..%d, want 1..1", s.minChunk, s.maxChunk)
	}
	for _, c := range s.Chunks("abc") {
		if len(c) != 1 {
			t.Errorf("chunk %q should be one rune", c)
		}
	}
}

// =============================================================================
// PLAYBACK
// =============================================================================

func TestPlay_DeliversAllThenEndsOnce(t *testing.T) {
	text := "Think about what you need to look up quickly."
	rec := &recorder{}
	p := fast(3).Play(text, rec.sink)
	waitDone(t, p)

	got, n, ends := rec.snapshot()
	if got != text {
		t.Errorf("delivered %q, want %q", got, text)
	}
	if ends != 1 {
		t.Errorf("end-of-stream delivered %d times, want 1", ends)
	}
	if rec.after {
		t.Error("chunk delivered after end-of-stream")
	}
	if !p.Finished() || p.Delivered() != n {
		t.Errorf("Finished=%v Delivered=%d, want true/%d", p.Finished(), p.Delivered(), n)
	}
}

func TestPlay_EmptyEndsImmediately(t *testing.T) {
	rec := &recorder{}
	p := New().Play("", rec.sink)
	waitDone(t, p)

	got, n, ends := rec.snapshot()
	if got != "" || n != 0 || ends != 1 {
		t.Errorf("empty playback: text=%q chunks=%d ends=%d", got, n, ends)
	}
}

func TestPlay_Instant(t *testing.T) {
	rec := &recorder{}
	p := New(Instant()).Play("all at once", rec.sink)
	waitDone(t, p)

	got, n, ends := rec.snapshot()
	if got != "all at once" || n != 1 || ends != 1 {
		t.Errorf("instant playback: text=%q chunks=%d ends=%d", got, n, ends)
	}
}

func TestCancel_StopsDelivery(t *testing.T) {
	text := strings.Repeat("slow reveal ", 40)
	rec := &recorder{}
	p := New(WithSeed(1), WithDelay(2*time.Millisecond, 3*time.Millisecond)).Play(text, rec.sink)

	time.Sleep(15 * time.Millisecond)
	p.Cancel()
	_, before, _ := rec.snapshot()

	time.Sleep(30 * time.Millisecond)
	got, after, ends := rec.snapshot()

	if after != before {
		t.Errorf("chunks delivered after Cancel: %d -> %d", before, after)
	}
	if ends != 0 {
		t.Error("end-of-stream must not be delivered after Cancel")
	}
	if !strings.HasPrefix(text, got) {
		t.Errorf("partial text %q is not a prefix", got)
	}
	waitDone(t, p)
	if p.Finished() {
		t.Error("cancelled playback reports Finished")
	}
}

func TestCancel_Idempotent(t *testing.T) {
	rec := &recorder{}
	p := fast(1).Play("done quickly", rec.sink)
	waitDone(t, p)

	p.Cancel()
	p.Cancel()

	_, _, ends := rec.snapshot()
	if ends != 1 || !p.Finished() {
		t.Errorf("cancel after finish changed outcome: ends=%d finished=%v", ends, p.Finished())
	}
}

func TestCancel_BeforeFirstChunk(t *testing.T) {
	rec := &recorder{}
	p := New(WithDelay(time.Second, time.Second)).Play("never shown", rec.sink)
	p.Cancel()
	waitDone(t, p)

	if _, n, ends := rec.snapshot(); n != 0 || ends != 0 {
		t.Errorf("chunks=%d ends=%d, want 0/0", n, ends)
	}
}
