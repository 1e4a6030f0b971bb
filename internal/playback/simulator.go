// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playback

import (
	"math/rand/v2"
	"sync"
	"time"
	"unicode/utf8"
)

// Chunking and pacing defaults.
const (
	DefaultMinChunk = 1
	DefaultMaxChunk = 5
	DefaultMinDelay = 30 * time.Millisecond
	DefaultMaxDelay = 50 * time.Millisecond
)

// Sink receives playback output. It is called with each chunk and
// done=false, then exactly once with an empty chunk and done=true, unless
// the playback is cancelled first.
type Sink func(chunk string, done bool)

// Option configures a Simulator.
type Option func(*Simulator)

// WithChunkSize sets the chunk size range in runes.
func WithChunkSize(lo, hi int) Option {
	return func(s *Simulator) {
		if lo < 1 {
			lo = 1
		}
		if hi < lo {
			hi = lo
		}
		s.minChunk, s.maxChunk = lo, hi
	}
}

// WithDelay sets the delay range between chunks.
func WithDelay(lo, hi time.Duration) Option {
	return func(s *Simulator) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		s.minDelay, s.maxDelay = lo, hi
	}
}

// WithSeed makes chunking and pacing reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Instant reveals the whole text as one chunk without delay.
func Instant() Option {
	return func(s *Simulator) {
		s.instant = true
	}
}

// Simulator starts playbacks. It is safe for concurrent use.
type Simulator struct {
	minChunk, maxChunk int
	minDelay, maxDelay time.Duration
	instant            bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulator with the default pacing.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		minChunk: DefaultMinChunk,
		maxChunk: DefaultMaxChunk,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// IsInstant reports whether the simulator skips pacing.
func (s *Simulator) IsInstant() bool {
	return s.instant
}

// step is one planned delivery.
type step struct {
	chunk string
	delay time.Duration
}

// Chunks splits text the way Play would. Concatenating the result always
// yields text. Multi-byte characters are never split.
func (s *Simulator) Chunks(text string) []string {
	plan := s.plan(text)
	out := make([]string, len(plan))
	for i, st := range plan {
		out[i] = st.chunk
	}
	return out
}

func (s *Simulator) plan(text string) []step {
	if text == "" {
		return nil
	}
	if s.instant {
		return []step{{chunk: text}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]step, 0, len(text)/((s.minChunk+s.maxChunk)/2)+1)
	for i := 0; i < len(text); {
		n := s.minChunk + s.rng.IntN(s.maxChunk-s.minChunk+1)
		end := i
		for k := 0; k < n && end < len(text); k++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}
		delay := s.minDelay
		if span := s.maxDelay - s.minDelay; span > 0 {
			delay += time.Duration(s.rng.Int64N(int64(span) + 1))
		}
		steps = append(steps, step{chunk: text[i:end], delay: delay})
		i = end
	}
	return steps
}

// Play starts revealing text into sink on its own goroutine and returns
// immediately. Empty text ends the stream right away.
func (s *Simulator) Play(text string, sink Sink) *Playback {
	p := newPlayback()
	go p.run(s.plan(text), sink)
	return p
}
