// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playback

import (
	"sync"
	"sync/atomic"
	"time"
)

// Playback is one running reveal.
type Playback struct {
	// mu is held for every sink call so Cancel can wait one out.
	mu        sync.Mutex
	cancelled bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	finished atomic.Bool
	chunks   atomic.Int64
}

func newPlayback() *Playback {
	return &Playback{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (p *Playback) run(plan []step, sink Sink) {
	defer close(p.done)

	for _, st := range plan {
		if st.delay > 0 {
			select {
			case <-p.stop:
				return
			case <-time.After(st.delay):
			}
		}
		if !p.deliver(sink, st.chunk, false) {
			return
		}
		p.chunks.Add(1)
	}
	if p.deliver(sink, "", true) {
		p.finished.Store(true)
	}
}

// deliver calls sink unless the playback was cancelled. It reports whether
// the call happened.
func (p *Playback) deliver(sink Sink, chunk string, done bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return false
	}
	sink(chunk, done)
	return true
}

// Cancel stops the playback. No sink call happens after Cancel returns and
// end-of-stream is not delivered. It is idempotent and safe after the
// playback has finished.
func (p *Playback) Cancel() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	p.cancelled = true
	p.mu.Unlock()
}

// Done is closed when the playback goroutine exits, whether it finished or
// was cancelled.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Finished reports whether end-of-stream was delivered.
func (p *Playback) Finished() bool {
	return p.finished.Load()
}

// Delivered returns how many chunks reached the sink.
func (p *Playback) Delivered() int {
	return int(p.chunks.Load())
}
