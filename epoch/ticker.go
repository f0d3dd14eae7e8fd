// Copyright 2025 Meadowlark Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package epoch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tick represents a notification that an epoch boundary has been reached
type Tick struct {
	// Epoch is the epoch that just began
	Epoch uint64
	// Start is the time when this epoch started
	Start time.Time
}

// TickerConfig holds configuration for the Ticker
type TickerConfig struct {
	// Logger for ticker events
	Logger *slog.Logger
	// ClockTolerance is the maximum drift allowed when waking at epoch
	// boundaries. If we wake up more than this much after the boundary,
	// we log a warning. Default: 1s
	ClockTolerance time.Duration
}

// DefaultTickerConfig returns the default configuration
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		ClockTolerance: time.Second,
	}
}

// Ticker emits a Tick at each epoch boundary. It exists so that epoch
// transitions can be observed in real time (aggregate decay commits, metrics,
// events) rather than only lazily on the next command.
type Ticker struct {
	clock       *Clock
	config      TickerConfig
	subscribers []chan Tick
	mu          sync.RWMutex
	cancel      context.CancelFunc
	ctx         context.Context
	running     bool
	wg          sync.WaitGroup
}

// NewTicker creates a new Ticker driven by the given clock
func NewTicker(clock *Clock, config TickerConfig) *Ticker {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ClockTolerance == 0 {
		config.ClockTolerance = DefaultTickerConfig().ClockTolerance
	}
	return &Ticker{
		clock:       clock,
		config:      config,
		subscribers: make([]chan Tick, 0),
	}
}

// Start begins the tick loop. Returns immediately; the loop runs in a
// goroutine until Stop is called or the context is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()
}

// Stop halts the ticker and waits for the tick loop to exit. All subscriber
// channels are closed, so goroutines blocked on them exit cleanly.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	if t.cancel != nil {
		t.cancel()
	}
	for _, ch := range t.subscribers {
		close(ch)
	}
	t.subscribers = nil
	t.mu.Unlock()

	t.wg.Wait()
}

// Subscribe returns a channel that will receive Tick notifications. The
// channel is buffered to avoid blocking the tick loop.
func (t *Ticker) Subscribe() <-chan Tick {
	ch := make(chan Tick, 1)
	t.mu.Lock()
	t.subscribers = append(t.subscribers, ch)
	t.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it
func (t *Ticker) Unsubscribe(ch <-chan Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, sub := range t.subscribers {
		if sub == ch {
			close(sub)
			t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
			return
		}
	}
}

func (t *Ticker) run() {
	defer t.wg.Done()

	logger := t.config.Logger.With("component", "epoch_ticker")

	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}

		now := t.clock.nowFunc()
		nextEpoch := t.clock.EpochOf(now) + 1
		nextStart := t.clock.StartOf(nextEpoch)

		sleepDuration := nextStart.Sub(now)
		if sleepDuration > 0 {
			select {
			case <-t.ctx.Done():
				return
			case <-time.After(sleepDuration):
			}
		}

		// Verify what epoch we actually woke up in (handle clock drift)
		actualNow := t.clock.nowFunc()
		actualEpoch := t.clock.EpochOf(actualNow)
		drift := actualNow.Sub(nextStart)
		if drift > t.config.ClockTolerance {
			logger.Warn("epoch ticker drift detected",
				"expected_epoch", nextEpoch,
				"actual_epoch", actualEpoch,
				"drift", drift,
			)
		}

		t.emit(Tick{
			Epoch: actualEpoch,
			Start: t.clock.StartOf(actualEpoch),
		})
	}
}

func (t *Ticker) emit(tick Tick) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ch := range t.subscribers {
		select {
		case ch <- tick:
		default:
			// Channel is full, subscriber is slow - skip to avoid blocking
			t.config.Logger.Debug("epoch tick dropped for slow subscriber",
				"epoch", tick.Epoch,
			)
		}
	}
}
