package blobsync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// Status is a Connectivity flipped by the Watcher.
type Status struct {
	online atomic.Bool
}

func NewStatus(online bool) *Status {
	s := &Status{}
	s.online.Store(online)
	return s
}

func (s *Status) Online() bool { return s.online.Load() }

// Set stores online and reports the previous value.
func (s *Status) Set(online bool) bool { return s.online.Swap(online) }

type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher probes the remote periodically and runs onReconnect on every
// offline to online transition.
type Watcher struct {
	pinger      Pinger
	status      *Status
	interval    time.Duration
	timeout     time.Duration
	onReconnect func(ctx context.Context)
	logger      logging.Logger
}

func NewWatcher(p Pinger, s *Status, interval time.Duration, l logging.Logger, onReconnect func(ctx context.Context)) *Watcher {
	return &Watcher{
		pinger:      p,
		status:      s,
		interval:    interval,
		timeout:     3 * time.Second,
		onReconnect: onReconnect,
		logger:      l.With("module", "watcher"),
	}
}

// Check probes once and returns the new online state.
func (w *Watcher) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pctx)
	cancel()

	online := err == nil
	was := w.status.Set(online)

	switch {
	case online && !was:
		w.logger.Info(ctx, "remote reachable")
		if w.onReconnect != nil {
			w.onReconnect(ctx)
		}
	case !online && was:
		w.logger.Warn(ctx, "remote unreachable, working offline", "error", err)
	}
	return online
}

// Run calls Check every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
