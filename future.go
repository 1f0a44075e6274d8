// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import "context"

// Future is the pending result of Initialize.
//
// A Future resolves exactly once. Every caller that joined the same
// initialization holds the same Future.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(err error) *Future {
	f := newFuture()
	f.resolve(err)
	return f
}

func (f *Future) resolve(err error) {
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed when the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the result of a resolved future and ErrNotReady while it is
// pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return ErrNotReady
	}
}

// Wait blocks until the future resolves or ctx is done. Abandoning the wait
// does not cancel the initialization.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
