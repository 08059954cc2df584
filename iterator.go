package phantom

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

// ErrEmptyIterator is returned by First and Last when the iterator yields no items.
var ErrEmptyIterator = errors.New("iterator is empty")

// Default polling bounds for Watch and Wait.
const (
	DefaultPollInterval    = time.Second
	DefaultPollMaxAttempts = 10
)

// PollOptions bounds Watch and Wait. Zero fields take the defaults.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

func (o *PollOptions) withDefaults() PollOptions {
	out := PollOptions{Interval: DefaultPollInterval, MaxAttempts: DefaultPollMaxAttempts}
	if o == nil {
		return out
	}
	if o.Interval > 0 {
		out.Interval = o.Interval
	}
	if o.MaxAttempts > 0 {
		out.MaxAttempts = o.MaxAttempts
	}
	return out
}

// watch polls fetch and yields each snapshot. The sequence ends after the
// first terminal snapshot; it ends with an error on a fetch failure, an
// unknown status, a cancelled context, or when attempts run out. Errors
// are never retried.
func watch[T any](ctx context.Context, opts *PollOptions, fetch func(context.Context) (T, error), status func(T) RunStatus) iter.Seq2[T, error] {
	o := opts.withDefaults()
	return func(yield func(T, error) bool) {
		var zero T
		for attempt := 1; ; attempt++ {
			item, err := fetch(ctx)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}

			st := status(item)
			if st.IsTerminal() {
				return
			}
			if !st.inProgress() {
				yield(zero, fmt.Errorf("%w: %q", ErrUnexpectedStatus, st))
				return
			}
			if attempt >= o.MaxAttempts {
				yield(zero, fmt.Errorf("%w: %d attempts, last status %q", ErrPollExhausted, attempt, st))
				return
			}

			timer := time.NewTimer(o.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				yield(zero, ctx.Err())
				return
			case <-timer.C:
			}
		}
	}
}

// First returns the first item from an iterator, or an error if the iterator is empty or fails.
func First[T any](seq iter.Seq2[T, error]) (T, error) {
	for item, err := range seq {
		return item, err
	}
	var zero T
	return zero, ErrEmptyIterator
}

// Last drains an iterator and returns its final item. On error it returns
// the last item seen before the error along with the error.
func Last[T any](seq iter.Seq2[T, error]) (T, error) {
	var last T
	seen := false
	for item, err := range seq {
		if err != nil {
			return last, err
		}
		last = item
		seen = true
	}
	if !seen {
		return last, ErrEmptyIterator
	}
	return last, nil
}

// Map transforms each item in the iterator using the provided function.
// It stops after the first error.
func Map[T, U any](seq iter.Seq2[T, error], fn func(T) U) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		for item, err := range seq {
			if err != nil {
				var zero U
				yield(zero, err)
				return
			}
			if !yield(fn(item), nil) {
				return
			}
		}
	}
}
