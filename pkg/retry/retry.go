package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/notify"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/wallet"
)

// UnauthorizedPolicy decides what a credential-expiry rejection means inside
// the retry loop. Propagate hands the error back so the caller's recovery
// branch can refresh the token; Skip ends the operation without recovery.
type UnauthorizedPolicy int

const (
	Propagate UnauthorizedPolicy = iota
	Skip
)

// Options bounds the retry loop.
type Options struct {
	MaxAttempts    int
	Delay          time.Duration
	OnUnauthorized UnauthorizedPolicy

	// Sleep overrides the inter-attempt wait; tests use it to count sleeps.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the reference retry bounds.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:    3,
		Delay:          5 * time.Second,
		OnUnauthorized: Propagate,
	}
}

// Outcome wraps an operation result. Exactly one of the flags describes a
// terminal non-success; callers must treat Exhausted as failure, never as a
// usable result.
type Outcome[T any] struct {
	Value       T
	OK          bool
	NotEligible bool
	Skipped     bool // unauthorized ended the operation under the Skip policy
	Exhausted   bool
}

// Do executes op under the retry policy, appending one line to buf per failed
// attempt (successful attempts log from inside the operation). The returned
// error is non-nil only for an unauthorized rejection under the Propagate
// policy; every other failure mode is folded into the Outcome.
func Do[T any](ctx context.Context, buf *notify.Buffer, opts Options, op func(ctx context.Context) (T, error)) (Outcome[T], error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var out Outcome[T]
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			out.Value = value
			out.OK = true
			return out, nil
		}

		if wallet.IsNotEligible(err) {
			// Cooldown is a business state, not a fault.
			buf.Append("not eligible yet, skipping claim")
			logger.InfoContext(ctx, "not eligible, no retry")
			out.NotEligible = true
			return out, nil
		}

		if wallet.IsUnauthorized(err) {
			if opts.OnUnauthorized == Skip {
				buf.Append("token rejected, skipping account")
				logger.WarnContext(ctx, "unauthorized, skip policy active")
				out.Skipped = true
				return out, nil
			}
			return out, err
		}

		line := fmt.Sprintf("attempt %d failed: %v", attempt, err)
		buf.Append(line)
		logger.WarnContext(ctx, line)

		if attempt < opts.MaxAttempts {
			if serr := sleep(ctx, opts.Delay); serr != nil {
				buf.Append("retry interrupted: " + serr.Error())
				out.Exhausted = true
				return out, nil
			}
		} else {
			final := "final error: " + err.Error()
			buf.Append(final)
			logger.ErrorContext(ctx, final)
		}
	}

	out.Exhausted = true
	return out, nil
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
