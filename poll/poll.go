package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/utils"
)

var ErrTimeout = errors.New("timed out waiting for condition")

// FixedSleeper waits the same interval between attempts.
func FixedSleeper(interval time.Duration) utils.Sleeper {
	return utils.BackoffSleeper(interval, interval, func(d time.Duration) time.Duration { return d })
}

// Until calls cond every interval until it reports true, the timeout elapses
// or ctx is done. cond errors do not stop polling; the last one is wrapped
// into the returned timeout error.
func Until(ctx context.Context, timeout, interval time.Duration, cond func(ctx context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	err := utils.Retry(ctx, FixedSleeper(interval), func() (bool, error) {
		ok, err := cond(ctx)
		if err != nil {
			lastErr = err
			return false, nil
		}
		return ok, nil
	})
	if err == nil {
		return nil
	}

	if parentErr := context.Cause(ctx); parentErr != nil && !errors.Is(parentErr, context.DeadlineExceeded) {
		return parentErr
	}
	if lastErr != nil {
		return fmt.Errorf("%w after %v: %w", ErrTimeout, timeout, lastErr)
	}
	return fmt.Errorf("%w after %v", ErrTimeout, timeout)
}
