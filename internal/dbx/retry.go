package dbx

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// Retrier re-runs storage operations that failed on a transient
// connectivity error. Non-transient errors are returned immediately.
type Retrier struct {
	attempts uint64
	delay    time.Duration
}

// minRetryDelay stands in for a zero delay; the constant backoff rejects
// anything that is not positive.
const minRetryDelay = time.Nanosecond

// NewRetrier builds a Retrier doing at most attempts tries, delay apart.
// attempts below 1 is treated as a single try and a delay of zero or less
// retries without waiting.
func NewRetrier(attempts int, delay time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if delay < minRetryDelay {
		delay = minRetryDelay
	}
	return &Retrier{attempts: uint64(attempts), delay: delay}
}

// Do runs fn until it succeeds, fails permanently or the budget is spent.
// An exhausted budget is reported as common.ErrStorageUnavailable wrapping
// the last failure.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(r.attempts-1, retry.NewConstant(r.delay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	if IsTransient(err) {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return err
}

// IsTransient reports whether err looks like a lost or refused connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
