package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgbigquery "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/bigquery"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// RetryPolicy bounds how long a single insert may keep retrying.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type rowInserter interface {
	InsertMarketplaceEvents(ctx context.Context, rows []pkgbigquery.MarketplaceEventRow) error
}

// Writer streams marketplace rows into BigQuery, retrying transient
// failures with doubling backoff.
type Writer struct {
	client rowInserter
	retry  RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(client rowInserter, retry RetryPolicy) (*Writer, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = max(defaultMaximumBackoff, retry.InitialBackoff)
	}
	return &Writer{client: client, retry: retry, sleep: sleepContext}, nil
}

// Write inserts rows, sleeping between attempts with a doubling backoff
// capped at MaximumBackoff. Permanent failures return after one attempt.
func (w *Writer) Write(ctx context.Context, rows ...pkgbigquery.MarketplaceEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	var err error
	wait := w.retry.InitialBackoff
	for attempt := 1; attempt <= w.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if sleepErr := w.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			wait = min(wait*2, w.retry.MaximumBackoff)
		}
		if err = w.client.InsertMarketplaceEvents(ctx, rows); err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("insert %d marketplace events: %w", len(rows), err)
	}
	return nil
}

// IsRetryable reports whether a BigQuery insert error is worth another try.
// Row errors are retryable only when every one of them is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var (
		rows   cbigquery.PutMultiError
		multi  cbigquery.MultiError
		apiErr *googleapi.Error
	)
	switch {
	case errors.As(err, &rows):
		return allRetryable[cbigquery.RowInsertionError](rows, func(r cbigquery.RowInsertionError) error { return r.Errors })
	case errors.As(err, &multi):
		return allRetryable[error](multi, func(e error) error { return e })
	case errors.As(err, &apiErr):
		return retryableHTTP[apiErr.Code]
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return retryableGRPC[st.Code()]
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func allRetryable[T any](items []T, cause func(T) error) bool {
	for _, item := range items {
		if !IsRetryable(cause(item)) {
			return false
		}
	}
	return len(items) > 0
}

var retryableHTTP = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var retryableGRPC = map[codes.Code]bool{
	codes.Aborted:           true,
	codes.DeadlineExceeded:  true,
	codes.Internal:          true,
	codes.ResourceExhausted: true,
	codes.Unavailable:       true,
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
