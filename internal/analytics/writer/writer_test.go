package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgbigquery "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/bigquery"
)

type fakeInserter struct {
	responses []error
	calls     int
	rows      []pkgbigquery.MarketplaceEventRow
}

func (f *fakeInserter) InsertMarketplaceEvents(_ context.Context, rows []pkgbigquery.MarketplaceEventRow) error {
	f.calls++
	f.rows = append(f.rows, rows...)
	if len(f.responses) == 0 {
		return nil
	}
	err := f.responses[0]
	f.responses = f.responses[1:]
	return err
}

func newTestWriter(t *testing.T, fake *fakeInserter) (*Writer, *[]time.Duration) {
	t.Helper()
	w, err := New(fake, RetryPolicy{MaxAttempts: 3, InitialBackoff: 10 * time.Millisecond, MaximumBackoff: 15 * time.Millisecond})
	require.NoError(t, err)
	var sleeps []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return w, &sleeps
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, RetryPolicy{})
	require.Error(t, err)
}

func TestWriteRetriesTransientErrors(t *testing.T) {
	fake := &fakeInserter{responses: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		status.Error(codes.Unavailable, "try later"),
		nil,
	}}
	w, sleeps := newTestWriter(t, fake)

	require.NoError(t, w.Write(context.Background(), pkgbigquery.MarketplaceEventRow{EventID: "evt-1"}))
	require.Equal(t, 3, fake.calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, *sleeps)
}

func TestWriteStopsOnPermanentError(t *testing.T) {
	fake := &fakeInserter{responses: []error{&googleapi.Error{Code: http.StatusBadRequest}}}
	w, sleeps := newTestWriter(t, fake)

	err := w.Write(context.Background(), pkgbigquery.MarketplaceEventRow{EventID: "evt-1"})
	require.Error(t, err)
	require.Equal(t, 1, fake.calls)
	require.Empty(t, *sleeps)
}

func TestWriteGivesUpAfterMaxAttempts(t *testing.T) {
	transient := &googleapi.Error{Code: http.StatusTooManyRequests}
	fake := &fakeInserter{responses: []error{transient, transient, transient, nil}}
	w, _ := newTestWriter(t, fake)

	err := w.Write(context.Background(), pkgbigquery.MarketplaceEventRow{EventID: "evt-1"})
	require.Error(t, err)
	require.Equal(t, 3, fake.calls)
}

func TestWriteNoRowsIsNoop(t *testing.T) {
	fake := &fakeInserter{}
	w, _ := newTestWriter(t, fake)
	require.NoError(t, w.Write(context.Background()))
	require.Zero(t, fake.calls)
}

func TestIsRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":          {nil, false},
		"503":          {&googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		"400":          {&googleapi.Error{Code: http.StatusBadRequest}, false},
		"grpc aborted": {status.Error(codes.Aborted, "x"), true},
		"grpc invalid": {status.Error(codes.InvalidArgument, "x"), false},
		"plain":        {errors.New("schema mismatch"), false},
		"deadline":     {context.DeadlineExceeded, true},
		"row errors all transient": {cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusInternalServerError}}},
		}, true},
		"row errors mixed": {cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusInternalServerError}}},
			{InsertID: "b", Errors: cbigquery.MultiError{errors.New("no such field")}},
		}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}
