//go:build unit

package recordstore_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/infra/recordstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemote(t *testing.T, h http.HandlerFunc, opts ...recordstore.RemoteOption) *recordstore.RemoteStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return recordstore.NewRemoteStore(srv.URL, "admin-token", time.Second, logger, opts...)
}

func TestRemoteStore_Get(t *testing.T) {
	store := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/collections/menuItem/records/m1", r.URL.Path)
		assert.Equal(t, "admin-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"m1","name":"Masala Dosa","priceMinor":12000,"tenant":["t1"]}`))
	})

	rec, err := store.Get(context.Background(), "menuItem", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Masala Dosa", rec.String("name"))
	assert.Equal(t, int64(12000), rec.Int("priceMinor"))
	assert.Equal(t, "t1", rec.RelationID("tenant"))
}

func TestRemoteStore_NotFound(t *testing.T) {
	store := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"message":"The requested resource wasn't found.","data":{}}`))
	})

	_, err := store.Get(context.Background(), "menuItem", "missing")
	assert.True(t, infra.IsNotFound(err))
}

func TestRemoteStore_ListBuildsFilter(t *testing.T) {
	store := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, `tenant ?= "t1" && code ?= "SAVE10"`, q.Get("filter"))
		assert.Equal(t, "-created", q.Get("sort"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "1", q.Get("perPage"))
		_, _ = w.Write([]byte(`{"page":1,"perPage":1,"totalItems":1,"items":[{"id":"c1","code":"SAVE10"}]}`))
	})

	rec, err := recordstore.First(context.Background(), store, "coupon", recordstore.ListOptions{
		Filter: []recordstore.Cond{recordstore.Eq("tenant", "t1"), recordstore.Eq("code", "SAVE10")},
		Sort:   "-created",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "c1", rec.ID())
}

func TestRemoteStore_CreateValidationDetails(t *testing.T) {
	store := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "placed", body["status"])

		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"message":"Failed to create record.","data":{
			"total":{"code":"validation_invalid_number","message":"Must be a valid number."},
			"location":{"code":"validation_required","message":"Missing required value."}}}`))
	})

	_, err := store.Create(context.Background(), "orders", recordstore.Record{"status": "placed"})
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindValidation))
	assert.Equal(t, "location: Missing required value.; total: Must be a valid number.", infra.DetailsOf(err))
}

func TestRemoteStore_RetriesServerErrorsOnReads(t *testing.T) {
	var calls atomic.Int32
	store := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	}, recordstore.WithMaxRetries(1))

	rec, err := store.Get(context.Background(), "tenant", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemoteStore_DoesNotResendWritesAfterTimeout(t *testing.T) {
	var creates atomic.Int32
	store := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if creates.Add(1) == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"o1"}`))
	}, recordstore.WithMaxRetries(3), recordstore.WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))

	_, err := store.Create(context.Background(), "orders", recordstore.Record{"total": 100})
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindDBFailure))
	assert.Equal(t, int32(1), creates.Load())
}

func TestRemoteStore_RetriesWritesThatNeverConnected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	var dials atomic.Int32
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials.Add(1)
			return (&net.Dialer{}).DialContext(ctx, network, addr)
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := recordstore.NewRemoteStore(target, "", time.Second, logger,
		recordstore.WithMaxRetries(2), recordstore.WithHTTPClient(&http.Client{Transport: transport, Timeout: time.Second}))

	_, err := store.Create(context.Background(), "orders", recordstore.Record{"total": 100})
	require.Error(t, err)
	assert.Equal(t, int32(3), dials.Load())
}

func TestRemoteStore_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	store := newRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, recordstore.WithMaxRetries(3))

	_, err := store.Update(context.Background(), "orders", "o1", recordstore.Record{"total": 1})
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindDBFailure))
	assert.Equal(t, int32(1), calls.Load())
}
