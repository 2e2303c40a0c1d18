package history

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricedesk/internal/core/appctx"
)

type fakeRepo struct {
	entries []*Entry
	failing bool
}

func (r *fakeRepo) Insert(_ context.Context, entry *Entry) error {
	if r.failing {
		return assert.AnError
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeRepo) ListByAccount(_ context.Context, account string, limit int) ([]*Entry, error) {
	var out []*Entry
	for _, e := range r.entries {
		if e.Account == account && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func callerCtx(account string) context.Context {
	return appctx.WithCaller(context.Background(), &appctx.CallerContext{Account: account})
}

func TestRecord_SmallPayloadStoredUncompressed(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	svc.Record(callerCtx("user@example.com"), KindSupplierUpload, "prices.xlsx", map[string]any{"newRecords": 3})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "user@example.com", entry.Account)
	assert.Equal(t, KindSupplierUpload, entry.Kind)
	assert.Equal(t, "prices.xlsx", entry.Detail)
	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.NotEmpty(t, entry.Payload)
	assert.Empty(t, entry.PayloadCompressed)
}

func TestRecord_LargePayloadCompressed(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	big := map[string]any{"rows": strings.Repeat("abcdefgh", 4096)}
	svc.Record(callerCtx("user@example.com"), KindPriceResolution, "requests.xlsx", big)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Empty(t, entry.Payload)
	assert.NotEmpty(t, entry.PayloadCompressed)
}

func TestRecord_InsertFailureIsSwallowed(t *testing.T) {
	repo := &fakeRepo{failing: true}
	svc, err := NewService(repo)
	require.NoError(t, err)

	// Must not panic or propagate.
	svc.Record(callerCtx("user@example.com"), KindSupplierUpload, "prices.xlsx", nil)
	assert.Empty(t, repo.entries)
}

func TestList_DecompressesPayloads(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	payload := map[string]any{"rows": strings.Repeat("abcdefgh", 4096)}
	svc.Record(callerCtx("user@example.com"), KindPriceResolution, "requests.xlsx", payload)

	entries, err := svc.List(context.Background(), "user@example.com", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.Empty(t, entry.PayloadCompressed)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &decoded))
	assert.Contains(t, decoded, "rows")
}
