package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/supplier"
)

// fakeSupplierRepo tracks inserted names in memory.
type fakeSupplierRepo struct {
	existing map[string]struct{}
	inserts  int
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{existing: make(map[string]struct{})}
}

func (r *fakeSupplierRepo) FindNames(_ context.Context, names []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for _, n := range names {
		if _, ok := r.existing[n]; ok {
			found[n] = struct{}{}
		}
	}
	return found, nil
}

func (r *fakeSupplierRepo) InsertBulk(_ context.Context, names []string) error {
	r.inserts++
	for _, n := range names {
		r.existing[n] = struct{}{}
	}
	return nil
}

// fakeOfferRepo keeps offers keyed by (supplier, item code) and counts flushes.
type fakeOfferRepo struct {
	byKey       map[string]*offer.ProductOffer
	saveCalls   int
	failOnSave  bool
	lastInserts int
	lastUpdates int
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{byKey: make(map[string]*offer.ProductOffer)}
}

func (r *fakeOfferRepo) FindBySupplierNames(_ context.Context, supplierNames []string) ([]*offer.ProductOffer, error) {
	want := make(map[string]struct{}, len(supplierNames))
	for _, n := range supplierNames {
		want[n] = struct{}{}
	}
	var out []*offer.ProductOffer
	for _, o := range r.byKey {
		if _, ok := want[o.SupplierName]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) FindByItemCodes(_ context.Context, _ []string) ([]*offer.ProductOffer, error) {
	return nil, nil
}

func (r *fakeOfferRepo) SaveBatch(_ context.Context, inserts, updates []*offer.ProductOffer) error {
	if r.failOnSave {
		return errors.New("save failed")
	}
	r.saveCalls++
	r.lastInserts = len(inserts)
	r.lastUpdates = len(updates)
	for _, o := range inserts {
		r.byKey[o.Key()] = o
	}
	for _, o := range updates {
		r.byKey[o.Key()] = o
	}
	return nil
}

func (r *fakeOfferRepo) ListPage(_ context.Context, _, _ int) ([]*offer.ProductOffer, error) {
	return nil, nil
}

func (r *fakeOfferRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byKey)), nil
}

func price(s string) decimal.NullDecimal {
	d, _ := decimal.NewFromString(s)
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func strPtr(s string) *string { return &s }

func newTestEngine(offers offer.Repository, batchSize int) *Engine {
	return NewEngine(supplier.NewService(newFakeSupplierRepo()), offers, Config{BatchSize: batchSize})
}

func TestRun_NewAndDuplicateRows(t *testing.T) {
	offers := newFakeOfferRepo()
	engine := newTestEngine(offers, 0)

	rows := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", Name: strPtr("Widget"), PriceWithTax: price("10.50")},
		{Index: 2, SupplierName: "Acme", ItemCode: "200", Name: strPtr("Gadget"), PriceWithTax: price("4.00")},
		// Same key as row 1 with a different price: first occurrence wins.
		{Index: 3, SupplierName: "Acme", ItemCode: "100", Name: strPtr("Widget"), PriceWithTax: price("99.99")},
	}

	summary, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NewRecords)
	assert.Equal(t, 1, summary.DuplicateRecords)
	assert.Equal(t, 0, summary.UpdatedRecords)
	assert.Equal(t, 2, summary.ProcessedRecords)
	assert.True(t, summary.Success)

	stored := offers.byKey[offer.Key("Acme", "100")]
	require.NotNil(t, stored)
	assert.True(t, stored.PriceWithTax.Decimal.Equal(price("10.50").Decimal))
}

func TestRun_UnchangedRowsSkipWrites(t *testing.T) {
	offers := newFakeOfferRepo()
	engine := newTestEngine(offers, 0)

	rows := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", Name: strPtr("Widget"), PriceWithTax: price("10.50")},
	}
	_, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, 1, offers.saveCalls)

	// Second run with identical content: no batch is flushed at all.
	summary, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UnchangedRecords)
	assert.Equal(t, 0, summary.NewRecords)
	assert.Equal(t, 0, summary.UpdatedRecords)
	assert.Equal(t, 1, offers.saveCalls)
}

func TestRun_ChangedPriceUpdatesInPlace(t *testing.T) {
	offers := newFakeOfferRepo()
	engine := newTestEngine(offers, 0)

	first := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", Name: strPtr("Widget"), PriceWithTax: price("10.50")},
		{Index: 2, SupplierName: "Acme", ItemCode: "200", Name: strPtr("Gadget"), PriceWithTax: price("4.00")},
	}
	_, err := engine.Run(context.Background(), first)
	require.NoError(t, err)

	originalID := offers.byKey[offer.Key("Acme", "100")].ID

	second := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", Name: strPtr("Widget"), PriceWithTax: price("11.00")},
		{Index: 2, SupplierName: "Acme", ItemCode: "200", Name: strPtr("Gadget"), PriceWithTax: price("4.00")},
	}
	summary, err := engine.Run(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UpdatedRecords)
	assert.Equal(t, 1, summary.UnchangedRecords)
	assert.Equal(t, 0, summary.NewRecords)

	updated := offers.byKey[offer.Key("Acme", "100")]
	assert.Equal(t, originalID, updated.ID)
	assert.True(t, updated.PriceWithTax.Decimal.Equal(price("11.00").Decimal))
}

func TestRun_FailedRowsAreCountedNotFatal(t *testing.T) {
	offers := newFakeOfferRepo()
	engine := newTestEngine(offers, 0)

	rows := []Row{
		{Index: 1, Err: errors.New("row 2: supplier name or item code missing")},
		{Index: 2, SupplierName: "Acme", ItemCode: "", PriceWithTax: price("1.00")},
		{Index: 3, SupplierName: "Acme", ItemCode: "100", PriceWithTax: price("1.00")},
	}

	summary, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FailedRecords)
	assert.Equal(t, 1, summary.NewRecords)
	assert.True(t, summary.Success)
}

func TestRun_SupplierOnFailedRowStillCreated(t *testing.T) {
	suppliers := newFakeSupplierRepo()
	offers := newFakeOfferRepo()
	engine := NewEngine(supplier.NewService(suppliers), offers, Config{})

	rows := []Row{
		// Missing item code fails the row, but the supplier name still counts.
		{Index: 1, SupplierName: "Orphan", ItemCode: "", Err: errors.New("row 2: supplier name or item code missing")},
		{Index: 2, SupplierName: "Acme", ItemCode: "100", PriceWithTax: price("1.00")},
	}

	summary, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.NewRecords)
	assert.Equal(t, 1, summary.FailedRecords)
	assert.Contains(t, suppliers.existing, "Orphan")
	assert.Contains(t, suppliers.existing, "Acme")
}

func TestRun_FlushesInBatches(t *testing.T) {
	offers := newFakeOfferRepo()
	engine := newTestEngine(offers, 2)

	rows := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", PriceWithTax: price("1.00")},
		{Index: 2, SupplierName: "Acme", ItemCode: "200", PriceWithTax: price("2.00")},
		{Index: 3, SupplierName: "Acme", ItemCode: "300", PriceWithTax: price("3.00")},
	}

	summary, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.NewRecords)
	assert.Equal(t, 2, offers.saveCalls)
	assert.Equal(t, 1, offers.lastInserts)
}

func TestRun_PersistenceFailurePropagates(t *testing.T) {
	offers := newFakeOfferRepo()
	offers.failOnSave = true
	engine := newTestEngine(offers, 0)

	rows := []Row{
		{Index: 1, SupplierName: "Acme", ItemCode: "100", PriceWithTax: price("1.00")},
	}

	_, err := engine.Run(context.Background(), rows)
	assert.Error(t, err)
}

func TestSummary_Message(t *testing.T) {
	s := &Summary{NewRecords: 3, UpdatedRecords: 2, UnchangedRecords: 1, DuplicateRecords: 4, FailedRecords: 5, ElapsedMs: 120}
	s.buildMessage()

	assert.Equal(t, 5, s.ProcessedRecords)
	assert.Equal(t, "Added: 3, updated: 2, unchanged: 1, duplicates skipped: 4, failed: 5. Took 120 ms", s.Message)
}
