// Package pricing resolves minimum-price supplier offers for lists of
// (item code, quantity) requests.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pricedesk/internal/domain/offer"
	"pricedesk/pkg/logger"
)

// Query is one (item code, quantity) request parsed from an uploaded file.
type Query struct {
	ItemCode string
	Quantity int
}

// Valid reports whether the query should be resolved. Queries with a blank
// item code or non-positive quantity are dropped before resolution.
func (q Query) Valid() bool {
	return strings.TrimSpace(q.ItemCode) != "" && q.Quantity > 0
}

// Resolution is the outcome for one request: either the cheapest priced offer
// or a manual-processing flag when no priced offer exists.
type Resolution struct {
	ItemCode                 string           `json:"itemCode"`
	Quantity                 int              `json:"quantity"`
	ProductName              string           `json:"productName,omitempty"`
	SupplierName             string           `json:"supplierName,omitempty"`
	UnitPrice                *decimal.Decimal `json:"unitPrice,omitempty"`
	TotalPrice               *decimal.Decimal `json:"totalPrice,omitempty"`
	RequiresManualProcessing bool             `json:"requiresManualProcessing"`
	Message                  string           `json:"message"`
}

// Resolver picks the minimum-price offer per requested item code.
type Resolver struct {
	offers offer.Repository
}

// NewResolver creates a price resolver.
func NewResolver(offers offer.Repository) *Resolver {
	return &Resolver{offers: offers}
}

// Resolve fetches all competing offers for the distinct requested item codes
// with one bulk query and reduces each code to its cheapest non-null-priced
// offer. Ties on price break to the lexicographically smaller supplier name,
// keeping results deterministic. The returned list holds one entry per valid
// input query, in input order.
func (r *Resolver) Resolve(ctx context.Context, queries []Query) ([]Resolution, error) {
	valid := make([]Query, 0, len(queries))
	codeSet := make(map[string]struct{})
	for _, q := range queries {
		if !q.Valid() {
			continue
		}
		q.ItemCode = strings.TrimSpace(q.ItemCode)
		valid = append(valid, q)
		codeSet[q.ItemCode] = struct{}{}
	}

	results := make([]Resolution, 0, len(valid))
	if len(valid) == 0 {
		return results, nil
	}

	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}

	offers, err := r.offers.FindByItemCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("fetch offers: %w", err)
	}

	cheapest := reduceMin(offers)
	logger.Info(ctx, "offers fetched for resolution",
		"requested_codes", len(codes),
		"offers", len(offers),
		"resolved_codes", len(cheapest),
	)

	for _, q := range valid {
		best, ok := cheapest[q.ItemCode]
		if !ok {
			results = append(results, Resolution{
				ItemCode:                 q.ItemCode,
				Quantity:                 q.Quantity,
				RequiresManualProcessing: true,
				Message:                  "Item not found in catalog",
			})
			continue
		}

		unit := best.PriceWithTax.Decimal
		total := unit.Mul(decimal.NewFromInt(int64(q.Quantity)))
		name := ""
		if best.Name != nil {
			name = *best.Name
		}

		results = append(results, Resolution{
			ItemCode:     q.ItemCode,
			Quantity:     q.Quantity,
			ProductName:  name,
			SupplierName: best.SupplierName,
			UnitPrice:    &unit,
			TotalPrice:   &total,
			Message:      fmt.Sprintf("Supplier %s at %s per unit", best.SupplierName, unit.StringFixed(2)),
		})
	}

	return results, nil
}

// reduceMin picks the cheapest non-null-priced offer per item code. Offers
// without a price are ignored; the repository ordering is treated as a hint
// only. Equal prices break to the smaller supplier name.
func reduceMin(offers []*offer.ProductOffer) map[string]*offer.ProductOffer {
	cheapest := make(map[string]*offer.ProductOffer)
	for _, o := range offers {
		if !o.HasPrice() {
			continue
		}
		best, ok := cheapest[o.ItemCode]
		if !ok {
			cheapest[o.ItemCode] = o
			continue
		}
		switch o.PriceWithTax.Decimal.Cmp(best.PriceWithTax.Decimal) {
		case -1:
			cheapest[o.ItemCode] = o
		case 0:
			if o.SupplierName < best.SupplierName {
				cheapest[o.ItemCode] = o
			}
		}
	}
	return cheapest
}
