// Package offer provides the ProductOffer catalog: one supplier's price and
// display name for one item code.
package offer

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductOffer is one supplier's record for one item code.
// At most one offer exists per (supplier name, item code) pair.
type ProductOffer struct {
	ID           string              `db:"id" json:"id"`
	SupplierName string              `db:"supplier_name" json:"supplierName"`
	ItemCode     string              `db:"item_code" json:"itemCode"`
	Name         *string             `db:"name" json:"name,omitempty"`
	PriceWithTax decimal.NullDecimal `db:"price_with_tax" json:"priceWithTax"`
}

// New creates a ProductOffer with a generated ID.
func New(supplierName, itemCode string, name *string, price decimal.NullDecimal) *ProductOffer {
	return &ProductOffer{
		ID:           uuid.New().String(),
		SupplierName: supplierName,
		ItemCode:     itemCode,
		Name:         name,
		PriceWithTax: price,
	}
}

// Key returns the composite (supplier name, item code) lookup key.
func (o *ProductOffer) Key() string {
	return Key(o.SupplierName, o.ItemCode)
}

// Key builds the composite lookup key used by the per-run catalog cache
// and the within-file duplicate set.
func Key(supplierName, itemCode string) string {
	return supplierName + "|" + itemCode
}

// HasPrice reports whether the offer carries a non-null price.
func (o *ProductOffer) HasPrice() bool {
	return o.PriceWithTax.Valid
}

// PriceEqual compares two nullable prices by exact decimal value.
func PriceEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return a.Decimal.Equal(b.Decimal)
}

// NameEqual compares two optional display names.
func NameEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}
