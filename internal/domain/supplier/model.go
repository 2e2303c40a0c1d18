// Package supplier provides the Supplier catalog. A supplier is identified by
// its unique name and is created lazily the first time it appears in any
// ingested file.
package supplier

import "time"

// Supplier is a product data provider. Name acts as the primary key.
type Supplier struct {
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
