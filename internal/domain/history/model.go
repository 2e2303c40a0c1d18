// Package history records the outcome of each ingestion and price-resolution
// run for traceability. Entries are append-only: the core never updates or
// deletes them.
package history

import (
	"encoding/json"
	"time"
)

// Kind distinguishes the operation a history entry traces.
type Kind string

const (
	KindSupplierUpload  Kind = "supplier_upload"
	KindPriceResolution Kind = "price_resolution"
)

// CompressionAlgo specifies the payload compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Entry is one append-only history record. Payload carries the original
// uploaded rows and the computed results; large payloads are stored
// zstd-compressed.
type Entry struct {
	ID                string          `db:"id" json:"id"`
	Account           string          `db:"account" json:"account"`
	Kind              Kind            `db:"kind" json:"kind"`
	Detail            string          `db:"detail" json:"detail"`
	Payload           json.RawMessage `db:"payload" json:"payload,omitempty"`
	PayloadCompressed []byte          `db:"payload_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}
