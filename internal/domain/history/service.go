package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"pricedesk/internal/core/appctx"
	"pricedesk/pkg/logger"
)

// Repository defines the interface for history persistence.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByAccount(ctx context.Context, account string, limit int) ([]*Entry, error)
}

// Service writes and reads history entries. Writes are best-effort: a failure
// is logged and never propagated to the surrounding business operation.
type Service struct {
	repo              Repository
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewService creates a history service.
func NewService(repo Repository) (*Service, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Service{
		repo:              repo,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record appends a history entry for the caller in context. Never returns an
// error: audit is not transactional with the business write.
func (s *Service) Record(ctx context.Context, kind Kind, detail string, payload any) {
	entry := &Entry{
		ID:        uuid.New().String(),
		Account:   appctx.GetAccount(ctx),
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			logger.Warn(ctx, "history payload marshal failed", "kind", kind, "error", err)
		} else {
			entry.Payload = raw
		}
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Payload) > s.compressThreshold {
		entry.PayloadCompressed = s.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		logger.Error(ctx, "history write failed", "kind", kind, "error", err)
	}
}

// List returns the caller's most recent history entries, decompressing
// payloads where needed.
func (s *Service) List(ctx context.Context, account string, limit int) ([]*Entry, error) {
	entries, err := s.repo.ListByAccount(ctx, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	for _, e := range entries {
		if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
			raw, err := s.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			e.Payload = raw
			e.PayloadCompressed = nil
			e.CompressionAlgo = CompressionNone
		}
	}

	return entries, nil
}
