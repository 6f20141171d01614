package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// BlobReader lists stored objects.
type BlobReader interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// ArchiveReport describes one archived round.
type ArchiveReport struct {
	RoundID     string   `json:"round_id"`
	Paths       []string `json:"paths"`
	WagerCount  int      `json:"wager_count"`
	LayoffCount int      `json:"layoff_count"`
}

// Archiver copies a resolved round's ledger to cold storage.
type Archiver interface {
	ArchiveRound(ctx context.Context, roundID string) (ArchiveReport, error)
	Archived(ctx context.Context, roundID string) ([]BlobInfo, error)
}
