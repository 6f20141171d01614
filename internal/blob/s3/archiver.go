package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// multipartThreshold is the payload size above which a ledger file is
// uploaded in parts.
const multipartThreshold = 8 * 1024 * 1024

// RoundArchiver implements domain.Archiver. It reads a resolved round's
// wagers and layoffs, serializes them to JSONL and uploads them under
//
//	archive/rounds/{product_code}/{draw_date}/wagers.jsonl
//	archive/rounds/{product_code}/{draw_date}/layoffs.jsonl
//
// Archived rows stay in the primary store.
type RoundArchiver struct {
	tx     domain.Transactor
	writer domain.BlobWriter
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiver creates a RoundArchiver. reader may be nil, in which case
// Archived reports nothing.
func NewArchiver(tx domain.Transactor, writer domain.BlobWriter, reader domain.BlobReader, logger *slog.Logger) *RoundArchiver {
	return &RoundArchiver{
		tx:     tx,
		writer: writer,
		reader: reader,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

var _ domain.Archiver = (*RoundArchiver)(nil)

// ArchiveRound uploads the ledger of a RESOLVED round and records an audit
// entry. Archiving again overwrites the previous copy, which keeps a
// recomputed round's archive current.
func (a *RoundArchiver) ArchiveRound(ctx context.Context, roundID string) (domain.ArchiveReport, error) {
	st := a.tx.Stores()

	round, err := st.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return domain.ArchiveReport{}, fmt.Errorf("s3blob: archive round: %w", err)
	}
	if round.Status != domain.RoundResolved {
		return domain.ArchiveReport{}, fmt.Errorf("s3blob: archive round %s: %w", roundID, domain.ErrRoundNotResolved)
	}
	product, err := st.Products.GetByID(ctx, round.ProductID)
	if err != nil {
		return domain.ArchiveReport{}, fmt.Errorf("s3blob: archive round product: %w", err)
	}

	wagers, err := st.Wagers.ListByRound(ctx, roundID, domain.WagerFilter{})
	if err != nil {
		return domain.ArchiveReport{}, fmt.Errorf("s3blob: archive round wagers: %w", err)
	}
	layoffs, err := st.Layoffs.ListByRound(ctx, roundID)
	if err != nil {
		return domain.ArchiveReport{}, fmt.Errorf("s3blob: archive round layoffs: %w", err)
	}

	prefix := archivePrefix(product, round)
	report := domain.ArchiveReport{
		RoundID:     roundID,
		WagerCount:  len(wagers),
		LayoffCount: len(layoffs),
	}

	wagerPath := prefix + "wagers.jsonl"
	if err := upload(ctx, a.writer, wagerPath, wagers); err != nil {
		return domain.ArchiveReport{}, err
	}
	report.Paths = append(report.Paths, wagerPath)

	if len(layoffs) > 0 {
		layoffPath := prefix + "layoffs.jsonl"
		if err := upload(ctx, a.writer, layoffPath, layoffs); err != nil {
			return domain.ArchiveReport{}, err
		}
		report.Paths = append(report.Paths, layoffPath)
	}

	if err := st.Audit.Log(ctx, "round.archived", map[string]any{
		"round_id": roundID,
		"paths":    report.Paths,
		"wagers":   report.WagerCount,
		"layoffs":  report.LayoffCount,
	}); err != nil {
		return report, fmt.Errorf("s3blob: archive round audit log: %w", err)
	}

	a.logger.InfoContext(ctx, "archiver: round archived",
		slog.String("round_id", roundID),
		slog.Int("wagers", report.WagerCount),
		slog.Int("layoffs", report.LayoffCount),
	)
	return report, nil
}

// Archived lists the objects stored for a round.
func (a *RoundArchiver) Archived(ctx context.Context, roundID string) ([]domain.BlobInfo, error) {
	if a.reader == nil {
		return nil, nil
	}
	st := a.tx.Stores()
	round, err := st.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("s3blob: archived round: %w", err)
	}
	product, err := st.Products.GetByID(ctx, round.ProductID)
	if err != nil {
		return nil, fmt.Errorf("s3blob: archived round product: %w", err)
	}
	return a.reader.List(ctx, archivePrefix(product, round))
}

func upload[T any](ctx context.Context, w domain.BlobWriter, path string, records []T) error {
	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("s3blob: archive marshal %s: %w", path, err)
	}
	if len(buf) > multipartThreshold {
		err = w.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = w.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
	}
	if err != nil {
		return fmt.Errorf("s3blob: archive upload %s: %w", path, err)
	}
	return nil
}

func archivePrefix(p domain.Product, r domain.Round) string {
	return fmt.Sprintf("archive/rounds/%s/%s/", p.Code, r.DrawDate.Format(domain.DateLayout))
}

// marshalJSONL encodes records as one JSON document per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
