package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/store/memory"
)

type fakeWriter struct {
	objects map[string][]byte
	parts   int
}

func (w *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.objects[path] = b
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	w.parts++
	return w.Put(ctx, path, data, "")
}

type fakeReader struct{ prefix string }

func (r *fakeReader) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	r.prefix = prefix
	return []domain.BlobInfo{{Path: prefix + "wagers.jsonl", Size: 10}}, nil
}

func seedRound(t *testing.T, db *memory.DB, resolved bool) domain.Round {
	t.Helper()
	ctx := context.Background()
	st := db.Stores()
	now := time.Now().UTC()

	p := domain.Product{ID: "p1", Code: "GOV", Name: "Government", Active: true, CreatedAt: now}
	if err := st.Products.Create(ctx, p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	date, _ := domain.ParseDrawDate("2026-01-16")
	r := domain.Round{ID: "r1", ProductID: p.ID, DrawDate: date, Status: domain.RoundAccepting, CreatedAt: now}
	if err := st.Rounds.Create(ctx, r); err != nil {
		t.Fatalf("create round: %v", err)
	}
	wagers := []domain.Wager{
		{ID: "w1", RoundID: r.ID, AgentID: "a1", Number: "123", BetKind: domain.BetThreeTop, Stake: decimal.NewFromInt(10), NetStake: decimal.NewFromInt(10), Status: domain.WagerWon},
		{ID: "w2", RoundID: r.ID, AgentID: "a1", Number: "45", BetKind: domain.BetTwoBottom, Stake: decimal.NewFromInt(5), NetStake: decimal.NewFromInt(5), Status: domain.WagerLost},
	}
	if err := st.Wagers.CreateBatch(ctx, domain.WagerBatch{}, wagers); err != nil {
		t.Fatalf("create wagers: %v", err)
	}
	if resolved {
		if err := st.Rounds.SetResult(ctx, r.ID, domain.DrawResult{ThreeTop: "123", TwoTop: "23", TwoBottom: "45"}, now); err != nil {
			t.Fatalf("set result: %v", err)
		}
	}
	return r
}

func TestArchiveRound(t *testing.T) {
	db := memory.New()
	r := seedRound(t, db, true)
	w := &fakeWriter{objects: map[string][]byte{}}
	a := NewArchiver(db, w, nil, slog.New(slog.DiscardHandler))

	report, err := a.ArchiveRound(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("ArchiveRound: %v", err)
	}
	if report.WagerCount != 2 || report.LayoffCount != 0 {
		t.Errorf("counts = %d/%d, want 2/0", report.WagerCount, report.LayoffCount)
	}

	const path = "archive/rounds/GOV/2026-01-16/wagers.jsonl"
	if len(report.Paths) != 1 || report.Paths[0] != path {
		t.Fatalf("paths = %v, want [%s]", report.Paths, path)
	}
	lines := bytes.Split(bytes.TrimSpace(w.objects[path]), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d jsonl lines, want 2", len(lines))
	}
	if !strings.Contains(string(lines[0]), `"id":"w1"`) {
		t.Errorf("first line = %s, want wager w1", lines[0])
	}
	if w.parts != 0 {
		t.Errorf("small file used multipart upload")
	}

	entries, err := db.Stores().Audit.List(context.Background(), domain.ListOpts{})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(entries) != 1 || entries[0].Event != "round.archived" {
		t.Errorf("audit entries = %+v, want one round.archived", entries)
	}
}

func TestArchiveRoundRequiresResolved(t *testing.T) {
	db := memory.New()
	r := seedRound(t, db, false)
	a := NewArchiver(db, &fakeWriter{objects: map[string][]byte{}}, nil, slog.New(slog.DiscardHandler))

	_, err := a.ArchiveRound(context.Background(), r.ID)
	if !errors.Is(err, domain.ErrRoundNotResolved) {
		t.Fatalf("err = %v, want ErrRoundNotResolved", err)
	}
	if _, err := a.ArchiveRound(context.Background(), "missing"); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("err = %v, want ErrRoundNotFound", err)
	}
}

func TestArchived(t *testing.T) {
	db := memory.New()
	r := seedRound(t, db, true)
	rd := &fakeReader{}
	a := NewArchiver(db, &fakeWriter{objects: map[string][]byte{}}, rd, slog.New(slog.DiscardHandler))

	infos, err := a.Archived(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Archived: %v", err)
	}
	if rd.prefix != "archive/rounds/GOV/2026-01-16/" {
		t.Errorf("prefix = %q", rd.prefix)
	}
	if len(infos) != 1 {
		t.Errorf("got %d objects, want 1", len(infos))
	}
}

func TestMarshalJSONL(t *testing.T) {
	got, err := marshalJSONL([]map[string]string{{"a": "<b>"}, {"c": "d"}})
	if err != nil {
		t.Fatalf("marshalJSONL: %v", err)
	}
	want := "{\"a\":\"<b>\"}\n{\"c\":\"d\"}\n"
	if string(got) != want {
		t.Errorf("marshalJSONL = %q, want %q", got, want)
	}
}
