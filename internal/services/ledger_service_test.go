package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hisob/internal/core"
	"hisob/internal/sheets/memory"
)

type memRepo struct {
	*memory.Store
	failAppend bool
	closed     bool
}

func (r *memRepo) Append(ctx context.Context, t core.Transaction) (string, error) {
	if r.failAppend {
		return "", errors.New("disk full")
	}
	ref, err := r.Store.Append(ctx, t)
	if err != nil {
		return "", err
	}
	// SQLite refs are row ids
	return ref[len("mem:"):], nil
}

func (r *memRepo) Close() error {
	r.closed = true
	return nil
}

type fakePublisher struct {
	recorded []int64
	replaced []int
	err      error
	closed   bool
}

func (p *fakePublisher) PublishTransactionRecorded(_ context.Context, id int64) error {
	p.recorded = append(p.recorded, id)
	return p.err
}

func (p *fakePublisher) PublishLedgerReplaced(_ context.Context, n int) error {
	p.replaced = append(p.replaced, n)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func tx(units int64) core.Transaction {
	return core.Transaction{
		Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:    core.Money{Units: units},
		Category:  core.CategoryOther,
	}
}

func TestRecordTransactionPublishesRowID(t *testing.T) {
	repo := &memRepo{Store: memory.New()}
	pub := &fakePublisher{}
	s := NewLedgerService(repo, pub)

	ref, err := s.RecordTransaction(context.Background(), tx(-100))
	if err != nil || ref != "1" {
		t.Fatalf("RecordTransaction = %q, %v", ref, err)
	}
	if len(pub.recorded) != 1 || pub.recorded[0] != 1 {
		t.Fatalf("published = %v", pub.recorded)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	repo := &memRepo{Store: memory.New()}
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	s := NewLedgerService(repo, pub)

	if _, err := s.RecordTransaction(context.Background(), tx(-1)); err != nil {
		t.Fatalf("RecordTransaction error = %v", err)
	}
	if err := s.ReplaceLedger(context.Background(), []core.Transaction{tx(1), tx(2)}); err != nil {
		t.Fatalf("ReplaceLedger error = %v", err)
	}
	if repo.Len() != 2 || len(pub.replaced) != 1 || pub.replaced[0] != 2 {
		t.Fatalf("store=%d replaced=%v", repo.Len(), pub.replaced)
	}
}

func TestStorageFailureIsReturned(t *testing.T) {
	repo := &memRepo{Store: memory.New(), failAppend: true}
	pub := &fakePublisher{}
	s := NewLedgerService(repo, pub)

	if _, err := s.RecordTransaction(context.Background(), tx(-1)); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.recorded) != 0 {
		t.Fatalf("nothing should be published for a failed write")
	}
}

func TestNilPublisher(t *testing.T) {
	s := NewLedgerService(&memRepo{Store: memory.New()}, nil)
	if _, err := s.RecordTransaction(context.Background(), tx(5)); err != nil {
		t.Fatalf("RecordTransaction error = %v", err)
	}
	if err := s.ReplaceLedger(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceLedger error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
}

func TestCloseClosesBoth(t *testing.T) {
	repo := &memRepo{Store: memory.New()}
	pub := &fakePublisher{}
	if err := NewLedgerService(repo, pub).Close(); err != nil {
		t.Fatal(err)
	}
	if !repo.closed || !pub.closed {
		t.Fatalf("repo closed=%v publisher closed=%v", repo.closed, pub.closed)
	}
}
