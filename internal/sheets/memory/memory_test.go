package memory

import (
	"context"
	"testing"
	"time"

	"hisob/internal/core"
)

func tx(units int64, note string) core.Transaction {
	return core.Transaction{
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Amount:    core.Money{Units: units},
		Note:      note,
		Category:  core.CategoryOther,
	}
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	s := New()
	ref, err := s.Append(context.Background(), tx(-100, "a"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, err = s.Append(context.Background(), tx(200, "b"))
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	got, err := s.LoadAll(context.Background())
	if err != nil || len(got) != 2 || got[0].Note != "a" || got[1].Note != "b" {
		t.Fatalf("unexpected load: %v err=%v", got, err)
	}

	// returned slice is a copy
	got[0].Note = "changed"
	again, _ := s.LoadAll(context.Background())
	if again[0].Note != "a" {
		t.Fatalf("LoadAll leaked internal state")
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), tx(0, "zero")); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if s.Len() != 0 {
		t.Fatalf("invalid record was stored")
	}
}

func TestMemoryStoreOverwriteAll(t *testing.T) {
	s := New(tx(-1, "old"), tx(-2, "old"))
	if err := s.OverwriteAll(context.Background(), []core.Transaction{tx(5, "new")}); err != nil {
		t.Fatalf("OverwriteAll error = %v", err)
	}
	got, _ := s.LoadAll(context.Background())
	if len(got) != 1 || got[0].Note != "new" {
		t.Fatalf("unexpected contents after overwrite: %v", got)
	}

	err := s.OverwriteAll(context.Background(), []core.Transaction{tx(1, "ok"), tx(0, "bad")})
	if err == nil {
		t.Fatalf("expected error for invalid record")
	}
	if got, _ := s.LoadAll(context.Background()); len(got) != 1 || got[0].Note != "new" {
		t.Fatalf("failed overwrite changed contents: %v", got)
	}
}
