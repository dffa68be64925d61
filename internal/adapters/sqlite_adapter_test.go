package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hisob/internal/core"
	"hisob/internal/services"
	"hisob/internal/storage"
)

func TestSQLiteAdapterRoundTrip(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "hisob.db"))
	if err != nil {
		t.Fatal(err)
	}
	svc := services.NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	a := NewSQLiteAdapter(repo, svc)
	ctx := context.Background()

	tx := core.Transaction{
		Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:    core.Money{Units: -20000},
		Note:      "kofe",
		Category:  core.CategoryFood,
	}
	ref, err := a.Append(ctx, tx)
	if err != nil || ref != "1" {
		t.Fatalf("Append = %q, %v", ref, err)
	}
	got, err := a.LoadAll(ctx)
	if err != nil || len(got) != 1 || got[0].Note != "kofe" {
		t.Fatalf("LoadAll = %+v, %v", got, err)
	}

	if err := a.OverwriteAll(ctx, nil); err != nil {
		t.Fatalf("OverwriteAll error = %v", err)
	}
	if got, _ := a.LoadAll(ctx); len(got) != 0 {
		t.Fatalf("LoadAll after overwrite = %+v", got)
	}
}
