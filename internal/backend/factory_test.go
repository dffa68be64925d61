package backend

import (
	"context"
	"path/filepath"
	"testing"

	"hisob/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", GoogleSheetName: "Hisob"})
	if err != nil || cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.GoogleSheetName != "Hisob" {
		t.Fatalf("FromAppConfig = %+v, %v", cfg, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Type: MemoryBackend}, false},
		{Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{Config{Type: SQLiteBackend}, true},
		{Config{Type: SheetsBackend}, true},
		{Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil || res.Type != MemoryBackend || res.Backend == nil {
		t.Fatalf("memory backend = %+v, %v", res, err)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "hisob.db")})
	if err != nil || res.Type != SQLiteBackend {
		t.Fatalf("sqlite backend = %+v, %v", res, err)
	}
	if got, err := res.Backend.LoadAll(ctx); err != nil || len(got) != 0 {
		t.Fatalf("LoadAll = %v, %v", got, err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup error = %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: "nope"}); err == nil {
		t.Fatal("expected error for invalid type")
	}
}
