package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"hisob/internal/log"
)

func TestShutdownRunsCleanup(t *testing.T) {
	ran := false
	Shutdown(log.Default(), time.Second, func(context.Context) { ran = true })
	if !ran {
		t.Fatalf("cleanup did not run")
	}
}

func TestShutdownGivesUpAfterTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	Shutdown(log.Default(), 20*time.Millisecond, func(ctx context.Context) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
	})
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("Shutdown waited for a stuck cleanup")
	}
}

func TestInitSQLite(t *testing.T) {
	repo := InitSQLite(log.Default(), t.TempDir()+"/hisob.db")
	defer repo.Close()
	if n, err := repo.Count(context.Background()); err != nil || n != 0 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestSetupLoggerReadsLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	l := SetupLogger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug level not enabled")
	}
}
