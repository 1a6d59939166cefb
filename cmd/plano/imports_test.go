package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"plano/internal/pipeline"
)

func TestWatchImportSupersedesRunningImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plano.csv")
	if err := os.WriteFile(path, []byte("Desvio;Prazo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	firstCancelled := make(chan struct{})
	secondRan := make(chan struct{})
	job := func(ctx context.Context) pipeline.Result {
		switch calls.Add(1) {
		case 1:
			later := time.Now().Add(time.Hour)
			if err := os.Chtimes(path, later, later); err != nil {
				t.Errorf("chtimes: %v", err)
			}
			<-ctx.Done()
			close(firstCancelled)
			return pipeline.Result{Status: pipeline.StatusSuccess}
		case 2:
			close(secondRan)
		}
		return pipeline.Result{Status: pipeline.StatusEmpty}
	}

	errc := make(chan error, 1)
	go func() { errc <- watchImport(ctx, path, 5*time.Millisecond, job) }()

	select {
	case <-firstCancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("running import was not cancelled by the file change")
	}
	select {
	case <-secondRan:
	case <-time.After(5 * time.Second):
		t.Fatal("changed file was not imported again")
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("watchImport: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchImport did not stop on cancel")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 imports, got %d", got)
	}
}
