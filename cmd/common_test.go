package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestCachedTranslation(t *testing.T) {
	ctx := context.Background()
	db, err := openMemory(filepath.Join(t.TempDir(), "nested", "memory.db"))
	if err != nil {
		t.Fatalf("failed to open memory: %v", err)
	}
	defer db.Close()

	if _, found := cachedTranslation(ctx, db, "猫", "lfm2"); found {
		t.Fatal("expected a miss on an empty memory")
	}

	if err := db.SaveToMemory(ctx, "猫", "lfm2", "Cat"); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	got, found := cachedTranslation(ctx, db, "猫", "lfm2")
	if !found || got != "Cat" {
		t.Errorf("expected cached Cat, got %q (found=%v)", got, found)
	}
}

func TestCachedTranslation_LookupFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	db, err := openMemory(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("failed to open memory: %v", err)
	}
	db.Close()

	if _, found := cachedTranslation(context.Background(), db, "猫", "lfm2"); found {
		t.Error("expected a failed lookup to count as a miss")
	}
	if !strings.Contains(buf.String(), "Translation memory lookup failed") {
		t.Errorf("expected lookup failure in log, got %q", buf.String())
	}
}

func TestOpenMemory_EmptyPathDisables(t *testing.T) {
	db, err := openMemory("")
	if err != nil || db != nil {
		t.Errorf("expected nil store and no error, got %v, %v", db, err)
	}
}
