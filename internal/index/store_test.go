package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *ArtifactStore {
	t.Helper()
	dir := t.TempDir()
	return NewArtifactStore(filepath.Join(dir, "kb.index"), filepath.Join(dir, "kb.chunks.json"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	f := &Flat{}
	if err := f.Build([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	chunks := []string{"visiting hours are 9am to 5pm", "the pharmacy is on the ground floor"}

	if s.Exists() {
		t.Fatal("artifacts should not exist before save")
	}
	if err := s.Save(f, chunks); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Exists() {
		t.Fatal("artifacts should exist after save")
	}

	loaded, loadedChunks, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 || loaded.Dim() != 2 {
		t.Fatalf("loaded index shape wrong: len=%d dim=%d", loaded.Len(), loaded.Dim())
	}
	if len(loadedChunks) != 2 || loadedChunks[0] != chunks[0] || loadedChunks[1] != chunks[1] {
		t.Fatalf("loaded chunks mismatch: %v", loadedChunks)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	f := &Flat{}
	if err := f.Build([][]float32{{1}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Save(f, []string{"a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.IndexPath))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("stray temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveRejectsLengthMismatch(t *testing.T) {
	s := tempStore(t)
	f := &Flat{}
	if err := f.Build([][]float32{{1, 0}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Save(f, []string{"a", "b"}); err == nil {
		t.Fatal("expected error for index/chunk length mismatch")
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	s := tempStore(t)
	if _, _, err := s.Load(); err == nil {
		t.Fatal("expected error loading missing artifacts")
	}
}

func TestLoadCorruptIndex(t *testing.T) {
	s := tempStore(t)
	f := &Flat{}
	if err := f.Build([][]float32{{1, 0}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Save(f, []string{"a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(s.IndexPath, []byte{0xde, 0xad}, 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, _, err := s.Load(); err == nil {
		t.Fatal("expected error loading corrupt index")
	}
}

func TestLoadRejectsLengthMismatch(t *testing.T) {
	s := tempStore(t)
	f := &Flat{}
	if err := f.Build([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Save(f, []string{"a", "b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(s.StorePath, []byte(`["only one"]`), 0o644); err != nil {
		t.Fatalf("rewrite chunks: %v", err)
	}
	if _, _, err := s.Load(); err == nil {
		t.Fatal("expected error when artifact lengths disagree")
	}
}
