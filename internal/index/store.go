package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists a Flat index and its parallel chunk list as one
// logical unit. The two files stand or fall together: Load rejects a pair
// whose lengths disagree, and Save renames both files only after both
// temporary writes succeed so a crash cannot leave one artifact updated and
// the other stale.
type ArtifactStore struct {
	IndexPath string
	StorePath string
}

func NewArtifactStore(indexPath, storePath string) *ArtifactStore {
	return &ArtifactStore{IndexPath: indexPath, StorePath: storePath}
}

// Exists reports whether both artifacts are present on disk.
func (s *ArtifactStore) Exists() bool {
	if _, err := os.Stat(s.IndexPath); err != nil {
		return false
	}
	if _, err := os.Stat(s.StorePath); err != nil {
		return false
	}
	return true
}

// Save writes both artifacts atomically.
func (s *ArtifactStore) Save(f *Flat, chunks []string) error {
	if f.Len() != len(chunks) {
		return fmt.Errorf("artifact store: index has %d vectors but %d chunks", f.Len(), len(chunks))
	}
	if err := os.MkdirAll(filepath.Dir(s.IndexPath), 0o755); err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.StorePath), 0o755); err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	indexData, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("artifact store: marshal index: %w", err)
	}
	chunkData, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("artifact store: marshal chunks: %w", err)
	}

	indexTmp := s.IndexPath + ".tmp"
	storeTmp := s.StorePath + ".tmp"
	if err := os.WriteFile(indexTmp, indexData, 0o644); err != nil {
		return fmt.Errorf("artifact store: write index: %w", err)
	}
	if err := os.WriteFile(storeTmp, chunkData, 0o644); err != nil {
		os.Remove(indexTmp)
		return fmt.Errorf("artifact store: write chunks: %w", err)
	}
	if err := os.Rename(indexTmp, s.IndexPath); err != nil {
		os.Remove(indexTmp)
		os.Remove(storeTmp)
		return fmt.Errorf("artifact store: %w", err)
	}
	if err := os.Rename(storeTmp, s.StorePath); err != nil {
		os.Remove(storeTmp)
		return fmt.Errorf("artifact store: %w", err)
	}
	return nil
}

// Load restores the index and chunk list. Any missing, unreadable, corrupt
// or mismatched artifact is an error; the caller's recovery is a full
// rebuild from the knowledge document.
func (s *ArtifactStore) Load() (*Flat, []string, error) {
	indexData, err := os.ReadFile(s.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact store: read index: %w", err)
	}
	chunkData, err := os.ReadFile(s.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact store: read chunks: %w", err)
	}

	f := &Flat{}
	if err := f.UnmarshalBinary(indexData); err != nil {
		return nil, nil, err
	}
	var chunks []string
	if err := json.Unmarshal(chunkData, &chunks); err != nil {
		return nil, nil, fmt.Errorf("artifact store: parse chunks: %w", err)
	}
	if f.Len() != len(chunks) {
		return nil, nil, fmt.Errorf("artifact store: index has %d vectors but %d chunks", f.Len(), len(chunks))
	}
	return f, chunks, nil
}
