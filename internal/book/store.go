package book

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"
)

// ArtifactStore persists per-chapter artifacts under the run directory and
// keeps a digest manifest so downstream tooling can detect tampered or
// truncated artifacts.
type ArtifactStore struct {
	Root string

	entries map[string]ManifestEntry
}

type ManifestEntry struct {
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Blake3 string `json:"blake3"`
}

func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{Root: root, entries: map[string]ManifestEntry{}}
}

func chapterDir(n int) string {
	return fmt.Sprintf("chapters/chapter-%02d", n)
}

// WriteChapterFile stores one artifact for a chapter and records its digest.
func (s *ArtifactStore) WriteChapterFile(chapter int, name string, data []byte) error {
	rel := filepath.Join(chapterDir(chapter), name)
	return s.writeFile(rel, data)
}

// WriteRunFile stores a run-level artifact (book.md, final.json, ...).
func (s *ArtifactStore) WriteRunFile(name string, data []byte) error {
	return s.writeFile(name, data)
}

func (s *ArtifactStore) writeFile(rel string, data []byte) error {
	abs := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return err
	}
	sum := blake3.Sum256(data)
	s.entries[rel] = ManifestEntry{
		Path:   filepath.ToSlash(rel),
		Bytes:  len(data),
		Blake3: hex.EncodeToString(sum[:]),
	}
	return nil
}

// WriteManifest persists the digest manifest. Entries are sorted by path so
// the file is stable across runs with identical content.
func (s *ArtifactStore) WriteManifest() error {
	list := make([]ManifestEntry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	b, err := json.MarshalIndent(map[string]any{"artifacts": list}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Root, "manifest.json"), b, 0o644)
}

// ListChapterArtifacts globs stored chapter artifacts, e.g. "chapters/**/*.md".
func (s *ArtifactStore) ListChapterArtifacts(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.Root), pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
