package book

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestArtifactStore_WriteAndManifest(t *testing.T) {
	root := t.TempDir()
	s := NewArtifactStore(root)

	if err := s.WriteChapterFile(1, "chapter.md", []byte("chapter one text")); err != nil {
		t.Fatalf("write chapter: %v", err)
	}
	if err := s.WriteChapterFile(12, "verdict.json", []byte(`{"passed":true}`)); err != nil {
		t.Fatalf("write verdict: %v", err)
	}
	if err := s.WriteRunFile("book.md", []byte("# Book")); err != nil {
		t.Fatalf("write run file: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "chapters", "chapter-01", "chapter.md"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "chapter one text" {
		t.Fatalf("content: %q", got)
	}

	if err := s.WriteManifest(); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(root, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var doc struct {
		Artifacts []ManifestEntry `json:"artifacts"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(doc.Artifacts) != 3 {
		t.Fatalf("manifest entries: %+v", doc.Artifacts)
	}
	// Entries are path-sorted and carry sizes and digests.
	paths := make([]string, len(doc.Artifacts))
	for i, e := range doc.Artifacts {
		paths[i] = e.Path
		if e.Bytes <= 0 || len(e.Blake3) != 64 {
			t.Fatalf("entry %+v", e)
		}
	}
	want := []string{"book.md", "chapters/chapter-01/chapter.md", "chapters/chapter-12/verdict.json"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("manifest order: %v", paths)
	}
}

func TestArtifactStore_RewriteUpdatesDigest(t *testing.T) {
	s := NewArtifactStore(t.TempDir())
	if err := s.WriteRunFile("final.json", []byte("v1")); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := s.entries["final.json"].Blake3
	if err := s.WriteRunFile("final.json", []byte("v2 longer")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second := s.entries["final.json"]
	if second.Blake3 == first {
		t.Fatalf("digest not updated on rewrite")
	}
	if second.Bytes != len("v2 longer") {
		t.Fatalf("size not updated: %+v", second)
	}
}

func TestArtifactStore_ListChapterArtifacts(t *testing.T) {
	s := NewArtifactStore(t.TempDir())
	for _, ch := range []int{2, 1} {
		if err := s.WriteChapterFile(ch, "chapter.md", []byte("text")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := s.WriteChapterFile(ch, "verdict.json", []byte("{}")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	got, err := s.ListChapterArtifacts("chapters/**/*.md")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	want := []string{"chapters/chapter-01/chapter.md", "chapters/chapter-02/chapter.md"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("glob result: %v", got)
	}
}
