package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCorpusMatchesIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "policy.md", "leave policy")
	writeFile(t, root, "guides/onboarding.md", "onboarding guide")
	writeFile(t, root, "notes.txt", "some notes")
	writeFile(t, root, "image.png", "not text")

	docs, err := LoadCorpus(root, []string{"**/*.md", "**/*.txt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	byRel := map[string]Document{}
	for _, d := range docs {
		byRel[d.RelPath] = d
	}
	if _, ok := byRel["guides/onboarding.md"]; !ok {
		t.Error("nested markdown file not loaded")
	}
	if _, ok := byRel["image.png"]; ok {
		t.Error("non-matching file loaded")
	}
	if doc := byRel["policy.md"]; doc.Source != "policy.md" || doc.Content != "leave policy" {
		t.Errorf("got %+v", doc)
	}
	if byRel["policy.md"].ContentHash == "" {
		t.Error("content hash missing")
	}
}

func TestLoadCorpusAppliesExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", "keep")
	writeFile(t, root, "skip.md", "skip")

	docs, err := LoadCorpus(root, []string{"**/*.md"}, []string{"**/skip.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].RelPath != "keep.md" {
		t.Errorf("got %+v", docs)
	}
}

func TestLoadCorpusSkipsDotDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "visible.md", "visible")
	writeFile(t, root, ".git/hidden.md", "hidden")

	docs, err := LoadCorpus(root, []string{"**/*.md"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].RelPath != "visible.md" {
		t.Errorf("got %+v", docs)
	}
}

func TestLoadCorpusMissingRoot(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "absent"), []string{"**/*.md"}, nil)
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestLoadCorpusEmptyCorpusIsError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.bin", "binary")

	_, err := LoadCorpus(root, []string{"**/*.md"}, nil)
	if err == nil {
		t.Error("expected error when nothing matches")
	}
}
