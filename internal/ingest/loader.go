// Package ingest loads the source document corpus, chunks it, and
// indexes it into the vector store.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxFileSize is the largest source file the loader will read (2 MB).
const MaxFileSize int64 = 2 << 20

// Document is one source file from the corpus.
type Document struct {
	Source      string // Base file name, used as the citation source label.
	RelPath     string // Path relative to the corpus root.
	Content     string
	ContentHash string // SHA-256 hex digest of the content.
}

// LoadCorpus reads every file under root that matches the include
// globs and none of the exclude globs. A missing root or an empty
// corpus is an error: without documents there is nothing to answer
// from.
func LoadCorpus(root string, include, exclude []string) ([]Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("docs directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path %s is not a directory", root)
	}

	var docs []Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip unreadable entries instead of aborting.
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(include, rel) || matchesAny(exclude, rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil || fi.Size() > MaxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		sum := sha256.Sum256(content)
		docs = append(docs, Document{
			Source:      filepath.Base(path),
			RelPath:     rel,
			Content:     string(content),
			ContentHash: hex.EncodeToString(sum[:]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found in %s matching %v", root, include)
	}
	return docs, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
