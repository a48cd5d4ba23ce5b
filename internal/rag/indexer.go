package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/verda0/verda/internal/log"
)

const (
	// collectionName is the chromem collection the corpus lives in.
	collectionName = "knowledge"

	// maxChunkSize caps a single chunk so one oversized paragraph cannot
	// blow the embedding request.
	maxChunkSize = 8 * 1024
)

// Indexer builds vector indexes from a directory of knowledge documents.
// Each Build walks the directory from scratch and returns a fresh Index, so
// the same Indexer serves both startup and later rebuilds.
type Indexer struct {
	docsDir string
	embed   chromem.EmbeddingFunc
	logger  log.Logger
}

// NewIndexer creates an Indexer reading documents from docsDir.
func NewIndexer(docsDir string, embed chromem.EmbeddingFunc, logger log.Logger) *Indexer {
	return &Indexer{docsDir: docsDir, embed: embed, logger: logger}
}

// Build walks the docs directory, chunks every markdown and text file, embeds
// the chunks and returns the resulting Index. The returned Index is complete
// and self-contained; callers publish it through a Handle.
func (ix *Indexer) Build(ctx context.Context) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, ix.embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	var docs []chromem.Document
	err = filepath.WalkDir(ix.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(ix.docsDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		for i, chunk := range splitChunks(string(content)) {
			docs = append(docs, chromem.Document{
				ID:       chunkID(rel, i, chunk),
				Content:  chunk,
				Metadata: map[string]string{"source": rel},
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking docs dir %s: %w", ix.docsDir, err)
	}

	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("adding documents: %w", err)
		}
	}

	ix.logger.Info("knowledge index built",
		"docs_dir", ix.docsDir,
		"chunks", len(docs))

	return &Index{col: col}, nil
}

// splitChunks breaks a document into paragraph chunks. Paragraphs are
// separated by blank lines; a paragraph longer than maxChunkSize is split at
// the byte limit so every chunk stays embeddable.
func splitChunks(content string) []string {
	var chunks []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > maxChunkSize {
			chunks = append(chunks, para[:maxChunkSize])
			para = para[maxChunkSize:]
		}
		chunks = append(chunks, para)
	}
	return chunks
}

// chunkID derives a stable document ID from the source file, chunk position
// and content, so unchanged corpora index to identical IDs across rebuilds.
func chunkID(source string, n int, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s#%d-%x", source, n, sum[:8])
}
