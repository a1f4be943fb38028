package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ossgeo/geoparse/internal/model"
)

// DocumentProcessor geoparses one annotated document file.
type DocumentProcessor interface {
	GeoparseDocument(ctx context.Context, path string, source *model.SourceLocation) (*model.GeoparseResult, error)
}

// DocumentJob geoparses one document through the pipeline
type DocumentJob struct {
	Path      string
	Source    *model.SourceLocation
	Processor DocumentProcessor
}

// Execute runs the job. A panic in the processor fails this document
// only, never the batch.
func (j *DocumentJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &DocumentResult{
				Path:  j.Path,
				Error: fmt.Errorf("panic while processing %s: %v", j.Path, r),
			}
		}
	}()

	result, err := j.Processor.GeoparseDocument(ctx, j.Path, j.Source)
	return &DocumentResult{
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// DocumentResult is the outcome of one document job
type DocumentResult struct {
	Path   string
	Result *model.GeoparseResult
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor geoparses multiple documents concurrently
type BatchProcessor struct {
	processor   DocumentProcessor
	source      *model.SourceLocation
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor DocumentProcessor, source *model.SourceLocation, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		source:      source,
		concurrency: concurrency,
	}
}

// ProcessPaths geoparses multiple document files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&DocumentJob{
			Path:      path,
			Source:    b.source,
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	docResults := make([]*DocumentResult, len(results))
	for i, result := range results {
		docResults[i] = result.(*DocumentResult)
	}

	return docResults
}

// ProcessFile reads document paths from a list file and processes them
// concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read document list: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line).
// Empty lines and # comments are skipped; duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
