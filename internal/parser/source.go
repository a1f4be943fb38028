// Package parser turns annotated document files into the mention model
// the disambiguation engine consumes. Each supported annotation format
// implements Source; the format is chosen by name from configuration,
// not by sniffing.
package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/ossgeo/geoparse/internal/model"
)

// Source produces mentions from one annotated document.
type Source interface {
	// Name returns the format name
	Name() string

	// Parse reads an annotated document and returns one Mention per
	// unique toponym
	Parse(r io.Reader) ([]model.Mention, error)
}

// NewSource creates a source for the named format.
func NewSource(format string) (Source, error) {
	switch format {
	case "toponym", "":
		return NewToponymSource(2, 500), nil
	case "inline":
		return NewInlineSource(100), nil
	default:
		return nil, fmt.Errorf("unknown document format: %s (supported: toponym, inline)", format)
	}
}

// ParseFile parses one document file with the given source.
func ParseFile(src Source, path string) ([]model.Mention, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	mentions, err := src.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return mentions, nil
}
