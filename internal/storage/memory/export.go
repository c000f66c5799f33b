package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ProjectAether/navlink/pkg/core"
)

// Export is the root JSON structure written on close.
type Export struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Count      int               `json:"count"`
	Links      []core.LinkRecord `json:"links"`
}

// ReadExport decodes a file written by the memory backend, gzipped or not.
func ReadExport(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Export{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}

// exportJSON writes the links to navlinks_<timestamp>.json[.gz]. Callers hold mu.
func (b *Backend) exportJSON() error {
	now := b.now().UTC()
	links := b.sorted()
	export := Export{ExportedAt: now, Count: len(links), Links: links}

	filename := fmt.Sprintf("navlinks_%s.json", now.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if b.cfg.CompressOutput {
		gz = gzip.NewWriter(f)
		w = gz
	}
	if err := json.NewEncoder(w).Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to close gzip stream: %w", err)
		}
	}

	b.lastExportPath = outputPath
	return nil
}
