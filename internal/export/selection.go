// Package export writes the current selection to a JSON file on request.
// Nothing reads these files back.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/jask/artview/internal/catalog"
)

// Document is the on-disk shape of an export.
type Document struct {
	ExportedAt time.Time        `json:"exported_at"`
	Count      int              `json:"count"`
	Artworks   []catalog.Record `json:"artworks"`
}

// FileName returns the export file name for t.
func FileName(t time.Time) string {
	return "selection-" + t.UTC().Format("20060102-150405") + ".json"
}

// WriteSelection writes records to dir and returns the file path. The file
// is written to a temp name first and renamed into place.
func WriteSelection(dir string, records []catalog.Record, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}
	if records == nil {
		records = []catalog.Record{}
	}
	data, err := gojson.MarshalIndent(Document{ExportedAt: now.UTC(), Count: len(records), Artworks: records}, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(now))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}
