package dict

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

// FileLoader reads dictionary records from a JSON file. The file is a flat
// array of {term, category, confidence, components?, tags?} objects as
// produced by the dictionary administration tooling.
type FileLoader struct {
	Path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) LoadSnapshot() ([]model.DictionaryEntry, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file '%s': %w", l.Path, err)
	}

	var entries []model.DictionaryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file '%s': %w", l.Path, err)
	}

	for i := range entries {
		if entries[i].Confidence <= 0 || entries[i].Confidence > 1 {
			entries[i].Confidence = 1.0
		}
	}
	return entries, nil
}

// StaticLoader serves a fixed set of entries; used in tests and as a seed
// dictionary when no file is configured.
type StaticLoader struct {
	Entries []model.DictionaryEntry
}

func (l *StaticLoader) LoadSnapshot() ([]model.DictionaryEntry, error) {
	return l.Entries, nil
}
