package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"streamlit-analytics/models"
)

var ErrNotFound = errors.New("counts file not found")

// LoadJSON reads a snapshot written by SaveJSON or by streamlit-analytics'
// save_to_json.
func LoadJSON(path string) (models.CountsSnapshot, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.CountsSnapshot{}, ErrNotFound
	}
	if err != nil {
		return models.CountsSnapshot{}, err
	}
	var snap models.CountsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.CountsSnapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if snap.Widgets == nil {
		snap.Widgets = map[string]int64{}
	}
	return snap, nil
}

// SaveJSON writes snap next to path and renames it into place, so readers
// never observe a partial file.
func SaveJSON(path string, snap models.CountsSnapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".counts-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
