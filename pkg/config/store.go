package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"stagectl/pkg/errors"
)

// Store persists the motion-parameter record.
type Store interface {
	// Load returns the stored record, or Defaults() with a non-nil
	// error when no usable record exists.
	Load() (Record, error)

	// Save writes the record. Synchronous; returning nil means the
	// record is durable.
	Save(Record) error
}

// FileStore persists the record as a YAML file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the stored record. On any failure the
// built-in defaults are returned alongside the error so startup can
// proceed.
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Defaults(), errors.Wrap(err, errors.ErrConfigLoad, "read config file")
	}

	rec := Defaults()
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Defaults(), errors.Wrap(err, errors.ErrConfigLoad, "parse config file")
	}
	if err := rec.Validate(); err != nil {
		return Defaults(), err
	}
	return rec, nil
}

// Save writes the record to the backing file.
func (s *FileStore) Save(rec Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "marshal config")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.ErrConfigSave, "create config dir")
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "write config file")
	}
	return nil
}
