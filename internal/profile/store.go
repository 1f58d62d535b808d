package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists profile snapshots. Load returns an empty slice when nothing
// has been persisted yet. Save replaces the whole snapshot atomically; there
// is no partial update and no locking, the last save wins.
type Store interface {
	Load() ([]*Profile, error)
	Save(profiles []*Profile) error
}

// FileStore keeps the snapshot as a single JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]*Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Profile{}, nil
		}
		return nil, fmt.Errorf("reading profiles from %q: %w", s.path, err)
	}

	if len(data) == 0 {
		return []*Profile{}, nil
	}

	var profiles []*Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing profiles from %q: %w", s.path, err)
	}

	return profiles, nil
}

func (s *FileStore) Save(profiles []*Profile) error {
	if profiles == nil {
		profiles = []*Profile{}
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".profiles_*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot %q: %w", s.path, err)
	}

	return nil
}
