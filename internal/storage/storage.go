package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

// Storage writes named files into a single directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the directory files are written to
func (s *Storage) Dir() string {
	return s.dataDir
}

// Path returns the full path for a file name inside the storage directory
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, filepath.Base(name))
}

// Write atomically stores data under name
func (s *Storage) Write(name string, data []byte) error {
	return WriteFile(s.Path(name), data)
}

// File is one artifact of a WriteFiles batch
type File struct {
	Path string
	Data []byte
}

// WriteFile atomically replaces path with data, creating parent directories
func WriteFile(path string, data []byte) error {
	return WriteFiles(File{Path: path, Data: data})
}

// WriteFiles replaces every file or none of them. All contents are staged in
// temp files next to their targets first; renames start only after every
// file was staged, in the order given.
func WriteFiles(files ...File) error {
	paths := make([]string, len(files))
	staged := make([]string, 0, len(files))

	// Removes staged temp files on every failure path; a no-op after the rename
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for i, f := range files {
		path, err := expandHome(f.Path)
		if err != nil {
			return err
		}
		tmp, err := stage(path, f.Data)
		if err != nil {
			return err
		}
		paths[i] = path
		staged = append(staged, tmp)
	}

	for i, tmp := range staged {
		if err := os.Rename(tmp, paths[i]); err != nil {
			return fmt.Errorf("replacing %s: %w", paths[i], err)
		}
	}

	return nil
}

// stage writes data to a temp file in path's directory and returns its name
func stage(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	return tmp.Name(), nil
}

// MarshalEvents encodes the enriched listing as indented JSON
func MarshalEvents(events []*event.Event) ([]byte, error) {
	if events == nil {
		events = []*event.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding events: %w", err)
	}
	return data, nil
}

// LoadEvents reads a listing encoded by MarshalEvents
func LoadEvents(path string) ([]*event.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var events []*event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing events: %w", err)
	}

	return events, nil
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
