// Package storage provides persistence for the post collection.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrCorruptState indicates the posts file exists but cannot be decoded.
	ErrCorruptState = errors.New("corrupt posts file")

	// ErrPersistence indicates the posts file could not be written.
	ErrPersistence = errors.New("failed to persist posts")
)

// Post is a single blog post as it is stored on disk.
type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// JSONStore manages post persistence in a single JSON file.
type JSONStore struct {
	filepath string
}

// NewJSONStore creates a new JSON store at the specified file path.
func NewJSONStore(filepath string) *JSONStore {
	return &JSONStore{filepath: filepath}
}

// Path returns the posts file path.
func (s *JSONStore) Path() string {
	return s.filepath
}

// Load reads the post collection from the JSON file.
// A missing file yields an empty collection.
func (s *JSONStore) Load() ([]Post, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(s.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Post{}, nil
		}
		return nil, err
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptState, s.filepath, err)
	}
	if posts == nil {
		posts = []Post{}
	}

	return posts, nil
}

// Save overwrites the JSON file with the full post collection.
func (s *JSONStore) Save(posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// #nosec G306 -- posts are served publicly anyway
	if err := os.WriteFile(s.filepath, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}
