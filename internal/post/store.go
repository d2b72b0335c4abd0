// Package post holds the authoritative post collection and keeps the posts
// file in sync with it after every mutation.
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/yourusername/flatblog/internal/storage"
)

var (
	// ErrNotFound indicates no post has the requested id.
	ErrNotFound = errors.New("post not found")

	// ErrInvalidInput indicates an empty title or content.
	ErrInvalidInput = errors.New("invalid input")
)

// Post is the domain representation of a blog post.
type Post = storage.Post

// Persister loads and saves the full post collection.
type Persister interface {
	Load() ([]storage.Post, error)
	Save(posts []storage.Post) error
}

// Observer receives store activity. It is used for metrics.
type Observer interface {
	ObserveOperation(op string, err error)
	SetPostCount(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error) {}
func (nopObserver) SetPostCount(int)               {}

// Store keeps posts in memory and rewrites the persisted file after each
// mutation. All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	posts     []Post
	nextID    int
	persister Persister
	exportDir string
	logger    *slog.Logger
	observer  Observer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With("component", "post.store")
	}
}

// WithObserver sets the observer notified of store operations.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// Open loads the collection from persister and returns a ready Store.
// It fails with storage.ErrCorruptState if the persisted file is unreadable.
func Open(persister Persister, exportDir string, opts ...Option) (*Store, error) {
	s := &Store{
		persister: persister,
		exportDir: exportDir,
		logger:    slog.Default().With("component", "post.store"),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	posts, err := persister.Load()
	if err != nil {
		s.observer.ObserveOperation("load", err)
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	s.posts = posts
	s.nextID = nextIDAfter(posts)
	s.observer.ObserveOperation("load", nil)
	s.observer.SetPostCount(len(posts))

	s.logger.Info("Loaded posts", "count", len(posts), "next_id", s.nextID)

	return s, nil
}

// nextIDAfter returns one more than the largest id in posts, so ids are never
// reused after a deletion.
func nextIDAfter(posts []Post) int {
	maxID := 0
	for _, p := range posts {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

// List returns a copy of all posts in display order.
func (s *Store) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Len returns the number of posts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// FindByID returns the first post with the given id.
func (s *Store) FindByID(id int) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Post{}, ErrNotFound
	}
	return s.posts[i], nil
}

// Create appends a new post and persists the collection.
func (s *Store) Create(ctx context.Context, title, content string) (Post, error) {
	title, content = normalize(title), normalize(content)
	if err := validate(title, content); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Post{ID: s.nextID, Title: title, Content: content}
	s.posts = append(s.posts, p)
	s.nextID++

	if err := s.save(ctx, "create"); err != nil {
		return Post{}, err
	}

	s.logger.InfoContext(ctx, "Created post", "post_id", p.ID, "title", p.Title)
	return p, nil
}

// Update overwrites title and content of the post with the given id. An
// unknown id is reported as ErrNotFound before the input is validated.
func (s *Store) Update(ctx context.Context, id int, title, content string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.observer.ObserveOperation("update", ErrNotFound)
		return Post{}, ErrNotFound
	}

	title, content = normalize(title), normalize(content)
	if err := validate(title, content); err != nil {
		return Post{}, err
	}

	s.posts[i].Title = title
	s.posts[i].Content = content

	if err := s.save(ctx, "update"); err != nil {
		return Post{}, err
	}

	s.logger.InfoContext(ctx, "Updated post", "post_id", id)
	return s.posts[i], nil
}

// Delete removes every post with the given id. Deleting an unknown id is a
// no-op and does not touch the file.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.posts[:0:0]
	for _, p := range s.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	if len(kept) == len(s.posts) {
		s.logger.DebugContext(ctx, "Delete matched no posts", "post_id", id)
		return nil
	}

	removed := len(s.posts) - len(kept)
	s.posts = kept

	if err := s.save(ctx, "delete"); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Deleted post", "post_id", id, "removed", removed)
	return nil
}

// save writes the collection (caller must hold the write lock).
func (s *Store) save(ctx context.Context, op string) error {
	err := s.persister.Save(s.posts)
	s.observer.ObserveOperation(op, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist posts", "op", op, "error", err)
		return err
	}
	s.observer.SetPostCount(len(s.posts))
	return nil
}

// indexOf returns the index of the first post with id, or -1.
func (s *Store) indexOf(id int) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// normalize replaces each invalid UTF-8 byte with U+FFFD, the same way
// encoding/json does on save, so the in-memory post matches the file.
func normalize(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func validate(title, content string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}
