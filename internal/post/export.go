package post

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// ASCII whitespace, vertical tab, Unicode separators and BOM.
	whitespaceRun = regexp.MustCompile(`[\s\x0B\p{Z}\x{FEFF}]+`)
	pathSeparator = regexp.MustCompile(`[/\\]`)
)

// ExportFilename derives the export file name from a post title. Whitespace
// runs and path separators become "_" so the file stays in the export dir.
func ExportFilename(title string) string {
	name := whitespaceRun.ReplaceAllString(title, "_")
	name = pathSeparator.ReplaceAllString(name, "_")
	if name == "." || name == ".." {
		name = "_"
	}
	return name + ".txt"
}

// Render returns the plain-text export body of p.
func Render(p Post) string {
	return fmt.Sprintf("Title: %s\n\n%s", p.Title, p.Content)
}

// Export writes the post as a plain-text file into the export directory,
// creating it if needed, and returns the file path. An existing file with the
// same name is overwritten.
func (s *Store) Export(ctx context.Context, id int) (string, error) {
	p, err := s.FindByID(id)
	if err != nil {
		s.observer.ObserveOperation("export", err)
		return "", err
	}

	// #nosec G301 -- export directory is publicly served
	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		s.observer.ObserveOperation("export", err)
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.exportDir, ExportFilename(p.Title))
	// #nosec G306 -- exported posts are meant to be downloaded
	if err := os.WriteFile(path, []byte(Render(p)), 0644); err != nil {
		s.observer.ObserveOperation("export", err)
		s.logger.ErrorContext(ctx, "Failed to write export file", "post_id", id, "path", path, "error", err)
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	s.observer.ObserveOperation("export", nil)
	s.logger.InfoContext(ctx, "Exported post", "post_id", id, "path", path)
	return path, nil
}
