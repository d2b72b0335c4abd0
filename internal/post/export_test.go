package post

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"single space", "My Post", "My_Post.txt"},
		{"whitespace run", "My \t  Post", "My_Post.txt"},
		{"no whitespace", "Post", "Post.txt"},
		{"leading and trailing", " x ", "_x_.txt"},
		{"newline", "a\nb", "a_b.txt"},
		{"unicode spaces", "My\u00a0Post\u2003Two", "My_Post_Two.txt"},
		{"vertical tab and bom", "a\v\ufeffb", "a_b.txt"},
		{"line separator", "a\u2028b\u3000c", "a_b_c.txt"},
		{"slash", "a/b", "a_b.txt"},
		{"backslash", `a\b`, "a_b.txt"},
		{"traversal", "../../etc/passwd", ".._.._etc_passwd.txt"},
		{"dot dot", "..", "_.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFilename(tt.title))
		})
	}
}

func TestRender(t *testing.T) {
	got := Render(Post{ID: 1, Title: "My Post", Content: "body"})
	assert.Equal(t, "Title: My Post\n\nbody", got)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s, _ := newFileStore(t)

	_, err := s.Create(ctx, "First", "one")
	require.NoError(t, err)
	p, err := s.Create(ctx, "My Post", "hello there")
	require.NoError(t, err)
	require.Equal(t, 2, p.ID)

	path, err := s.Export(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "My_Post.txt", filepath.Base(path))
	assert.Equal(t, s.exportDir, filepath.Dir(path))

	// #nosec G304 -- test-controlled path
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Title: My Post\n\nhello there", string(data))
}

func TestExport_OverwritesExisting(t *testing.T) {
	ctx := context.Background()
	s, _ := newFileStore(t)

	a, err := s.Create(ctx, "Same Title", "first")
	require.NoError(t, err)
	b, err := s.Create(ctx, "Same  Title", "second")
	require.NoError(t, err)

	pathA, err := s.Export(ctx, a.ID)
	require.NoError(t, err)
	pathB, err := s.Export(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, pathA, pathB)

	// #nosec G304 -- test-controlled path
	data, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, "Title: Same  Title\n\nsecond", string(data))
}

func TestExport_NotFound(t *testing.T) {
	s, _ := newFileStore(t)

	_, err := s.Export(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(s.exportDir)
	assert.True(t, os.IsNotExist(statErr), "export dir should not be created for a missing post")
}
