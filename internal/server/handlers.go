package server

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourusername/flatblog/internal/post"
)

const notFoundMessage = "Post not found!"

// pathID parses the {id} path segment. A malformed id can never match a post.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// home serves public/index.html when present, otherwise the built-in form.
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	if s.publicDir != "" {
		index := filepath.Join(s.publicDir, "index.html")
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}
	}
	s.render(w, r, "compose", nil)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "list", s.store.List())
}

func (s *Server) editForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeText(w, notFoundMessage, http.StatusNotFound)
		return
	}

	p, err := s.store.FindByID(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.render(w, r, "edit", p)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, "Malformed form data.", http.StatusBadRequest)
		return
	}

	if _, err := s.store.Create(r.Context(), r.PostFormValue("title"), r.PostFormValue("content")); err != nil {
		s.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeText(w, notFoundMessage, http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, "Malformed form data.", http.StatusBadRequest)
		return
	}

	if _, err := s.store.Update(r.Context(), id, r.PostFormValue("title"), r.PostFormValue("content")); err != nil {
		s.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	// A malformed id matches nothing, so deleting it is the same no-op as
	// deleting an unknown id.
	if id, ok := pathID(r); ok {
		if err := s.store.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// savePost exports the post to a text file and sends it as a download.
func (s *Server) savePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeText(w, notFoundMessage, http.StatusNotFound)
		return
	}

	path, err := s.store.Export(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *Server) apiListPosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.store.List(), http.StatusOK)
}

func (s *Server) apiGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, map[string]string{"error": "invalid post id"}, http.StatusBadRequest)
		return
	}

	p, err := s.store.FindByID(id)
	if errors.Is(err, post.ErrNotFound) {
		writeJSON(w, map[string]string{"error": "post not found"}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSON(w, map[string]string{"error": "internal error"}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, p, http.StatusOK)
}

// writeError maps store errors onto HTML-route responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, post.ErrNotFound):
		writeText(w, notFoundMessage, http.StatusNotFound)
	case errors.Is(err, post.ErrInvalidInput):
		writeText(w, "Title and content are required.", http.StatusBadRequest)
	default:
		s.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeText(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
