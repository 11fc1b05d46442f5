// Package template loads HTML email templates and injects content by
// literal placeholder substitution. Templates contain tokens of the form
// {{NAME}}; substitution is plain text replacement, not templating-language
// evaluation, so unmatched tokens pass through unchanged.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ContentPlaceholder is the mandatory body slot every template carries.
const ContentPlaceholder = "{{CONTENT}}"

// NotFoundError indicates that a template file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Path)
}

// Store resolves template names against a directory of .html files.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Resolve maps a template name to its file path, returning *NotFoundError
// if the file does not exist.
func (s *Store) Resolve(name string) (string, error) {
	path := filepath.Join(s.dir, name+".html")
	if _, err := os.Stat(path); err != nil {
		return "", &NotFoundError{Path: path}
	}
	return path, nil
}

// List returns the sorted names of all templates in the store directory.
// The content.html fragment is not a standalone template and is excluded.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".html" || name == "content.html" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".html"))
	}

	sort.Strings(names)
	return names, nil
}

// Renderer loads template files and caches their text keyed by path for the
// lifetime of the Renderer. The cache never checks file modification times;
// edits to a template on disk are not observed until ClearCache.
type Renderer struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewRenderer creates a Renderer with an empty cache.
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string]string)}
}

// Load returns the full text of the template at path, reading the file at
// most once per cache lifetime. A missing file yields *NotFoundError.
func (r *Renderer) Load(path string) (string, error) {
	r.mu.RLock()
	text, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	r.mu.Lock()
	r.cache[path] = string(data)
	r.mu.Unlock()

	return string(data), nil
}

// Render loads the template at path and performs two substitution passes:
// first {{CONTENT}} is replaced by content, then each {{KEY}} from
// placeholders is replaced by its value, keys applied in sorted order.
// Each pass is single substitution; replaced text is never re-substituted
// within its own pass, and no escaping of nested braces is performed.
func (r *Renderer) Render(path, content string, placeholders map[string]string) (string, error) {
	text, err := r.Load(path)
	if err != nil {
		return "", err
	}
	return Inject(text, content, placeholders), nil
}

// Inject performs the placeholder substitution on already-loaded template
// text. Unmatched {{NAME}} tokens are left verbatim in the output.
func Inject(text, content string, placeholders map[string]string) string {
	out := strings.ReplaceAll(text, ContentPlaceholder, content)

	if len(placeholders) == 0 {
		return out
	}

	keys := make([]string, 0, len(placeholders))
	for k := range placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		out = strings.ReplaceAll(out, "{{"+k+"}}", placeholders[k])
	}
	return out
}

// ClearCache drops every cached template. This is the only cache
// invalidation mechanism.
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}
