package template

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTemplate(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	return path
}

func TestStoreResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "base.html", "<html>{{CONTENT}}</html>")

	store := NewStore(dir)

	path, err := store.Resolve("base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "base.html" {
		t.Errorf("path: got %q, want base.html", path)
	}

	_, err = store.Resolve("missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type: got %T, want *NotFoundError", err)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "newsletter.html", "{{CONTENT}}")
	writeTemplate(t, dir, "base.html", "{{CONTENT}}")
	writeTemplate(t, dir, "content.html", "fragment")
	writeTemplate(t, dir, "notes.txt", "not a template")

	names, err := NewStore(dir).List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"base", "newsletter"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List(): got %v, want %v", names, want)
	}
}

func TestRendererLoad_Caches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTemplate(t, dir, "base.html", "first version")

	r := NewRenderer()
	if text, err := r.Load(path); err != nil || text != "first version" {
		t.Fatalf("Load: got %q, %v", text, err)
	}

	// The cache never checks modification times; edits are invisible
	// until ClearCache.
	writeTemplate(t, dir, "base.html", "second version")
	if text, _ := r.Load(path); text != "first version" {
		t.Errorf("after edit: got %q, want cached first version", text)
	}

	r.ClearCache()
	if text, _ := r.Load(path); text != "second version" {
		t.Errorf("after ClearCache: got %q, want second version", text)
	}
}

func TestRendererLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer().Load(filepath.Join(t.TempDir(), "nope.html"))
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error type: got %T, want *NotFoundError", err)
	}
}

func TestRender_InjectsContentAndPlaceholders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTemplate(t, dir, "base.html", "<p>Hi {{FNAME}}</p>{{CONTENT}}<i>{{UNSET}}</i>")

	got, err := NewRenderer().Render(path, "<b>body</b>", map[string]string{"FNAME": "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<p>Hi Ada</p><b>body</b><i>{{UNSET}}</i>"
	if got != want {
		t.Errorf("Render: got %q, want %q", got, want)
	}
}

func TestInject_ContentTokenInBodyIsNotReSubstituted(t *testing.T) {
	t.Parallel()

	// Substitution happens exactly once at the template's placeholder
	// site; a literal {{CONTENT}} inside the injected body survives.
	got := Inject("before {{CONTENT}} after", "body with {{CONTENT}} token", nil)
	want := "before body with {{CONTENT}} token after"
	if got != want {
		t.Errorf("Inject: got %q, want %q", got, want)
	}
	if strings.Count(got, "{{CONTENT}}") != 1 {
		t.Errorf("leftover token count: got %d, want 1", strings.Count(got, "{{CONTENT}}"))
	}
}

func TestInject_KeysAppliedInSortedOrder(t *testing.T) {
	t.Parallel()

	// A value injected by an earlier key is visible to later keys' passes;
	// there is no recursion beyond that.
	got := Inject("{{A}}", "", map[string]string{
		"A": "x{{B}}y",
		"B": "inner",
	})
	if got != "xinnery" {
		t.Errorf("Inject: got %q, want %q", got, "xinnery")
	}
}
