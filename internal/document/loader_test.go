package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTextLoader(t *testing.T) {
	doc, err := Text{}.Load("notes.txt", []byte("plain content\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.SourceID != "notes.txt" {
		t.Errorf("SourceID: expected notes.txt, got %q", doc.SourceID)
	}
	if doc.Text != "plain content" {
		t.Errorf("Text: expected %q, got %q", "plain content", doc.Text)
	}
}

func TestTextLoader_RejectsInvalidUTF8(t *testing.T) {
	_, err := Text{}.Load("binary.txt", []byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("Expected ErrUndecodable, got %v", err)
	}
}

func TestMarkdownLoader_StripsFormatting(t *testing.T) {
	input := `# Machine Learning

ML is a **subset** of [AI](https://example.com).

## Details

- supervised
- unsupervised

` + "```go\nfmt.Println(\"hi\")\n```\n"

	doc, err := NewMarkdown().Load("ml.md", []byte(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if doc.Title != "Machine Learning" {
		t.Errorf("Title: expected 'Machine Learning', got %q", doc.Title)
	}

	// Formatting syntax must be gone, text content preserved in order.
	for _, markup := range []string{"**", "](", "```"} {
		if strings.Contains(doc.Text, markup) {
			t.Errorf("Text still contains markup %q: %q", markup, doc.Text)
		}
	}
	for _, want := range []string{"ML is a subset of AI", "supervised", `fmt.Println("hi")`} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Text missing %q: %q", want, doc.Text)
		}
	}
	if strings.Index(doc.Text, "subset") > strings.Index(doc.Text, "supervised") {
		t.Error("Text order not preserved")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("image.png", []byte("data"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDirSource_ListAndFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bravo")
	writeFile(t, dir, "a.md", "# Alpha\n\nalpha body\n")
	writeFile(t, dir, "sub/c.txt", "charlie")
	writeFile(t, dir, "skip.json", "{}")

	src := NewDirSource(dir, []string{".txt", ".md"})

	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"a.md", "b.txt", "sub/c.txt"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d]: expected %q, got %q", i, want[i], ids[i])
		}
	}

	doc, err := src.Fetch(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if doc.Title != "Alpha" {
		t.Errorf("Title: expected Alpha, got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "alpha body") {
		t.Errorf("Text missing body: %q", doc.Text)
	}
}

func TestDirSource_FetchInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte{0xff, 0xfe}, 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(dir, []string{".txt"})
	_, err := src.Fetch(context.Background(), "bad.txt")
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("Expected ErrUndecodable, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
