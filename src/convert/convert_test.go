package convert_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ulikunitz/xz"

	"richdoc/src/convert"
)

func TestImportBytes(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"notes.txt", "a < b\n\nc", "<p>a &lt; b</p><p><br/></p><p>c</p>"},
		{"page.html", "<html><body><p>Hi</p></body></html>", "<p>Hi</p>"},
		{"frag.htm", "<p>frag</p>", "<p>frag</p>"},
		{"readme.md", "# Title\n\nHello **world**", "<h1>Title</h1>\n<p>Hello <strong>world</strong></p>"},
		{"strike.markdown", "~~gone~~", "<p><del>gone</del></p>"},
		{"saved.md", "<h1>Title</h1>\n<p>Hello <strong>world</strong></p>", "<h1>Title</h1>\n<p>Hello <strong>world</strong></p>"},
	}
	for _, tc := range cases {
		got, err := convert.ImportBytes(tc.name, []byte(tc.data))
		if err != nil {
			t.Fatalf("import %s failed: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("import %s (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestImportUnsupported(t *testing.T) {
	if _, err := convert.ImportBytes("image.png", nil); !errors.Is(err, convert.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	got, err := convert.Import(path)
	if err != nil || got != "<p>hello</p>" {
		t.Fatalf("unexpected import %q: %v", got, err)
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]convert.Format{"HTML": convert.FormatHTML, "txt": convert.FormatText, "doc": convert.FormatDoc} {
		got, err := convert.ParseFormat(name)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%s) = %s, %v", name, got, err)
		}
	}
	if _, err := convert.ParseFormat("pdf"); !errors.Is(err, convert.ErrUnsupportedFormat) {
		t.Fatalf("pdf should be unsupported, got %v", err)
	}
}

func TestDocument(t *testing.T) {
	doc := convert.Document("A & B", "<p>x</p>")
	for _, want := range []string{"<!DOCTYPE html>", `<meta charset="utf-8">`, "<title>A &amp; B</title>", "<body>\n<p>x</p>\n</body>"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestPaginate(t *testing.T) {
	got := convert.Paginate("one two three four", 9, 0)
	if got != "one two\nthree\nfour\n" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	got = convert.Paginate("abcdefghij", 4, 0)
	if got != "abcd\nefgh\nij\n" {
		t.Fatalf("long words should be split: %q", got)
	}
	got = convert.Paginate("a\nb\nc", 0, 2)
	if got != "a\nb\n\f\nc\n" {
		t.Fatalf("unexpected pages: %q", got)
	}
}

func TestExportText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "doc.txt")
	written, err := convert.Export(path, convert.FormatText, "<p>Hello</p><p>World</p>", convert.Options{WrapWidth: 80})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if written != path {
		t.Fatalf("unexpected path %s", written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "Hello\n\nWorld\n" {
		t.Fatalf("unexpected text: %q", data)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".richdoc-export-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestExportCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	written, err := convert.Export(path, convert.FormatHTML, "<p>x</p>", convert.Options{Title: "doc", Compress: true})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if written != path+".xz" {
		t.Fatalf("compressed export should gain .xz, got %s", written)
	}
	f, err := os.Open(written)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	r, err := xz.NewReader(f)
	if err != nil {
		t.Fatalf("xz reader: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !strings.Contains(string(data), "<p>x</p>") {
		t.Fatalf("unexpected content: %s", data)
	}
}
