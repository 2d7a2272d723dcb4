package convert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"richdoc/src/markup"
)

// ErrUnsupportedFormat is returned for file types that cannot be imported or exported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Raw HTML passes through: Markdown documents are saved back as the HTML they were edited as.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
)

// Import reads a file and converts it to document markup.
func Import(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ImportBytes(filepath.Base(path), data)
}

// ImportBytes converts data to document markup, choosing the reader by the extension of name.
func ImportBytes(name string, data []byte) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt":
		return markup.FromPlainText(string(data)), nil
	case ".md", ".markdown":
		return MarkdownToHTML(data)
	case ".html", ".htm", ".doc":
		return markup.Body(string(data))
	default:
		return "", fmt.Errorf("import %s: %w", name, ErrUnsupportedFormat)
	}
}

// MarkdownToHTML renders GitHub flavoured Markdown.
func MarkdownToHTML(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
