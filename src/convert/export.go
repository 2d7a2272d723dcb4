package convert

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ulikunitz/xz"

	"richdoc/src/markup"
)

// Format names an export target.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatDoc  Format = "doc"
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatHTML, FormatText, FormatDoc:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("export %q: %w", name, ErrUnsupportedFormat)
	}
}

// Options tunes rendering.
type Options struct {
	Title     string
	WrapWidth int
	PageLines int
	Compress  bool
}

// Render converts markup to the bytes of the given format.
func Render(format Format, body string, opts Options) ([]byte, error) {
	switch format {
	case FormatHTML, FormatDoc:
		return []byte(Document(opts.Title, body)), nil
	case FormatText:
		return []byte(Paginate(markup.PlainText(body), opts.WrapWidth, opts.PageLines)), nil
	default:
		return nil, fmt.Errorf("export %q: %w", format, ErrUnsupportedFormat)
	}
}

// Export renders markup and writes it to path. The written path is returned;
// it gains an .xz suffix when compression is requested.
func Export(path string, format Format, body string, opts Options) (string, error) {
	data, err := Render(format, body, opts)
	if err != nil {
		return "", err
	}
	target := path
	if opts.Compress && !strings.HasSuffix(target, ".xz") {
		target += ".xz"
	}
	if err := writeFile(target, data, opts.Compress); err != nil {
		return "", fmt.Errorf("export %s: %w", target, err)
	}
	return target, nil
}

// Document wraps body markup in a standalone HTML document.
func Document(title, body string) string {
	if title == "" {
		title = "document"
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// Paginate wraps text to width runes per line and inserts a form feed line every pageLines lines.
// Non-positive values disable wrapping or pagination.
func Paginate(text string, width, pageLines int) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines = append(lines, wrapLine(line, width)...)
	}
	if pageLines <= 0 || len(lines) <= pageLines {
		return strings.Join(lines, "\n") + "\n"
	}
	var pages []string
	for start := 0; start < len(lines); start += pageLines {
		end := min(start+pageLines, len(lines))
		pages = append(pages, strings.Join(lines[start:end], "\n"))
	}
	return strings.Join(pages, "\n\f\n") + "\n"
}

func wrapLine(line string, width int) []string {
	if width <= 0 || utf8.RuneCountInString(line) <= width {
		return []string{line}
	}
	var result []string
	var current []rune
	for _, word := range strings.Fields(line) {
		runes := []rune(word)
		for len(runes) > width {
			if len(current) > 0 {
				result = append(result, string(current))
				current = nil
			}
			result = append(result, string(runes[:width]))
			runes = runes[width:]
		}
		switch {
		case len(current) == 0:
			current = append(current, runes...)
		case len(current)+1+len(runes) <= width:
			current = append(current, ' ')
			current = append(current, runes...)
		default:
			result = append(result, string(current))
			current = append([]rune(nil), runes...)
		}
	}
	if len(current) > 0 {
		result = append(result, string(current))
	}
	return result
}

func writeFile(path string, data []byte, compress bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".richdoc-export-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	var w io.Writer = tmp
	var xw *xz.Writer
	if compress {
		xw, err = xz.NewWriter(tmp)
		if err != nil {
			return err
		}
		w = xw
	}
	if _, err = w.Write(data); err != nil {
		return err
	}
	if xw != nil {
		if err = xw.Close(); err != nil {
			return err
		}
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
