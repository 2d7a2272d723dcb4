package markup

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Tr:         true,
	atom.Table:      true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Header:     true,
	atom.Footer:     true,
}

// PlainText projects markup onto its text content. Blocks are separated by a blank line.
func PlainText(markup string) string {
	return project(markup, "\n\n")
}

// PlainLines projects markup onto text with one line per block, the inverse of FromPlainText.
func PlainLines(markup string) string {
	return project(markup, "\n")
}

func project(markup, blockSep string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	pendingBreak := false
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if text == "" {
				continue
			}
			if (pendingBreak || b.Len() == 0) && strings.TrimSpace(text) == "" {
				continue
			}
			if pendingBreak && b.Len() > 0 {
				b.WriteString(blockSep)
			}
			pendingBreak = false
			b.WriteString(text)
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Script || a == atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case a == atom.Br:
				b.WriteString("\n")
			case blockElements[a]:
				pendingBreak = true
			}
		}
	}
}

// FromPlainText wraps each line of text in a paragraph. Empty lines become line breaks.
func FromPlainText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	parts := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			parts[i] = "<br/>"
			continue
		}
		parts[i] = escapeText(line)
	}
	return "<p>" + strings.Join(parts, "</p><p>") + "</p>"
}

// Transform rewrites a run of document text.
type Transform func(string) string

// Upper maps text to upper case.
func Upper(s string) string { return strings.ToUpper(s) }

// Lower maps text to lower case.
func Lower(s string) string { return strings.ToLower(s) }

// Capitalize upper-cases the first letter of every letter run and lower-cases the rest.
func Capitalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			inWord = false
			b.WriteRune(r)
			continue
		}
		if inWord {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		inWord = true
	}
	return b.String()
}

// TransformText applies fn to every text run while copying tags byte for byte.
// Entities are left untouched so the result stays well formed.
func TransformText(markup string, fn Transform) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	b.Grow(len(markup))
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			if skip > 0 {
				b.WriteString(raw)
				continue
			}
			b.WriteString(transformOutsideEntities(raw, fn))
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			}
			b.WriteString(raw)
		default:
			b.WriteString(raw)
		}
	}
}

func transformOutsideEntities(raw string, fn Transform) string {
	var b strings.Builder
	for raw != "" {
		amp := strings.IndexByte(raw, '&')
		if amp < 0 {
			b.WriteString(fn(raw))
			break
		}
		b.WriteString(fn(raw[:amp]))
		end := entityEnd(raw[amp:])
		if end < 0 {
			b.WriteString("&")
			raw = raw[amp+1:]
			continue
		}
		b.WriteString(raw[amp : amp+end+1])
		raw = raw[amp+end+1:]
	}
	return b.String()
}

// entityEnd returns the index of the ';' closing a character reference at the start of s, or -1.
func entityEnd(s string) int {
	for i := 1; i < len(s) && i <= 32; i++ {
		c := s[i]
		switch {
		case c == ';':
			if i == 1 {
				return -1
			}
			return i
		case c == '#' && i == 1:
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return -1
		}
	}
	return -1
}

func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
