package findreplace

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// AnnotationOpen is the wrapper inserted before every highlighted match.
	AnnotationOpen = `<mark data-find="1">`
	// AnnotationClose closes a highlight wrapper.
	AnnotationClose = `</mark>`
)

var markTag = regexp.MustCompile(`(?i)<mark\b[^>]*>|</mark\s*>`)

var annotationOpenTag = regexp.MustCompile(`(?i)^<mark\s+data-find="1"[^>]*>$`)

// Projector returns the plain-text projection of a markup snapshot.
type Projector interface {
	PlainText(markup string) string
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(markup string) string

// PlainText calls f.
func (f ProjectorFunc) PlainText(markup string) string {
	return f(markup)
}

// Result describes the outcome of a find or replace pass.
type Result struct {
	Term    string
	Matched bool
	Count   int
	Markup  string
}

// Message renders the user facing outcome.
func (r Result) Message() string {
	if !r.Matched {
		return fmt.Sprintf("No matches found for %q", r.Term)
	}
	if r.Count == 1 {
		return fmt.Sprintf("1 match for %q", r.Term)
	}
	return fmt.Sprintf("%d matches for %q", r.Count, r.Term)
}

// Replacer performs literal, case-insensitive search and replace over markup snapshots.
// It keeps no state between calls.
type Replacer struct {
	projector Projector
}

// NewReplacer builds a Replacer that checks existence against projector's output.
func NewReplacer(projector Projector) *Replacer {
	return &Replacer{projector: projector}
}

// ClearAnnotations strips highlight wrappers, keeping their text.
// The bool is false when markup held no annotation, in which case markup is returned as is.
func (r *Replacer) ClearAnnotations(markup string) (string, bool) {
	return ClearAnnotations(markup)
}

// Find highlights every raw-markup occurrence of term once the plain text confirms it exists.
func (r *Replacer) Find(markup, term string) Result {
	term = strings.TrimSpace(term)
	res := Result{Term: term, Markup: markup}
	if term == "" {
		return res
	}
	pattern := compileTerm(term)
	if !pattern.MatchString(r.projector.PlainText(markup)) {
		return res
	}
	cleared, _ := ClearAnnotations(markup)
	res.Matched = true
	res.Markup = pattern.ReplaceAllStringFunc(cleared, func(match string) string {
		res.Count++
		return AnnotationOpen + match + AnnotationClose
	})
	return res
}

// ReplaceAll substitutes replacement for every raw-markup occurrence of term.
func (r *Replacer) ReplaceAll(markup, term, replacement string) Result {
	term = strings.TrimSpace(term)
	res := Result{Term: term, Markup: markup}
	if term == "" {
		return res
	}
	cleared, _ := ClearAnnotations(markup)
	res.Markup = cleared
	pattern := compileTerm(term)
	if !pattern.MatchString(r.projector.PlainText(cleared)) {
		return res
	}
	res.Matched = true
	res.Markup = pattern.ReplaceAllStringFunc(cleared, func(string) string {
		res.Count++
		return replacement
	})
	return res
}

// ClearAnnotations removes every annotation wrapper from markup. Closing tags are paired
// with their opening tag so that unrelated <mark> elements survive.
func ClearAnnotations(markup string) (string, bool) {
	if !strings.Contains(strings.ToLower(markup), "data-find") {
		return markup, false
	}
	locs := markTag.FindAllStringIndex(markup, -1)
	if len(locs) == 0 {
		return markup, false
	}
	var (
		b       strings.Builder
		stack   []bool
		last    int
		removed bool
	)
	b.Grow(len(markup))
	for _, loc := range locs {
		tag := markup[loc[0]:loc[1]]
		drop := false
		if strings.HasPrefix(tag, "</") {
			if n := len(stack); n > 0 {
				drop = stack[n-1]
				stack = stack[:n-1]
			}
		} else {
			drop = annotationOpenTag.MatchString(tag)
			stack = append(stack, drop)
		}
		if !drop {
			continue
		}
		b.WriteString(markup[last:loc[0]])
		last = loc[1]
		removed = true
	}
	if !removed {
		return markup, false
	}
	b.WriteString(markup[last:])
	return b.String(), true
}

// Escape quotes every pattern metacharacter in term.
func Escape(term string) string {
	return regexp.QuoteMeta(term)
}

func compileTerm(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + Escape(term))
}
