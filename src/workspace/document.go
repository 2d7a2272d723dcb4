package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"richdoc/src/convert"
	"richdoc/src/editor"
	"richdoc/src/events"
	"richdoc/src/findreplace"
	"richdoc/src/markup"
	"richdoc/src/spellcheck"
	"richdoc/src/statistics"
)

// AutosaveSource returns the last automatically saved markup.
type AutosaveSource interface {
	Restore(ctx context.Context) (string, error)
}

// SetAutosave connects the store used by RestoreAutosave.
func (w *Workspace) SetAutosave(source AutosaveSource) {
	w.autosave = source
}

var transforms = map[string]markup.Transform{
	"upper":      markup.Upper,
	"uppercase":  markup.Upper,
	"lower":      markup.Lower,
	"lowercase":  markup.Lower,
	"capitalize": markup.Capitalize,
}

// Find highlights every occurrence of term in the active document.
func (w *Workspace) Find(term string) (findreplace.Result, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return findreplace.Result{}, err
	}
	res := w.replacer.Find(ed.Markup(), term)
	w.apply(ed, "find", res.Markup)
	return res, nil
}

// ReplaceAll substitutes every occurrence of term in the active document.
func (w *Workspace) ReplaceAll(term, replacement string) (findreplace.Result, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return findreplace.Result{}, err
	}
	res := w.replacer.ReplaceAll(ed.Markup(), term, replacement)
	if res.Count > 0 {
		w.apply(ed, "replace-all", res.Markup)
	} else {
		w.apply(ed, "clear-marks", res.Markup)
	}
	return res, nil
}

// ClearMarks removes search highlights from the active document.
func (w *Workspace) ClearMarks() (bool, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	cleared, changed := w.replacer.ClearAnnotations(ed.Markup())
	if !changed {
		return false, nil
	}
	return w.apply(ed, "clear-marks", cleared), nil
}

// Source returns the raw markup of the active document.
func (w *Workspace) Source() (string, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return "", err
	}
	return ed.Markup(), nil
}

// ApplySource replaces the active document with raw markup.
func (w *Workspace) ApplySource(raw string) (bool, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	return w.apply(ed, "set-content", raw), nil
}

// Show returns the plain text of the active document.
func (w *Workspace) Show() (string, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return "", err
	}
	return ed.PlainText(), nil
}

// Transform rewrites the case of all text in the active document.
func (w *Workspace) Transform(name string) (bool, error) {
	fn, ok := transforms[strings.ToLower(name)]
	if !ok {
		return false, fmt.Errorf("unknown transform: %s", name)
	}
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	return w.apply(ed, "transform-"+strings.ToLower(name), markup.TransformText(ed.Markup(), fn)), nil
}

// ClearContent empties the active document.
func (w *Workspace) ClearContent() (bool, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	return w.apply(ed, "clear-content", ""), nil
}

// Stats counts words and characters of a document (empty path means active).
func (w *Workspace) Stats(path string) (statistics.Counts, error) {
	ed, err := w.target(path)
	if err != nil {
		return statistics.Counts{}, err
	}
	return statistics.Count(ed.PlainText()), nil
}

// Outline renders the element tree of a document (empty path means active).
func (w *Workspace) Outline(path string) (string, error) {
	ed, err := w.target(path)
	if err != nil {
		return "", err
	}
	cleared, _ := findreplace.ClearAnnotations(ed.Markup())
	return markup.Outline(cleared)
}

// SpellCheck runs the configured spell checker on the target file.
func (w *Workspace) SpellCheck(path string) (string, error) {
	if w.speller == nil {
		return "", errors.New("no spell checker configured")
	}
	ed, err := w.target(path)
	if err != nil {
		return "", err
	}
	return formatTextIssues(w.speller.CheckText(ed.PlainText())), nil
}

// Import loads a file into the active document, replacing its content.
func (w *Workspace) Import(path string) (bool, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	abs, err := w.resolvePath(path)
	if err != nil {
		return false, err
	}
	content, err := convert.Import(abs)
	if err != nil {
		return false, err
	}
	return w.apply(ed, "import", content), nil
}

// Export writes the active document in the given format and returns the written path.
// compress forces xz output in addition to the configured default.
func (w *Workspace) Export(format convert.Format, path string, compress bool) (string, error) {
	ed, err := w.ActiveEditor()
	if err != nil {
		return "", err
	}
	abs, err := w.resolvePath(path)
	if err != nil {
		return "", err
	}
	opts := w.export
	opts.Title = strings.TrimSuffix(ed.Name(), filepath.Ext(ed.Name()))
	opts.Compress = opts.Compress || compress
	body, _ := findreplace.ClearAnnotations(ed.Markup())
	return convert.Export(abs, format, body, opts)
}

// RestoreAutosave loads the last automatically saved content into the active document.
func (w *Workspace) RestoreAutosave(ctx context.Context) (bool, error) {
	if w.autosave == nil {
		return false, errors.New("autosave is disabled")
	}
	ed, err := w.ActiveEditor()
	if err != nil {
		return false, err
	}
	content, err := w.autosave.Restore(ctx)
	if err != nil {
		return false, fmt.Errorf("restore autosave: %w", err)
	}
	return w.apply(ed, "autosave-restore", content), nil
}

// apply replaces the document content and notifies observers when it changed.
func (w *Workspace) apply(ed editor.Document, description, content string) bool {
	if !ed.Update(description, content) {
		return false
	}
	w.publishChange(ed)
	return true
}

func (w *Workspace) publishChange(ed editor.Document) {
	w.stats.Observe(ed.Path(), statistics.Count(ed.PlainText()))
	if w.bus == nil {
		return
	}
	w.bus.Publish(events.Event{
		Type:      events.EventDocumentChanged,
		Timestamp: time.Now(),
		File:      ed.Path(),
		Content:   ed.Markup(),
	})
}

func formatTextIssues(issues []spellcheck.TextIssue) string {
	var builder strings.Builder
	builder.WriteString("Spell check results:\n")
	if len(issues) == 0 {
		builder.WriteString("No spelling errors found")
		return builder.String()
	}
	for i, issue := range issues {
		suggestions := "none"
		if len(issue.Suggestions) > 0 {
			suggestions = strings.Join(issue.Suggestions, ", ")
		}
		builder.WriteString(fmt.Sprintf("line %d, column %d: %q -> suggestions: %s", issue.Line, issue.Column, issue.Word, suggestions))
		if i != len(issues)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
