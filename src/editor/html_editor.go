package editor

import (
	"errors"
	"path/filepath"

	"richdoc/src/findreplace"
	"richdoc/src/markup"
)

// HTMLEditor holds a rich-text document as serialized markup with undo/redo support.
type HTMLEditor struct {
	path      string
	kind      Type
	markup    string
	modified  bool
	undoStack []*editCommand
	redoStack []*editCommand
}

// NewHTMLEditor constructs an editor for the provided path.
func NewHTMLEditor(path string, kind Type, content string, modified bool) *HTMLEditor {
	return &HTMLEditor{
		path:     path,
		kind:     kind,
		markup:   content,
		modified: modified,
	}
}

// Path returns the backing file path.
func (e *HTMLEditor) Path() string {
	return e.path
}

// Name returns the file name for display.
func (e *HTMLEditor) Name() string {
	return filepath.Base(e.path)
}

// Type returns the format the document was opened from.
func (e *HTMLEditor) Type() Type {
	return e.kind
}

// IsModified reports whether editor has unsaved changes.
func (e *HTMLEditor) IsModified() bool {
	return e.modified
}

// SetModified forces modified flag.
func (e *HTMLEditor) SetModified(value bool) {
	e.modified = value
}

// Content returns the serialized markup.
func (e *HTMLEditor) Content() (string, error) {
	return e.markup, nil
}

// Markup returns the current serialized document.
func (e *HTMLEditor) Markup() string {
	return e.markup
}

// PlainText returns the document text with tags removed.
func (e *HTMLEditor) PlainText() string {
	return markup.PlainText(e.markup)
}

// SetMarkup replaces the whole document. It reports false and records nothing
// when the content is unchanged.
func (e *HTMLEditor) SetMarkup(content string) bool {
	return e.Update("set-content", content)
}

// Update replaces the document and records the change under description.
// Changes that only add or remove search highlights leave the modified flag alone.
func (e *HTMLEditor) Update(description, content string) bool {
	if content == e.markup {
		return false
	}
	cmd := &editCommand{
		description: description,
		before:      e.markup,
		after:       content,
		annotation:  sameSavedForm(e.markup, content),
	}
	e.markup = content
	e.undoStack = append(e.undoStack, cmd)
	e.redoStack = nil
	e.touch(cmd)
	return true
}

// Clear empties the document.
func (e *HTMLEditor) Clear() bool {
	return e.Update("clear-content", "")
}

// Undo reverts the last command.
func (e *HTMLEditor) Undo() error {
	if len(e.undoStack) == 0 {
		return errors.New("nothing to undo")
	}
	last := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.markup = last.before
	e.redoStack = append(e.redoStack, last)
	e.touch(last)
	return nil
}

// Redo reapplies the last undone command.
func (e *HTMLEditor) Redo() error {
	if len(e.redoStack) == 0 {
		return errors.New("nothing to redo")
	}
	last := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.markup = last.after
	e.undoStack = append(e.undoStack, last)
	e.touch(last)
	return nil
}

// History lists the descriptions of undoable commands, oldest first.
func (e *HTMLEditor) History() []string {
	result := make([]string, len(e.undoStack))
	for i, cmd := range e.undoStack {
		result[i] = cmd.description
	}
	return result
}

func (e *HTMLEditor) touch(cmd *editCommand) {
	if !cmd.annotation {
		e.modified = true
	}
}

// sameSavedForm reports whether two snapshots differ only in search highlights.
func sameSavedForm(a, b string) bool {
	clearedA, _ := findreplace.ClearAnnotations(a)
	clearedB, _ := findreplace.ClearAnnotations(b)
	return clearedA == clearedB
}

type editCommand struct {
	description string
	before      string
	after       string
	annotation  bool
}
