package editor

import (
	"path/filepath"
	"strings"
)

// Type enumerates the source formats a document can be opened from.
type Type string

const (
	// TypeHTML is a document stored as HTML markup.
	TypeHTML Type = "html"
	// TypeMarkdown is a document stored as Markdown and held as HTML while editing.
	TypeMarkdown Type = "markdown"
	// TypeText is a plain text document held as HTML paragraphs while editing.
	TypeText Type = "text"
)

// TypeForPath picks the document type from a file extension.
func TypeForPath(path string) Type {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return TypeMarkdown
	case ".txt":
		return TypeText
	default:
		return TypeHTML
	}
}

// Editor exposes the common behaviour shared by all editors.
type Editor interface {
	Path() string
	Name() string
	Type() Type
	IsModified() bool
	SetModified(bool)
	Content() (string, error)
	Undo() error
	Redo() error
}

// Document is the host boundary the find and replace core talks to.
type Document interface {
	Editor
	Markup() string
	PlainText() string
	SetMarkup(markup string) bool
	Update(description, markup string) bool
	Clear() bool
}
