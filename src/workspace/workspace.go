package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"richdoc/src/convert"
	"richdoc/src/editor"
	"richdoc/src/events"
	"richdoc/src/findreplace"
	"richdoc/src/fs"
	"richdoc/src/logging"
	"richdoc/src/markup"
	"richdoc/src/spellcheck"
	"richdoc/src/statistics"
)

const logMarker = "# log"

// SaveDecider asks user whether to save modifications.
type SaveDecider interface {
	ConfirmSave(path string) (bool, error)
}

// Info describes an open editor.
type Info struct {
	Path     string
	Name     string
	Type     editor.Type
	Modified bool
	Active   bool
	Session  statistics.Session
}

// Workspace coordinates editors, persistence, and observers.
type Workspace struct {
	baseDir string
	editors map[string]editor.Document
	active  string
	history []string

	bus      *events.Bus
	keeper   *StateKeeper
	logger   *logging.Manager
	decider  SaveDecider
	stats    *statistics.Tracker
	speller  *spellcheck.Service
	replacer *findreplace.Replacer
	export   convert.Options
	autosave AutosaveSource
}

// NewWorkspace builds a workspace.
func NewWorkspace(baseDir string, bus *events.Bus, keeper *StateKeeper, logger *logging.Manager, decider SaveDecider) *Workspace {
	return &Workspace{
		baseDir:  baseDir,
		editors:  map[string]editor.Document{},
		bus:      bus,
		keeper:   keeper,
		logger:   logger,
		decider:  decider,
		stats:    statistics.NewTracker(),
		speller:  spellcheck.NewService(spellcheck.NewSimpleChecker()),
		replacer: findreplace.NewReplacer(findreplace.ProjectorFunc(markup.PlainText)),
		export:   convert.Options{WrapWidth: 80, PageLines: 38},
	}
}

// SetDecider overrides the save decider.
func (w *Workspace) SetDecider(decider SaveDecider) {
	w.decider = decider
}

// SetSpellService overrides the spell check service.
func (w *Workspace) SetSpellService(service *spellcheck.Service) {
	w.speller = service
}

// SetClock overrides the tracker clock for deterministic testing.
func (w *Workspace) SetClock(clock statistics.Clock) {
	w.stats.WithClock(clock)
}

// SetExportOptions configures wrapping, pagination and compression of exports.
func (w *Workspace) SetExportOptions(opts convert.Options) {
	w.export = opts
}

// BaseDir exposes the root directory.
func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// Load opens or activates a file. Missing files open as empty, modified documents.
func (w *Workspace) Load(path string) (editor.Document, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if ed, ok := w.editors[abs]; ok {
		w.setActive(abs)
		return ed, nil
	}
	kind := editor.TypeForPath(abs)
	content := ""
	modified := false
	info, statErr := os.Stat(abs)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
		modified = true
	case statErr != nil:
		return nil, statErr
	case info.IsDir():
		return nil, fmt.Errorf("cannot open directory: %s", abs)
	default:
		data, readErr := os.ReadFile(abs)
		if readErr != nil {
			return nil, readErr
		}
		content, err = decode(kind, data)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", abs, err)
		}
	}
	ed := editor.NewHTMLEditor(abs, kind, content, modified)
	w.editors[abs] = ed
	w.stats.Observe(abs, statistics.Count(ed.PlainText()))
	w.setActive(abs)
	w.applyAutoLog(ed)
	return ed, nil
}

// Init creates an unsaved buffer. withLog seeds the log marker and enables the command log.
func (w *Workspace) Init(path string, withLog bool) (editor.Document, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err == nil {
		return nil, fmt.Errorf("file already exists: %s", abs)
	}
	if _, ok := w.editors[abs]; ok {
		return nil, fmt.Errorf("file already open: %s", abs)
	}
	content := ""
	if withLog {
		content = "<p>" + logMarker + "</p>"
	}
	ed := editor.NewHTMLEditor(abs, editor.TypeForPath(abs), content, true)
	w.editors[abs] = ed
	w.stats.Observe(abs, statistics.Count(ed.PlainText()))
	w.setActive(abs)
	if withLog {
		if err := w.logger.Enable(abs); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

// Save writes the specified file (empty path means active).
func (w *Workspace) Save(path string) error {
	ed, err := w.target(path)
	if err != nil {
		return err
	}
	if err := w.saveEditor(ed); err != nil {
		return err
	}
	ed.SetModified(false)
	return nil
}

// SaveAll writes every open editor.
func (w *Workspace) SaveAll() error {
	for _, ed := range w.editors {
		if err := w.saveEditor(ed); err != nil {
			return err
		}
		ed.SetModified(false)
	}
	return nil
}

// Close removes an editor, prompting when necessary.
func (w *Workspace) Close(path string) error {
	ed, err := w.target(path)
	if err != nil {
		return err
	}
	abs := ed.Path()
	if ed.IsModified() && w.decider != nil {
		save, decErr := w.decider.ConfirmSave(abs)
		if decErr != nil {
			return decErr
		}
		if save {
			if err := w.saveEditor(ed); err != nil {
				return err
			}
			ed.SetModified(false)
		}
	}
	w.stats.Close(abs)
	delete(w.editors, abs)
	w.removeFromHistory(abs)
	next := ""
	if w.active == abs {
		if len(w.history) > 0 {
			next = w.history[0]
		}
	} else {
		next = w.active
	}
	w.setActive(next)
	return nil
}

// Edit switches the active editor.
func (w *Workspace) Edit(path string) error {
	abs, err := w.resolvePath(path)
	if err != nil {
		return err
	}
	if _, ok := w.editors[abs]; !ok {
		return fmt.Errorf("file not open: %s", path)
	}
	w.setActive(abs)
	return nil
}

// List returns info for editors.
func (w *Workspace) List() []Info {
	result := make([]Info, 0, len(w.editors))
	for path, ed := range w.editors {
		result = append(result, Info{
			Path:     path,
			Name:     ed.Name(),
			Type:     ed.Type(),
			Modified: ed.IsModified(),
			Active:   path == w.active,
			Session:  w.stats.Session(path),
		})
	}
	return result
}

// DirTree prints the documents below a directory.
func (w *Workspace) DirTree(path string) (string, error) {
	target := path
	if target == "" {
		target = w.baseDir
	} else if !filepath.IsAbs(target) {
		target = filepath.Join(w.baseDir, target)
	}
	return fs.FilteredTree(target, fs.Documents)
}

// Undo reverts an edit.
func (w *Workspace) Undo() error {
	ed, err := w.ActiveEditor()
	if err != nil {
		return err
	}
	if err := ed.Undo(); err != nil {
		return err
	}
	w.publishChange(ed)
	return nil
}

// Redo reapplies an edit.
func (w *Workspace) Redo() error {
	ed, err := w.ActiveEditor()
	if err != nil {
		return err
	}
	if err := ed.Redo(); err != nil {
		return err
	}
	w.publishChange(ed)
	return nil
}

// ActiveEditor returns the current editor.
func (w *Workspace) ActiveEditor() (editor.Document, error) {
	if w.active == "" {
		return nil, errors.New("no active file")
	}
	ed, ok := w.editors[w.active]
	if !ok {
		return nil, errors.New("active file is not open")
	}
	return ed, nil
}

// EditorByPath returns an opened editor by path.
func (w *Workspace) EditorByPath(path string) (editor.Document, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	ed, ok := w.editors[abs]
	if !ok {
		return nil, fmt.Errorf("file not open: %s", path)
	}
	return ed, nil
}

// PublishCommand notifies observers about a command. outcome is appended to the command log when set.
func (w *Workspace) PublishCommand(name, raw, file, outcome string) {
	if w.bus == nil {
		return
	}
	metadata := map[string]string{}
	if w.active != "" {
		metadata["active"] = w.active
	}
	if outcome != "" {
		metadata["outcome"] = outcome
	}
	w.bus.Publish(events.Event{
		Type:      events.EventCommandExecuted,
		Timestamp: time.Now(),
		Command:   name,
		Raw:       raw,
		File:      file,
		Metadata:  metadata,
	})
}

// Persist saves workspace metadata.
func (w *Workspace) Persist() error {
	state := WorkspaceState{
		Active: w.active,
	}
	for path, ed := range w.editors {
		state.Editors = append(state.Editors, EditorState{
			Path:     path,
			Type:     string(ed.Type()),
			Modified: ed.IsModified(),
		})
	}
	state.Logging = w.logger.ActivePaths()
	w.stats.StopAll()
	return w.keeper.Save(state)
}

// Restore hydrates workspace from disk.
func (w *Workspace) Restore() error {
	state, err := w.keeper.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range state.Editors {
		if _, statErr := os.Stat(entry.Path); statErr != nil {
			continue
		}
		ed, loadErr := w.Load(entry.Path)
		if loadErr != nil {
			continue
		}
		ed.SetModified(entry.Modified)
	}
	if state.Active != "" {
		if _, ok := w.editors[state.Active]; ok {
			w.setActive(state.Active)
		}
	}
	w.logger.Restore(state.Logging)
	return nil
}

func (w *Workspace) target(path string) (editor.Document, error) {
	if path == "" {
		return w.ActiveEditor()
	}
	return w.EditorByPath(path)
}

// ResolvePath makes path absolute relative to the workspace directory.
func (w *Workspace) ResolvePath(path string) (string, error) {
	return w.resolvePath(path)
}

func (w *Workspace) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path must not be empty")
	}
	expanded := path
	if !filepath.IsAbs(path) {
		expanded = filepath.Join(w.baseDir, path)
	}
	return filepath.Abs(expanded)
}

func (w *Workspace) setActive(path string) {
	prev := w.active
	if prev == path {
		return
	}
	w.active = path
	w.stats.Switch(prev, path)
	if path != "" {
		w.touchHistory(path)
	}
}

func (w *Workspace) touchHistory(path string) {
	if path == "" {
		return
	}
	w.removeFromHistory(path)
	w.history = append([]string{path}, w.history...)
}

func (w *Workspace) removeFromHistory(path string) {
	next := w.history[:0]
	for _, item := range w.history {
		if item != path {
			next = append(next, item)
		}
	}
	w.history = next
}

func (w *Workspace) saveEditor(ed editor.Document) error {
	if err := os.MkdirAll(filepath.Dir(ed.Path()), 0o755); err != nil {
		return err
	}
	content, err := encode(ed)
	if err != nil {
		return err
	}
	return os.WriteFile(ed.Path(), []byte(content), 0o644)
}

func (w *Workspace) applyAutoLog(ed editor.Document) {
	first, _, _ := strings.Cut(ed.PlainText(), "\n")
	if strings.TrimSpace(first) == logMarker {
		_ = w.logger.Enable(ed.Path())
	}
}

// decode turns file bytes into document markup.
func decode(kind editor.Type, data []byte) (string, error) {
	switch kind {
	case editor.TypeText:
		if len(data) == 0 {
			return "", nil
		}
		return markup.FromPlainText(strings.TrimSuffix(string(data), "\n")), nil
	case editor.TypeMarkdown:
		return convert.MarkdownToHTML(data)
	default:
		return markup.Body(string(data))
	}
}

// encode renders a document for its file. Search annotations are never written.
func encode(ed editor.Document) (string, error) {
	content, err := ed.Content()
	if err != nil {
		return "", err
	}
	content, _ = findreplace.ClearAnnotations(content)
	if ed.Type() == editor.TypeText {
		return markup.PlainLines(content), nil
	}
	return content, nil
}
