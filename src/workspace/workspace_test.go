package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"richdoc/src/convert"
	"richdoc/src/events"
	"richdoc/src/findreplace"
	"richdoc/src/logging"
	"richdoc/src/workspace"
)

type recorder struct {
	events []events.Event
}

func (r *recorder) Handle(evt events.Event) {
	if evt.Type == events.EventDocumentChanged {
		r.events = append(r.events, evt)
	}
}

func newWorkspace(t *testing.T) (*workspace.Workspace, string, *recorder) {
	t.Helper()
	dir := t.TempDir()
	bus := events.NewBus()
	rec := &recorder{}
	bus.Subscribe(rec)
	ws := workspace.NewWorkspace(dir, bus, workspace.NewStateKeeper(dir), logging.NewManager(), nil)
	return ws, dir, rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file failed: %v", err)
	}
	return string(data)
}

func TestWorkspaceLoadSaveCycle(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file := filepath.Join(dir, "sample.html")
	ed, err := ws.Load(file)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ed.IsModified() {
		t.Fatalf("new file should be marked modified")
	}
	if _, err := ws.ApplySource("<p>hello</p>"); err != nil {
		t.Fatalf("apply source failed: %v", err)
	}
	if err := ws.Save(""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got := readFile(t, file); got != "<p>hello</p>" {
		t.Fatalf("unexpected file content: %s", got)
	}
	if ed.IsModified() {
		t.Fatalf("save should clear the modified flag")
	}
	if err := ws.Persist(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	state, err := workspace.NewStateKeeper(dir).Load()
	if err != nil {
		t.Fatalf("load state failed: %v", err)
	}
	if len(state.Editors) != 1 || state.Editors[0].Path != file || state.Editors[0].Type != "html" {
		t.Fatalf("state missing editor info: %+v", state)
	}
}

func TestWorkspaceTextDocumentRoundTrip(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file := filepath.Join(dir, "notes.txt")
	writeFile(t, file, "line one\nline two\n")
	if _, err := ws.Load(file); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	shown, err := ws.Show()
	if err != nil || shown != "line one\n\nline two" {
		t.Fatalf("unexpected text %q: %v", shown, err)
	}
	res, err := ws.ReplaceAll("TWO", "2")
	if err != nil || res.Count != 1 {
		t.Fatalf("unexpected replace %+v: %v", res, err)
	}
	if err := ws.Save(""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got := readFile(t, file); got != "line one\nline 2" {
		t.Fatalf("text files must be saved as plain lines, got %q", got)
	}
}

func TestWorkspaceMarkdownSurvivesSaveAndReload(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file := filepath.Join(dir, "notes.md")
	writeFile(t, file, "# Title\n\nHello **world**")
	if _, err := ws.Load(file); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	first, _ := ws.Show()
	if err := ws.Save(""); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened := workspace.NewWorkspace(dir, events.NewBus(), workspace.NewStateKeeper(dir), logging.NewManager(), nil)
	ed, err := reopened.Load(file)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if ed.PlainText() != first || first != "Title\n\nHello world" {
		t.Fatalf("content changed across reload: before %q, after %q", first, ed.PlainText())
	}
	if strings.Contains(ed.Markup(), "raw HTML omitted") {
		t.Fatalf("saved markup was dropped on reload: %s", ed.Markup())
	}
	if ed.IsModified() {
		t.Fatalf("reloaded document should be clean")
	}
}

func TestWorkspaceFindKeepsSavedForm(t *testing.T) {
	ws, dir, rec := newWorkspace(t)
	file := filepath.Join(dir, "cats.html")
	writeFile(t, file, "<p>The cat sat on the cat mat.</p>")
	ed, err := ws.Load(file)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	res, err := ws.Find("CAT")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !res.Matched || res.Count != 2 {
		t.Fatalf("expected two matches, got %+v", res)
	}
	if strings.Count(ed.Markup(), findreplace.AnnotationOpen) != 2 {
		t.Fatalf("document should carry highlights: %s", ed.Markup())
	}
	if ed.IsModified() {
		t.Fatalf("highlighting must not mark the document modified")
	}
	if len(rec.events) != 1 || rec.events[0].Content != ed.Markup() {
		t.Fatalf("find should publish the annotated markup once, got %d events", len(rec.events))
	}
	if err := ws.Save(""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got := readFile(t, file); got != "<p>The cat sat on the cat mat.</p>" {
		t.Fatalf("highlights must not be saved: %s", got)
	}
	cleared, err := ws.ClearMarks()
	if err != nil || !cleared {
		t.Fatalf("clear marks should change the document: %v", err)
	}
	if again, _ := ws.ClearMarks(); again {
		t.Fatalf("second clear should be a no-op")
	}
}

func TestWorkspaceUndoFindKeepsDocumentClean(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file := filepath.Join(dir, "clean.html")
	writeFile(t, file, "<p>one cat</p>")
	ed, err := ws.Load(file)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := ws.Find("cat"); err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if err := ws.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if ed.Markup() != "<p>one cat</p>" || ed.IsModified() {
		t.Fatalf("undoing a highlight must leave the saved document clean: %s modified=%v", ed.Markup(), ed.IsModified())
	}
	if err := ws.Redo(); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if ed.IsModified() {
		t.Fatalf("redoing a highlight must leave the saved document clean")
	}
}

func TestWorkspaceListTracksSessionCounts(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file := filepath.Join(dir, "draft.html")
	writeFile(t, file, "<p>one two</p>")
	if _, err := ws.Load(file); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := ws.ReplaceAll("two", "two three four"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	infos := ws.List()
	if len(infos) != 1 {
		t.Fatalf("expected one editor, got %d", len(infos))
	}
	session := infos[0].Session
	if session.Opened.Words != 2 || session.Current.Words != 4 || session.WordsAdded() != 2 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestWorkspaceReplaceAllPublishesChange(t *testing.T) {
	ws, dir, rec := newWorkspace(t)
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := ws.ApplySource("<p>cat and cat</p>"); err != nil {
		t.Fatalf("apply source failed: %v", err)
	}
	rec.events = nil

	res, err := ws.ReplaceAll("dog", "x")
	if err != nil || res.Matched {
		t.Fatalf("absent term should not match: %+v %v", res, err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("a no-match must not publish a change")
	}
	res, err = ws.ReplaceAll("cat", "dog")
	if err != nil || res.Count != 2 {
		t.Fatalf("unexpected replace %+v: %v", res, err)
	}
	if len(rec.events) != 1 || rec.events[0].Content != "<p>dog and dog</p>" {
		t.Fatalf("replace should publish the new markup: %+v", rec.events)
	}
	if err := ws.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if src, _ := ws.Source(); src != "<p>cat and cat</p>" {
		t.Fatalf("undo should restore the previous markup: %s", src)
	}
	if len(rec.events) != 2 {
		t.Fatalf("undo should publish a change")
	}
	if err := ws.Redo(); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if src, _ := ws.Source(); src != "<p>dog and dog</p>" {
		t.Fatalf("redo should reapply the replacement: %s", src)
	}
}

func TestWorkspaceTransformAndClear(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	ws.ApplySource(`<p class="x">hello world</p>`)
	if changed, err := ws.Transform("capitalize"); err != nil || !changed {
		t.Fatalf("capitalize failed: %v", err)
	}
	if src, _ := ws.Source(); src != `<p class="x">Hello World</p>` {
		t.Fatalf("unexpected markup: %s", src)
	}
	if _, err := ws.Transform("reverse"); err == nil {
		t.Fatalf("unknown transforms must fail")
	}
	if changed, _ := ws.ClearContent(); !changed {
		t.Fatalf("clear content should change the document")
	}
	counts, err := ws.Stats("")
	if err != nil || counts.Words != 0 || counts.Characters != 0 {
		t.Fatalf("cleared document should be empty: %+v %v", counts, err)
	}
}

func TestWorkspaceStatsAndOutline(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	ws.ApplySource("<h1>Title</h1><p>two words</p>")
	ws.Find("words")
	counts, err := ws.Stats("")
	if err != nil || counts.Words != 3 {
		t.Fatalf("unexpected counts %+v: %v", counts, err)
	}
	tree, err := ws.Outline("")
	if err != nil {
		t.Fatalf("outline failed: %v", err)
	}
	if strings.Contains(tree, "mark") || !strings.Contains(tree, "h1") {
		t.Fatalf("outline should show the document without highlights:\n%s", tree)
	}
}

func TestWorkspaceSpellCheck(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	ws.ApplySource("<p>helo world</p>")
	report, err := ws.SpellCheck("")
	if err != nil {
		t.Fatalf("spell check failed: %v", err)
	}
	if !strings.Contains(report, `line 1, column 1: "helo"`) || !strings.Contains(report, "hello") {
		t.Fatalf("unexpected report:\n%s", report)
	}
}

func TestWorkspaceImportExport(t *testing.T) {
	ws, dir, rec := newWorkspace(t)
	source := filepath.Join(dir, "readme.md")
	writeFile(t, source, "# Notes\n\nsome *text*")
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if changed, err := ws.Import("readme.md"); err != nil || !changed {
		t.Fatalf("import failed: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("import should publish a change")
	}
	ws.Find("notes")
	written, err := ws.Export(convert.FormatHTML, "out/doc.html", false)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	exported := readFile(t, written)
	if !strings.Contains(exported, "<title>doc</title>") || !strings.Contains(exported, "<em>text</em>") {
		t.Fatalf("unexpected export:\n%s", exported)
	}
	if strings.Contains(exported, "data-find") {
		t.Fatalf("highlights must not be exported")
	}
	written, err = ws.Export(convert.FormatText, "out/doc.txt", false)
	if err != nil {
		t.Fatalf("text export failed: %v", err)
	}
	if got := readFile(t, written); got != "Notes\n\nsome text\n" {
		t.Fatalf("unexpected text export %q", got)
	}
	writeFile(t, filepath.Join(dir, "image.png"), "")
	if _, err := ws.Import("image.png"); !errors.Is(err, convert.ErrUnsupportedFormat) {
		t.Fatalf("unsupported import should fail, got %v", err)
	}
}

type fakeAutosave struct {
	content string
	err     error
}

func (f fakeAutosave) Restore(context.Context) (string, error) {
	return f.content, f.err
}

func TestWorkspaceRestoreAutosave(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	if _, err := ws.Init(filepath.Join(dir, "doc.html"), false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := ws.RestoreAutosave(context.Background()); err == nil {
		t.Fatalf("restore without a store should fail")
	}
	ws.SetAutosave(fakeAutosave{content: "<p>saved</p>"})
	changed, err := ws.RestoreAutosave(context.Background())
	if err != nil || !changed {
		t.Fatalf("restore failed: %v", err)
	}
	if src, _ := ws.Source(); src != "<p>saved</p>" {
		t.Fatalf("unexpected markup: %s", src)
	}
	missing := errors.New("missing")
	ws.SetAutosave(fakeAutosave{err: missing})
	if _, err := ws.RestoreAutosave(context.Background()); !errors.Is(err, missing) {
		t.Fatalf("store errors should be wrapped, got %v", err)
	}
}

func TestWorkspaceMultipleFiles(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	file1 := filepath.Join(dir, "file1.html")
	file2 := filepath.Join(dir, "file2.html")

	ed1, err := ws.Load(file1)
	if err != nil {
		t.Fatalf("load file1 failed: %v", err)
	}
	ed2, err := ws.Load(file2)
	if err != nil {
		t.Fatalf("load file2 failed: %v", err)
	}
	active, _ := ws.ActiveEditor()
	if active == nil || active.Path() != ed2.Path() {
		t.Fatalf("active editor should be file2")
	}
	if err := ws.Edit(file1); err != nil {
		t.Fatalf("edit file1 failed: %v", err)
	}
	active, _ = ws.ActiveEditor()
	if active == nil || active.Path() != ed1.Path() {
		t.Fatalf("active editor should be file1 after edit")
	}
	if err := ws.Close(""); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	active, _ = ws.ActiveEditor()
	if active == nil || active.Path() != ed2.Path() {
		t.Fatalf("closing should fall back to the most recent editor")
	}
	if err := ws.Close(""); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := ws.ActiveEditor(); err == nil {
		t.Fatalf("active editor should be nil after close")
	}
}

func TestWorkspaceInit(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewManager()
	ws := workspace.NewWorkspace(dir, events.NewBus(), workspace.NewStateKeeper(dir), logger, nil)
	writeFile(t, filepath.Join(dir, "exists.html"), "<p>x</p>")
	if _, err := ws.Init("exists.html", false); err == nil {
		t.Fatalf("init must refuse existing files")
	}
	ed, err := ws.Init("logged.html", true)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !logger.Enabled(ed.Path()) {
		t.Fatalf("with-log should enable the command log")
	}
	if ed.PlainText() != "# log" {
		t.Fatalf("unexpected seed content: %q", ed.PlainText())
	}
}

func TestWorkspaceDirTree(t *testing.T) {
	ws, dir, _ := newWorkspace(t)
	writeFile(t, filepath.Join(dir, "a.html"), "")
	writeFile(t, filepath.Join(dir, "b.bin"), "")
	tree, err := ws.DirTree("")
	if err != nil {
		t.Fatalf("dir tree failed: %v", err)
	}
	if tree != "└── a.html" {
		t.Fatalf("unexpected tree: %q", tree)
	}
}

func TestWorkspaceRestore(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.html")
	writeFile(t, file, "<p>kept</p>")
	keeper := workspace.NewStateKeeper(dir)
	first := workspace.NewWorkspace(dir, events.NewBus(), keeper, logging.NewManager(), nil)
	if _, err := first.Load(file); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := first.Persist(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	second := workspace.NewWorkspace(dir, events.NewBus(), keeper, logging.NewManager(), nil)
	if err := second.Restore(); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	ed, err := second.ActiveEditor()
	if err != nil || ed.Markup() != "<p>kept</p>" {
		t.Fatalf("restored workspace should reopen the document: %v", err)
	}
}
