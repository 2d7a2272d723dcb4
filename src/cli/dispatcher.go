package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"richdoc/src/convert"
	"richdoc/src/logging"
	"richdoc/src/workspace"
)

// Dispatcher interprets user commands.
type Dispatcher struct {
	ws      *workspace.Workspace
	console *Console
	logger  *logging.Manager
	ctx     context.Context
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(ws *workspace.Workspace, console *Console, logger *logging.Manager) *Dispatcher {
	return &Dispatcher{
		ws:      ws,
		console: console,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// Run processes interactive commands until exit or until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.ctx = ctx
	lines := make(chan readResult, 1)
	for {
		d.console.Print("> ")
		go func() {
			line, err := d.console.ReadLine()
			lines <- readResult{line: line, err: err}
		}()
		var next readResult
		select {
		case <-ctx.Done():
			d.console.Println("")
			d.interrupt()
			return
		case next = <-lines:
		}
		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				_ = d.handleExit()
				return
			}
			d.console.Println(fmt.Sprintf("read command failed: %v", next.err))
			continue
		}
		exit, err := d.execute(next.line)
		if err != nil {
			slog.Debug("command failed", "command", next.line, "error", err)
			d.console.Println(fmt.Sprintf("error: %v", err))
			continue
		}
		if exit {
			return
		}
	}
}

type readResult struct {
	line string
	err  error
}

// interrupt persists the workspace without prompting. The pending read still owns the console.
func (d *Dispatcher) interrupt() {
	if err := d.ws.Persist(); err != nil {
		slog.Warn("persist workspace failed", "error", err)
		d.console.Println(fmt.Sprintf("error: %v", err))
		return
	}
	d.console.Println("interrupted, workspace saved")
}

// Execute runs a single command.
func (d *Dispatcher) Execute(raw string) error {
	_, err := d.execute(raw)
	return err
}

// result is what a command reports back to the dispatcher loop.
type result struct {
	file    string
	outcome string
}

func (d *Dispatcher) execute(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	tokens, err := tokenize(raw)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]
	if cmd == "exit" {
		return true, d.handleExit()
	}
	handler, ok := d.handlers()[cmd]
	if !ok {
		return false, fmt.Errorf("unknown command: %s", cmd)
	}
	res, err := handler(args)
	if err != nil {
		return false, err
	}
	d.ws.PublishCommand(cmd, raw, res.file, res.outcome)
	return false, nil
}

func (d *Dispatcher) handlers() map[string]func([]string) (result, error) {
	return map[string]func([]string) (result, error){
		"load":             d.load,
		"init":             d.initBuffer,
		"save":             d.save,
		"close":            d.closeFile,
		"edit":             d.edit,
		"editor-list":      d.editorList,
		"dir-tree":         d.dirTree,
		"undo":             d.undo,
		"redo":             d.redo,
		"find":             d.find,
		"replace-all":      d.replaceAll,
		"clear-marks":      d.clearMarks,
		"source":           d.source,
		"source-apply":     d.sourceApply,
		"show":             d.show,
		"stats":            d.stats,
		"transform":        d.transform,
		"clear-content":    d.clearContent,
		"outline":          d.outline,
		"spell-check":      d.spellCheck,
		"import":           d.importFile,
		"export":           d.export,
		"autosave-restore": d.autosaveRestore,
		"log-on":           d.logOn,
		"log-off":          d.logOff,
		"log-show":         d.logShow,
	}
}

func (d *Dispatcher) load(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New("usage: load <file>")
	}
	ed, err := d.ws.Load(args[0])
	if err != nil {
		return result{}, err
	}
	d.console.Println("loaded: " + ed.Path())
	return result{file: ed.Path()}, nil
}

func (d *Dispatcher) initBuffer(args []string) (result, error) {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "with-log") {
		return result{}, errors.New("usage: init <file> [with-log]")
	}
	ed, err := d.ws.Init(args[0], len(args) == 2)
	if err != nil {
		return result{}, err
	}
	d.console.Println("created buffer: " + ed.Path())
	return result{file: ed.Path()}, nil
}

func (d *Dispatcher) save(args []string) (result, error) {
	switch {
	case len(args) == 0:
		if err := d.ws.Save(""); err != nil {
			return result{}, err
		}
		d.console.Println("saved active file")
		return result{file: d.activePath()}, nil
	case len(args) == 1 && strings.EqualFold(args[0], "all"):
		if err := d.ws.SaveAll(); err != nil {
			return result{}, err
		}
		d.console.Println("saved all files")
		return result{}, nil
	case len(args) == 1:
		ed, err := d.ws.EditorByPath(args[0])
		if err != nil {
			return result{}, err
		}
		if err := d.ws.Save(args[0]); err != nil {
			return result{}, err
		}
		d.console.Println("saved: " + ed.Path())
		return result{file: ed.Path()}, nil
	default:
		return result{}, errors.New("usage: save [file|all]")
	}
}

func (d *Dispatcher) closeFile(args []string) (result, error) {
	if len(args) > 1 {
		return result{}, errors.New("usage: close [file]")
	}
	var requesting, target string
	if len(args) == 1 {
		requesting = args[0]
		if ed, err := d.ws.EditorByPath(requesting); err == nil {
			target = ed.Path()
		}
	} else {
		target = d.activePath()
	}
	if err := d.ws.Close(requesting); err != nil {
		return result{}, err
	}
	d.console.Println("closed")
	return result{file: target}, nil
}

func (d *Dispatcher) edit(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New("usage: edit <file>")
	}
	if err := d.ws.Edit(args[0]); err != nil {
		return result{}, err
	}
	d.console.Println("switched active file")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) editorList([]string) (result, error) {
	infos := d.ws.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	for _, info := range infos {
		activeMark := " "
		if info.Active {
			activeMark = "*"
		}
		line := fmt.Sprintf("%s %s", activeMark, info.Name)
		if info.Modified {
			line += " [modified]"
		}
		line += fmt.Sprintf(" (%s)", info.Session)
		d.console.Println(line)
	}
	return result{}, nil
}

func (d *Dispatcher) dirTree(args []string) (result, error) {
	if len(args) > 1 {
		return result{}, errors.New("usage: dir-tree [dir]")
	}
	var dir string
	if len(args) == 1 {
		dir = args[0]
	}
	tree, err := d.ws.DirTree(dir)
	if err != nil {
		return result{}, err
	}
	if tree == "" {
		d.console.Println("(no documents)")
	} else {
		d.console.Println(tree)
	}
	return result{}, nil
}

func (d *Dispatcher) undo([]string) (result, error) {
	if err := d.ws.Undo(); err != nil {
		return result{}, err
	}
	d.console.Println("undone")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) redo([]string) (result, error) {
	if err := d.ws.Redo(); err != nil {
		return result{}, err
	}
	d.console.Println("redone")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) find(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New(`usage: find "term"`)
	}
	res, err := d.ws.Find(args[0])
	if err != nil {
		return result{}, err
	}
	if res.Term == "" {
		return result{file: d.activePath()}, nil
	}
	msg := res.Message()
	d.console.Println(msg)
	return result{file: d.activePath(), outcome: msg}, nil
}

func (d *Dispatcher) replaceAll(args []string) (result, error) {
	if len(args) != 2 {
		return result{}, errors.New(`usage: replace-all "term" "replacement"`)
	}
	res, err := d.ws.ReplaceAll(args[0], args[1])
	if err != nil {
		return result{}, err
	}
	if res.Term == "" {
		return result{file: d.activePath()}, nil
	}
	var msg string
	switch {
	case !res.Matched:
		msg = res.Message()
	case res.Count == 0:
		msg = fmt.Sprintf("%q spans formatting and was not replaced", res.Term)
	case res.Count == 1:
		msg = fmt.Sprintf("replaced 1 occurrence of %q", res.Term)
	default:
		msg = fmt.Sprintf("replaced %d occurrences of %q", res.Count, res.Term)
	}
	d.console.Println(msg)
	return result{file: d.activePath(), outcome: msg}, nil
}

func (d *Dispatcher) clearMarks([]string) (result, error) {
	changed, err := d.ws.ClearMarks()
	if err != nil {
		return result{}, err
	}
	if changed {
		d.console.Println("highlights cleared")
	} else {
		d.console.Println("no highlights")
	}
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) source([]string) (result, error) {
	src, err := d.ws.Source()
	if err != nil {
		return result{}, err
	}
	d.console.Println(src)
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) sourceApply(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New(`usage: source-apply "html"`)
	}
	changed, err := d.ws.ApplySource(args[0])
	if err != nil {
		return result{}, err
	}
	d.printChange(changed, "source applied")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) show([]string) (result, error) {
	text, err := d.ws.Show()
	if err != nil {
		return result{}, err
	}
	if text == "" {
		d.console.Println("(empty document)")
		return result{file: d.activePath()}, nil
	}
	for i, line := range strings.Split(text, "\n") {
		d.console.Println(fmt.Sprintf("%d: %s", i+1, line))
	}
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) stats(args []string) (result, error) {
	if len(args) > 1 {
		return result{}, errors.New("usage: stats [file]")
	}
	file, err := d.resolveOpenFile(args)
	if err != nil {
		return result{}, err
	}
	counts, err := d.ws.Stats(file)
	if err != nil {
		return result{}, err
	}
	d.console.Println(counts.String())
	return result{file: file}, nil
}

func (d *Dispatcher) transform(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New("usage: transform upper|lower|capitalize")
	}
	changed, err := d.ws.Transform(args[0])
	if err != nil {
		return result{}, err
	}
	d.printChange(changed, "text transformed")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) clearContent([]string) (result, error) {
	changed, err := d.ws.ClearContent()
	if err != nil {
		return result{}, err
	}
	d.printChange(changed, "content cleared")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) outline(args []string) (result, error) {
	if len(args) > 1 {
		return result{}, errors.New("usage: outline [file]")
	}
	file, err := d.resolveOpenFile(args)
	if err != nil {
		return result{}, err
	}
	tree, err := d.ws.Outline(file)
	if err != nil {
		return result{}, err
	}
	if tree == "" {
		d.console.Println("(empty document)")
	} else {
		d.console.Println(tree)
	}
	return result{file: file}, nil
}

func (d *Dispatcher) spellCheck(args []string) (result, error) {
	if len(args) > 1 {
		return result{}, errors.New("usage: spell-check [file]")
	}
	file, err := d.resolveOpenFile(args)
	if err != nil {
		return result{}, err
	}
	report, err := d.ws.SpellCheck(file)
	if err != nil {
		return result{}, err
	}
	d.console.Println(report)
	return result{file: file}, nil
}

func (d *Dispatcher) importFile(args []string) (result, error) {
	if len(args) != 1 {
		return result{}, errors.New("usage: import <file>")
	}
	changed, err := d.ws.Import(args[0])
	if err != nil {
		return result{}, err
	}
	d.printChange(changed, "imported "+args[0])
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) export(args []string) (result, error) {
	if len(args) < 2 || len(args) > 3 || (len(args) == 3 && args[2] != "xz") {
		return result{}, errors.New("usage: export <html|text|doc> <file> [xz]")
	}
	format, err := convert.ParseFormat(args[0])
	if err != nil {
		return result{}, err
	}
	written, err := d.ws.Export(format, args[1], len(args) == 3)
	if err != nil {
		return result{}, err
	}
	d.console.Println("exported: " + written)
	return result{file: d.activePath(), outcome: written}, nil
}

func (d *Dispatcher) autosaveRestore([]string) (result, error) {
	changed, err := d.ws.RestoreAutosave(d.ctx)
	if err != nil {
		return result{}, err
	}
	d.printChange(changed, "autosaved content restored")
	return result{file: d.activePath()}, nil
}

func (d *Dispatcher) logOn(args []string) (result, error) {
	file, err := d.resolveFileArg(args)
	if err != nil {
		return result{}, err
	}
	if err := d.logger.Enable(file); err != nil {
		return result{}, err
	}
	d.console.Println("command log enabled")
	return result{file: file}, nil
}

func (d *Dispatcher) logOff(args []string) (result, error) {
	file, err := d.resolveFileArg(args)
	if err != nil {
		return result{}, err
	}
	if err := d.logger.Disable(file); err != nil {
		return result{}, err
	}
	d.console.Println("command log disabled")
	return result{file: file}, nil
}

func (d *Dispatcher) logShow(args []string) (result, error) {
	if len(args) > 2 {
		return result{}, errors.New("usage: log-show [file] [lines]")
	}
	lines := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			lines = n
			args = args[:len(args)-1]
		}
	}
	file, err := d.resolveFileArg(args)
	if err != nil {
		return result{}, err
	}
	content, err := d.logger.Tail(file, lines)
	if err != nil {
		return result{}, err
	}
	d.console.Println(strings.TrimRight(content, "\n"))
	return result{file: file}, nil
}

func (d *Dispatcher) printChange(changed bool, msg string) {
	if changed {
		d.console.Println(msg)
		return
	}
	d.console.Println("no changes")
}

func (d *Dispatcher) activePath() string {
	ed, err := d.ws.ActiveEditor()
	if err != nil {
		return ""
	}
	return ed.Path()
}

// resolveOpenFile returns the path of an open editor named by args, or the active one.
func (d *Dispatcher) resolveOpenFile(args []string) (string, error) {
	if len(args) == 1 {
		ed, err := d.ws.EditorByPath(args[0])
		if err != nil {
			return "", err
		}
		return ed.Path(), nil
	}
	ed, err := d.ws.ActiveEditor()
	if err != nil {
		return "", err
	}
	return ed.Path(), nil
}

func (d *Dispatcher) resolveFileArg(args []string) (string, error) {
	if len(args) > 1 {
		return "", errors.New("too many arguments")
	}
	if len(args) == 1 {
		if ed, err := d.ws.EditorByPath(args[0]); err == nil {
			return ed.Path(), nil
		}
		return d.ws.ResolvePath(args[0])
	}
	ed, err := d.ws.ActiveEditor()
	if err != nil {
		return "", err
	}
	return ed.Path(), nil
}

func (d *Dispatcher) handleExit() error {
	infos := d.ws.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	for _, info := range infos {
		if !info.Modified {
			continue
		}
		save, err := d.console.ConfirmSave(info.Path)
		if err != nil {
			return err
		}
		if save {
			if err := d.ws.Save(info.Path); err != nil {
				return err
			}
		}
	}
	if err := d.ws.Persist(); err != nil {
		return err
	}
	d.console.Println("workspace saved, bye")
	return nil
}

func tokenize(line string) ([]string, error) {
	var tokens []string
	var builder strings.Builder
	inQuotes := false
	tokenReady := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '\\' && inQuotes && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
			i++
			builder.WriteByte(line[i])
		case ch == '"':
			if inQuotes {
				inQuotes = false
				if builder.Len() == 0 {
					tokenReady = true
				}
			} else {
				inQuotes = true
			}
		case ch == ' ' || ch == '\t':
			if inQuotes {
				builder.WriteByte(ch)
			} else if builder.Len() > 0 || tokenReady {
				tokens = append(tokens, builder.String())
				builder.Reset()
				tokenReady = false
			}
		default:
			builder.WriteByte(ch)
			tokenReady = false
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated quote")
	}
	if builder.Len() > 0 || tokenReady {
		tokens = append(tokens, builder.String())
	}
	return tokens, nil
}
