package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"richdoc/src/events"
	"richdoc/src/logging"
)

func TestManagerLoggingFlow(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "demo.html")
	if err := os.WriteFile(file, []byte("<p>demo</p>"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
	mgr := logging.NewManager()
	if err := mgr.Enable(file); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	mgr.Handle(events.Event{
		Type:      events.EventCommandExecuted,
		Command:   "replace-all",
		Raw:       "replace-all \"cat\" \"dog\"",
		File:      file,
		Timestamp: time.Now(),
		Metadata:  map[string]string{"outcome": "2 matches for \"cat\""},
	})
	content, err := mgr.Show(file)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(content, "replace-all \"cat\" \"dog\" => 2 matches") {
		t.Fatalf("log missing command, content: %s", content)
	}
	if len(mgr.ActivePaths()) != 1 {
		t.Fatalf("expected one active path")
	}
}

func TestManagerIgnoresDocumentEvents(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "demo.html")
	mgr := logging.NewManager()
	if err := mgr.Enable(file); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	mgr.Handle(events.Event{Type: events.EventDocumentChanged, File: file, Raw: "should not appear"})
	content, err := mgr.Show(file)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if strings.Contains(content, "should not appear") {
		t.Fatalf("document events must not be logged: %s", content)
	}
}

func TestManagerEnableDisable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.html")

	mgr := logging.NewManager()
	if err := mgr.Enable(file); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !mgr.Enabled(file) {
		t.Fatalf("file should be enabled")
	}
	if err := mgr.Disable(file); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if len(mgr.ActivePaths()) != 0 {
		t.Fatalf("should have no active paths after disable")
	}
}

func TestManagerSessionStartAndTail(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.html")

	mgr := logging.NewManager()
	if err := mgr.Enable(file); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	for _, cmd := range []string{"find \"a\"", "find \"b\""} {
		mgr.Handle(events.Event{Type: events.EventCommandExecuted, Raw: cmd, File: file, Timestamp: time.Now()})
	}
	content, err := mgr.Show(file)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(content, "session start at") {
		t.Fatalf("log should contain session start, content: %s", content)
	}
	tail, err := mgr.Tail(file, 1)
	if err != nil {
		t.Fatalf("tail failed: %v", err)
	}
	if strings.Contains(tail, "\n") || !strings.HasSuffix(tail, "find \"b\"") {
		t.Fatalf("tail should hold the last line only: %q", tail)
	}
}

func TestInitLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logging.InitLogger(slog.LevelWarn, logging.FormatJSON, &buf)
	slog.Info("hidden")
	slog.Warn("visible", "key", "value")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"visible"`) || !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
	logging.InitLogger(slog.LevelInfo, logging.FormatText, &bytes.Buffer{})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError}
	for name, want := range cases {
		got, err := logging.ParseLevel(name)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := logging.ParseLevel("loud"); err == nil {
		t.Fatalf("unknown level should fail")
	}
}
