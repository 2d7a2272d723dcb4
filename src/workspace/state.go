package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFile = ".richdoc_workspace"

// EditorState stores lightweight editor metadata.
type EditorState struct {
	Path     string `json:"path"`
	Type     string `json:"type,omitempty"`
	Modified bool   `json:"modified"`
}

// WorkspaceState captures persisted workspace info.
type WorkspaceState struct {
	Editors []EditorState `json:"editors"`
	Active  string        `json:"active"`
	Logging []string      `json:"logging"`
	SavedAt time.Time     `json:"saved_at"`
}

// StateKeeper reads/writes workspace state.
type StateKeeper struct {
	path string
}

// NewStateKeeper builds a state keeper rooted at baseDir.
func NewStateKeeper(baseDir string) *StateKeeper {
	return &StateKeeper{
		path: filepath.Join(baseDir, stateFile),
	}
}

// Path returns the state file location.
func (s *StateKeeper) Path() string {
	return s.path
}

// Save persists workspace state to disk, replacing the previous file atomically.
func (s *StateKeeper) Save(state WorkspaceState) error {
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load restores workspace state if present.
func (s *StateKeeper) Load() (WorkspaceState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return WorkspaceState{}, err
	}
	var state WorkspaceState
	if err := json.Unmarshal(data, &state); err != nil {
		return WorkspaceState{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return state, nil
}
