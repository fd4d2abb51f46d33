package sessions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"cinevox/client/internal/types"
)

const (
	stateVersion    = 1
	stateDirMode    = 0o700
	stateFileMode   = 0o600
	tempFilePattern = ".state-*.toml"
)

// State is everything the client persists between runs.
type State struct {
	Version   int                     `toml:"version"`
	Auth      AuthState               `toml:"auth"`
	Selection *types.BookingSelection `toml:"selection,omitempty"`
}

type AuthState struct {
	Token string     `toml:"token,omitempty"`
	User  types.User `toml:"user"`
}

type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
}

// FileStore keeps State in a TOML file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{Version: stateVersion}, nil
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := toml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode state file: %w", err)
	}
	if st.Version > stateVersion {
		return State{}, fmt.Errorf("state file version %d is newer than supported %d", st.Version, stateVersion)
	}
	st.Version = stateVersion
	return st, nil
}

func (s *FileStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Version = stateVersion
	if err := os.MkdirAll(filepath.Dir(s.path), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(stateFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	cleanup = false
	return nil
}

// MemoryStore keeps State in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	st State
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{st: State{Version: stateVersion}} }

func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneState(m.st), nil
}

func (m *MemoryStore) Save(ctx context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = cloneState(st)
	return nil
}

func cloneState(st State) State {
	out := st
	if st.Selection != nil {
		sel := *st.Selection
		sel.Seats = append([]types.Seat(nil), st.Selection.Seats...)
		out.Selection = &sel
	}
	return out
}
