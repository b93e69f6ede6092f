package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pion/logging"
)

// fileVersion is the on-disk format version.
const fileVersion = 1

var (
	fileEncMode cbor.EncMode
	fileDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	fileEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create store CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	fileDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create store CBOR decoder mode: %v", err))
	}
}

// fileState is the CBOR document written to disk.
type fileState struct {
	Version    int                 `cbor:"0,keyasint"`
	Controller *Controller         `cbor:"1,keyasint,omitempty"`
	Pairings   map[string]*Pairing `cbor:"2,keyasint"`
}

// FileStorage is a Storage kept in a single CBOR file. Every write replaces
// the file atomically.
//
// All methods are safe for concurrent use within one process.
type FileStorage struct {
	path string
	log  logging.LeveledLogger

	mu    sync.RWMutex
	state fileState
}

// FileStorageConfig configures a FileStorage.
type FileStorageConfig struct {
	// Path of the CBOR file. Parent directories are created on first write.
	Path string

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// OpenFileStorage loads the store at config.Path. A missing file yields an
// empty store.
func OpenFileStorage(config FileStorageConfig) (*FileStorage, error) {
	if config.Path == "" {
		return nil, errors.New("store: empty path")
	}

	s := &FileStorage{
		path:  config.Path,
		state: fileState{Version: fileVersion, Pairings: make(map[string]*Pairing)},
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("store")
	}

	data, err := os.ReadFile(config.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if s.log != nil {
			s.log.Debugf("no store at %s, starting empty", config.Path)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", config.Path, err)
	}

	var st fileState
	if err := fileDecMode.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", config.Path, err)
	}
	if st.Version != fileVersion {
		return nil, fmt.Errorf("store: %s: unsupported version %d", config.Path, st.Version)
	}
	if st.Pairings == nil {
		st.Pairings = make(map[string]*Pairing)
	}
	s.state = st

	if s.log != nil {
		s.log.Debugf("loaded store %s: %d pairings", config.Path, len(st.Pairings))
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStorage) Path() string {
	return s.path
}

// LoadController returns the stored controller identity.
func (s *FileStorage) LoadController() (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Controller == nil {
		return nil, ErrNotFound
	}
	return s.state.Controller.Clone(), nil
}

// SaveController stores the controller identity.
func (s *FileStorage) SaveController(c *Controller) error {
	if c == nil || c.ID == "" {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Controller
	s.state.Controller = c.Clone()
	if err := s.flush(); err != nil {
		s.state.Controller = prev
		return err
	}
	return nil
}

// LoadPairings returns all pairings sorted by accessory ID.
func (s *FileStorage) LoadPairings() ([]*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedPairings(s.state.Pairings), nil
}

// LoadPairing returns the pairing for accessoryID.
func (s *FileStorage) LoadPairing(accessoryID string) (*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.Pairings[accessoryID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// SavePairing stores or replaces a pairing.
func (s *FileStorage) SavePairing(p *Pairing) error {
	if p == nil || p.AccessoryID == "" {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.state.Pairings[p.AccessoryID]
	s.state.Pairings[p.AccessoryID] = p.Clone()
	if err := s.flush(); err != nil {
		if existed {
			s.state.Pairings[p.AccessoryID] = prev
		} else {
			delete(s.state.Pairings, p.AccessoryID)
		}
		return err
	}
	return nil
}

// DeletePairing removes a pairing. Deleting an unknown ID returns ErrNotFound.
func (s *FileStorage) DeletePairing(accessoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.state.Pairings[accessoryID]
	if !ok {
		return ErrNotFound
	}
	delete(s.state.Pairings, accessoryID)
	if err := s.flush(); err != nil {
		s.state.Pairings[accessoryID] = prev
		return err
	}
	return nil
}

// flush writes the state to a temporary file and renames it over the store.
// Callers must hold s.mu.
func (s *FileStorage) flush() error {
	data, err := fileEncMode.Marshal(&s.state)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if s.log != nil {
		s.log.Tracef("wrote %d bytes to %s", len(data), s.path)
	}
	return nil
}
