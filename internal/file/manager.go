package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
)

// Manager opens a database directory and serves paged reads/writes/appends
// for every named file inside it. A single mutex serialises all operations
// (spec §4.A): the file layer is the lowest level and correctness here is
// worth more than concurrency.
type Manager struct {
	mu        sync.Mutex
	dir       string
	blockSize int
	isNew     bool
	openFiles map[string]*os.File

	blocksRead    int64
	blocksWritten int64
}

// NewManager opens dir (creating it if absent), purging any stale .tmp or
// temp-*.tbl materialisation scratch files left by a prior crash (spec §4.A,
// §9 "Temp files").
func NewManager(dir string, blockSize int) (*Manager, error) {
	isNew := false
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		isNew = true
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dberrors.IoError(err, "create database directory %s", dir)
		}
	}

	m := &Manager{
		dir:       dir,
		blockSize: blockSize,
		isNew:     isNew,
		openFiles: make(map[string]*os.File),
	}

	if !isNew {
		if err := m.purgeStale(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) purgeStale() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return errors.Wrap(err, "list database directory")
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") || strings.HasPrefix(name, "temp-") {
			_ = os.Remove(filepath.Join(m.dir, name))
		}
	}
	return nil
}

// IsNew reports whether the database directory did not exist before this
// Manager created it.
func (m *Manager) IsNew() bool { return m.isNew }

// BlockSize returns the fixed block size B this database was opened with.
func (m *Manager) BlockSize() int { return m.blockSize }

func (m *Manager) getFile(filename string) (*os.File, error) {
	if f, ok := m.openFiles[filename]; ok {
		return f, nil
	}
	path := filepath.Join(m.dir, filename)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberrors.IoError(err, "open %s", filename)
	}
	m.openFiles[filename] = f
	return f, nil
}

// Read fills page with the contents of blk. Reading past end-of-file leaves
// the page zeroed, matching a block that was appended but never written.
func (m *Manager) Read(blk BlockID, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile(blk.Filename)
	if err != nil {
		return err
	}
	n, err := f.ReadAt(page.Bytes(), int64(blk.Number)*int64(m.blockSize))
	if err != nil && n == 0 {
		// Short/absent read past EOF: treat as a zero page (newly appended).
		for i := range page.Bytes() {
			page.buf[i] = 0
		}
		return nil
	}
	m.blocksRead++
	return nil
}

// Write persists page to blk.
func (m *Manager) Write(blk BlockID, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile(blk.Filename)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(page.Bytes(), int64(blk.Number)*int64(m.blockSize)); err != nil {
		return dberrors.IoError(err, "write %s", blk)
	}
	m.blocksWritten++
	return nil
}

// Append extends filename by one zeroed block and returns its number.
func (m *Manager) Append(filename string) (BlockID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	newBlockNum, err := m.lengthLocked(filename)
	if err != nil {
		return BlockID{}, err
	}
	blk := New(filename, newBlockNum)
	f, err := m.getFile(filename)
	if err != nil {
		return BlockID{}, err
	}
	zeros := make([]byte, m.blockSize)
	if _, err := f.WriteAt(zeros, int64(blk.Number)*int64(m.blockSize)); err != nil {
		return BlockID{}, dberrors.IoError(err, "append %s", filename)
	}
	m.blocksWritten++
	return blk, nil
}

// Length returns the number of blocks in filename.
func (m *Manager) Length(filename string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lengthLocked(filename)
}

func (m *Manager) lengthLocked(filename string) (int, error) {
	f, err := m.getFile(filename)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, dberrors.IoError(err, "stat %s", filename)
	}
	return int(info.Size() / int64(m.blockSize)), nil
}

// Remove closes and deletes filename, used to clean up materialization
// scratch files (spec §6 "temp files are deleted on close"). Removing a
// file that was never opened is not an error.
func (m *Manager) Remove(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.openFiles[filename]; ok {
		_ = f.Close()
		delete(m.openFiles, filename)
	}
	if err := os.Remove(filepath.Join(m.dir, filename)); err != nil && !os.IsNotExist(err) {
		return dberrors.IoError(err, "remove %s", filename)
	}
	return nil
}

// Stats returns the diagnostic block-read/block-written counters since open.
func (m *Manager) Stats() (read, written int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocksRead, m.blocksWritten
}

// Close releases every open file handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for _, f := range m.openFiles {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
