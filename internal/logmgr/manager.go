// Package logmgr implements the write-ahead log (spec §4.B): a single
// append-only log file addressed by monotonically increasing LSNs, with a
// backwards iterator used by recovery and rollback. Records grow
// right-to-left within a page the way the teacher's pager.WALFile grows a
// page header forward and payload backward — here the boundary offset at
// byte 0 of each page plays that role, following the original SimpleDB
// "boundary" layout spec.md §4.B prescribes.
package logmgr

import (
	"sync"

	"github.com/flowlight0/simpledb-go/internal/file"
)

// LSN is a 1-based log sequence number: the append order of a record.
type LSN int64

// Manager owns the single log file "<name>" inside the database directory
// and serves append/flush/iterate.
type Manager struct {
	mu         sync.Mutex
	fm         *file.Manager
	logfile    string
	logpage    *file.Page
	currentBlk file.BlockID
	latestLSN  LSN
	lastSavedL LSN
}

// NewManager opens (or creates) the log file logfile inside fm's database
// directory.
func NewManager(fm *file.Manager, logfile string) (*Manager, error) {
	m := &Manager{fm: fm, logfile: logfile}
	length, err := fm.Length(logfile)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		blk, err := fm.Append(logfile)
		if err != nil {
			return nil, err
		}
		m.logpage = file.NewPage(fm.BlockSize())
		m.logpage.SetInt(0, int32(fm.BlockSize()))
		if err := fm.Write(blk, m.logpage); err != nil {
			return nil, err
		}
		m.currentBlk = blk
	} else {
		m.currentBlk = file.New(logfile, length-1)
		m.logpage = file.NewPage(fm.BlockSize())
		if err := fm.Read(m.currentBlk, m.logpage); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Append writes rec as the newest log record and returns its LSN. Records
// are packed right-to-left within the current page; when rec no longer
// fits, a new page is appended first.
func (m *Manager) Append(rec []byte) (LSN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	boundary := int(m.logpage.GetInt(0))
	recSize := len(rec) + 4 // +4 for the length prefix SetBytes writes
	bytesNeeded := recSize

	if boundary-bytesNeeded < 4 {
		if err := m.flushLocked(); err != nil {
			return 0, err
		}
		blk, err := m.fm.Append(m.logfile)
		if err != nil {
			return 0, err
		}
		m.currentBlk = blk
		m.logpage = file.NewPage(m.fm.BlockSize())
		m.logpage.SetInt(0, int32(m.fm.BlockSize()))
		boundary = m.fm.BlockSize()
	}

	recPos := boundary - bytesNeeded
	m.logpage.SetBytes(recPos, rec)
	m.logpage.SetInt(0, int32(recPos))
	m.latestLSN++
	return m.latestLSN, nil
}

// Flush ensures every record up to and including lsn is durable.
func (m *Manager) Flush(lsn LSN) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lsn > m.lastSavedL {
		return m.flushLocked()
	}
	return nil
}

func (m *Manager) flushLocked() error {
	if err := m.fm.Write(m.currentBlk, m.logpage); err != nil {
		return err
	}
	m.lastSavedL = m.latestLSN
	return nil
}

// Iterator returns a backwards cursor over every appended record, most
// recent first, after forcing any buffered page to disk.
func (m *Manager) Iterator() (*Iterator, error) {
	m.mu.Lock()
	if err := m.flushLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	blk := m.currentBlk
	m.mu.Unlock()

	it := &Iterator{fm: m.fm, blk: blk, page: file.NewPage(m.fm.BlockSize())}
	if err := it.moveToBlock(blk); err != nil {
		return nil, err
	}
	return it, nil
}

// Iterator walks log records from newest to oldest.
type Iterator struct {
	fm          *file.Manager
	blk         file.BlockID
	page        *file.Page
	currentPos  int
	boundary    int
}

func (it *Iterator) moveToBlock(blk file.BlockID) error {
	if err := it.fm.Read(blk, it.page); err != nil {
		return err
	}
	it.boundary = int(it.page.GetInt(0))
	it.currentPos = it.boundary
	it.blk = blk
	return nil
}

// HasNext reports whether another (older) record remains.
func (it *Iterator) HasNext() bool {
	return it.currentPos < it.fm.BlockSize() || it.blk.Number > 0
}

// Next returns the next record moving backwards through the log.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPos == it.fm.BlockSize() {
		blk := file.New(it.blk.Filename, it.blk.Number-1)
		if err := it.moveToBlock(blk); err != nil {
			return nil, err
		}
	}
	rec := it.page.GetBytes(it.currentPos)
	it.currentPos += 4 + len(rec)
	return rec, nil
}
