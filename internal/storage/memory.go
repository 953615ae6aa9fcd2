package storage

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

type memFile struct {
	data       []byte
	modifiedAt time.Time
	createdAt  time.Time
}

// Memory is an in-memory Provider. Directories exist implicitly as the
// parents of stored files. It is meant for tests and for embedding the
// engine over content that never touches disk.
type Memory struct {
	files  map[string]memFile
	faults map[string]error
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{
		files:  make(map[string]memFile),
		faults: make(map[string]error),
	}
}

// Put stores a file, replacing any previous content. Both timestamps are set
// to at.
func (m *Memory) Put(p string, data []byte, at time.Time) {
	p = cleanRel(p)
	created := at
	if old, ok := m.files[p]; ok {
		created = old.createdAt
	}
	m.files[p] = memFile{data: data, modifiedAt: at, createdAt: created}
}

// Remove deletes a file.
func (m *Memory) Remove(p string) {
	delete(m.files, cleanRel(p))
}

// Fail makes every operation on p return err. A nil err clears the fault.
func (m *Memory) Fail(p string, err error) {
	p = cleanRel(p)
	if err == nil {
		delete(m.faults, p)
		return
	}
	m.faults[p] = err
}

func (m *Memory) ReadFile(p string) ([]byte, error) {
	p = cleanRel(p)
	if err := m.faults[p]; err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	f, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

func (m *Memory) ReadDir(p string) ([]string, error) {
	p = cleanRel(p)
	if err := m.faults[p]; err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", p, err)
	}
	if !m.isDir(p) {
		return nil, fmt.Errorf("storage: list %s: %w", p, fs.ErrNotExist)
	}
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}
	seen := make(map[string]struct{})
	for name := range m.files {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		child, _, _ := strings.Cut(rest, "/")
		seen[child] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Stat(p string) (FileInfo, error) {
	p = cleanRel(p)
	if err := m.faults[p]; err != nil {
		return FileInfo{}, fmt.Errorf("storage: stat %s: %w", p, err)
	}
	if f, ok := m.files[p]; ok {
		return FileInfo{IsFile: true, ModifiedAt: f.modifiedAt, CreatedAt: f.createdAt}, nil
	}
	if m.isDir(p) {
		return FileInfo{IsDir: true}, nil
	}
	return FileInfo{}, fmt.Errorf("storage: stat %s: %w", p, fs.ErrNotExist)
}

func (m *Memory) Exists(p string) bool {
	p = cleanRel(p)
	if _, ok := m.files[p]; ok {
		return true
	}
	return m.isDir(p)
}

func (m *Memory) isDir(p string) bool {
	if p == "" {
		return true
	}
	for name := range m.files {
		if strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}

func cleanRel(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}

var (
	_ Provider = (*FS)(nil)
	_ Provider = (*Memory)(nil)
)
