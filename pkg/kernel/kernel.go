// Package kernel is the system-call surface over a file system: integer
// file handles and status codes. Every call takes one lock, so calls from
// different goroutines never interleave their reads and write-backs.
package kernel

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/weberc2/nachofs/pkg/filesys"
	"github.com/weberc2/nachofs/pkg/openfile"
	. "github.com/weberc2/nachofs/pkg/types"
)

// Handle identifies an open file. Valid handles are positive.
type Handle int

type Kernel struct {
	mutex   sync.Mutex
	fs      *filesys.FileSystem
	handles map[Handle]*openfile.OpenFile
	next    Handle
}

func New(fs *filesys.FileSystem) *Kernel {
	return &Kernel{
		fs:      fs,
		handles: make(map[Handle]*openfile.OpenFile),
		next:    1,
	}
}

func (k *Kernel) Create(path string, size Byte) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.Create(path, size)
}

func (k *Kernel) CreateDirectory(path string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.CreateDirectory(path)
}

// Open opens the file at `path` and returns a fresh handle for it.
func (k *Kernel) Open(path string) (Handle, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	file, err := k.fs.Open(path)
	if err != nil {
		return 0, err
	}
	handle := k.next
	k.next++
	k.handles[handle] = file
	return handle, nil
}

func (k *Kernel) Close(handle Handle) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if _, err := k.lookup(handle); err != nil {
		return err
	}
	delete(k.handles, handle)
	return nil
}

// Read reads up to `size` bytes from the handle's current position.
func (k *Kernel) Read(handle Handle, size int) ([]byte, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	file, err := k.lookup(handle)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		size = 0
	}
	if length := file.Length(); Byte(size) > length {
		size = int(length)
	}
	p := make([]byte, size)
	n, err := file.Read(p)
	if err != nil {
		return p[:n], fmt.Errorf("reading handle `%d`: %w", handle, err)
	}
	return p[:n], nil
}

// Write writes `p` at the handle's current position and returns the number
// of bytes that fit before the end of the file.
func (k *Kernel) Write(handle Handle, p []byte) (int, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	file, err := k.lookup(handle)
	if err != nil {
		return 0, err
	}
	n, err := file.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing handle `%d`: %w", handle, err)
	}
	return n, nil
}

func (k *Kernel) Seek(handle Handle, position Byte) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	file, err := k.lookup(handle)
	if err != nil {
		return err
	}
	file.Seek(position)
	return nil
}

func (k *Kernel) Remove(path string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.Remove(path)
}

func (k *Kernel) RecurRemoveDirectory(path string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.RecurRemoveDirectory(path)
}

func (k *Kernel) List(w io.Writer) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.List(w)
}

func (k *Kernel) ListDirectory(w io.Writer, path string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.ListDirectory(w, path)
}

func (k *Kernel) RecurListDirectory(w io.Writer, path string) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.RecurListDirectory(w, path)
}

func (k *Kernel) ReadDirectory(path string) ([]DirEntry, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.ReadDirectory(path)
}

func (k *Kernel) FreeSectors() (Sector, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.fs.FreeSectors()
}

func (k *Kernel) lookup(handle Handle) (*openfile.OpenFile, error) {
	if file, ok := k.handles[handle]; ok && handle > 0 {
		return file, nil
	}
	return nil, fmt.Errorf("handle `%d`: %w", handle, ErrInvalidHandle)
}

const (
	StatusOK     = 1
	StatusFailed = 0

	StatusNoSuchDirectory = -1
	StatusNotFound        = -2
	StatusAlreadyExists   = -3
	StatusDirectoryFull   = -4
	StatusNoSpace         = -5
	StatusInvalidHandle   = -6
	StatusNotADirectory   = -7
	StatusInvalidPath     = -8
	StatusInvalidSize     = -9
)

var statuses = []struct {
	err    error
	status int
}{
	{ErrNoSuchDirectory, StatusNoSuchDirectory},
	{ErrNotFound, StatusNotFound},
	{ErrAlreadyExists, StatusAlreadyExists},
	{ErrDirectoryFull, StatusDirectoryFull},
	{ErrNoFreeSector, StatusNoSpace},
	{ErrNoSpace, StatusNoSpace},
	{ErrFileTooLarge, StatusNoSpace},
	{ErrInvalidHandle, StatusInvalidHandle},
	{ErrNotADirectory, StatusNotADirectory},
	{ErrInvalidPath, StatusInvalidPath},
	{ErrInvalidSize, StatusInvalidSize},
}

// Status maps the result of a call to the integer a user program sees:
// StatusOK on success, a negative code for a known failure, and
// StatusFailed otherwise.
func Status(err error) int {
	if err == nil {
		return StatusOK
	}
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return StatusFailed
}
