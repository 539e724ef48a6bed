package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/net/webdav"
)

const (
	FolderPerm os.FileMode = 0o755
	FilePerm   os.FileMode = 0o644
)

// FileStore keeps attachment bytes under slash separated paths relative to
// its root.
type FileStore interface {
	Save(ctx context.Context, relPath string, data []byte) error
	Open(ctx context.Context, relPath string) (webdav.File, error)
	Stat(ctx context.Context, relPath string) (os.FileInfo, error)
	Remove(ctx context.Context, relPath string) error
}

// Disk is a FileStore over a webdav.FileSystem.
type Disk struct {
	fs webdav.FileSystem
}

// NewDisk stores files below root on the local file system.
func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, FolderPerm); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", root, err)
	}

	return &Disk{fs: webdav.Dir(root)}, nil
}

// NewMemory keeps files in memory.
func NewMemory() *Disk {
	return &Disk{fs: webdav.NewMemFS()}
}

func NewFileSystem(fs webdav.FileSystem) *Disk {
	return &Disk{fs: fs}
}

func (d *Disk) Save(ctx context.Context, relPath string, data []byte) error {
	name, err := clean(relPath)
	if err != nil {
		return err
	}

	if err := d.mkdirAll(ctx, path.Dir(name)); err != nil {
		return err
	}

	f, err := d.fs.OpenFile(ctx, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return f.Close()
}

func (d *Disk) Open(ctx context.Context, relPath string) (webdav.File, error) {
	name, err := clean(relPath)
	if err != nil {
		return nil, err
	}

	return d.fs.OpenFile(ctx, name, os.O_RDONLY, 0)
}

func (d *Disk) Stat(ctx context.Context, relPath string) (os.FileInfo, error) {
	name, err := clean(relPath)
	if err != nil {
		return nil, err
	}

	return d.fs.Stat(ctx, name)
}

// Remove deletes a single file. A missing file yields an error satisfying
// errors.Is(err, os.ErrNotExist).
func (d *Disk) Remove(ctx context.Context, relPath string) error {
	name, err := clean(relPath)
	if err != nil {
		return err
	}

	// RemoveAll succeeds on missing paths, so check first
	info, err := d.fs.Stat(ctx, name)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory", name)
	}

	return d.fs.RemoveAll(ctx, name)
}

func (d *Disk) mkdirAll(ctx context.Context, dir string) error {
	if dir == "/" || dir == "." {
		return nil
	}

	if info, err := d.fs.Stat(ctx, dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := d.mkdirAll(ctx, path.Dir(dir)); err != nil {
		return err
	}

	if err := d.fs.Mkdir(ctx, dir, FolderPerm); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

var ErrInvalidPath = errors.New("invalid storage path")

// clean roots relPath at "/" and rejects paths escaping the root.
func clean(relPath string) (string, error) {
	if relPath == "" || strings.Contains(relPath, "\x00") {
		return "", ErrInvalidPath
	}

	for _, part := range strings.Split(strings.ReplaceAll(relPath, "\\", "/"), "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}

	name := path.Clean("/" + relPath)
	if name == "/" {
		return "", ErrInvalidPath
	}

	return name, nil
}
