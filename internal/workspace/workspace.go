// Package workspace is the file boundary of the tool: it opens container
// files for decoding and writes results atomically, all through an afero.Fs
// so commands can be tested against an in-memory file system.
package workspace

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
)

// readBufferSize is the bufio size used when streaming container files.
const readBufferSize = 64 * 1024

// Workspace handles file operations under an output directory.
type Workspace struct {
	fs  afero.Fs
	dir string
}

// New creates a workspace on fs rooted at dir. An empty dir resolves to
// DefaultDir.
func New(fs afero.Fs, dir string) *Workspace {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Workspace{fs: fs, dir: dir}
}

// OS creates a workspace on the host file system.
func OS(dir string) *Workspace {
	return New(afero.NewOsFs(), dir)
}

// DefaultDir returns ~/.ssoformats/output, or a relative fallback when the
// home directory is unknown.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ssoformats", "output")
	}
	return filepath.Join(homeDir, ".ssoformats", "output")
}

// Fs returns the underlying file system.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Dir returns the output directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// EnsureDir creates a directory and all parent directories
func (w *Workspace) EnsureDir(dir string) error {
	return w.fs.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func (w *Workspace) FileExists(name string) bool {
	_, err := w.fs.Stat(name)
	return err == nil
}

// FileSize returns the size of a file, or 0 if it doesn't exist
func (w *Workspace) FileSize(name string) int64 {
	info, err := w.fs.Stat(name)
	if err != nil {
		return 0
	}
	return info.Size()
}

// OutputPath maps an input file to a name under the output directory with
// the given extension appended. The whole input path is kept, with
// separators replaced by '@', so inputs that share a base name or differ
// only by extension get distinct outputs.
func (w *Workspace) OutputPath(input, ext string) string {
	name := filepath.Clean(input)
	name = strings.TrimPrefix(name, filepath.VolumeName(name))
	name = filepath.ToSlash(name)
	name = strings.TrimLeft(name, "/")
	name = strings.ReplaceAll(name, "/", "@")
	name = strings.ReplaceAll(name, " ", "_")
	return filepath.Join(w.dir, name+ext)
}

// Peek returns up to n leading bytes of name. A file shorter than n yields
// what it holds.
func (w *Workspace) Peek(name string, n int) ([]byte, error) {
	file, err := w.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf[:read], nil
}

// ReadText decodes a string table from name.
func (w *Workspace) ReadText(name string, opts *text.Options) (*text.File, error) {
	var f *text.File
	err := w.read(name, func(r io.Reader) error {
		var err error
		f, err = text.Read(r, opts)
		return err
	})
	return f, err
}

// ReadVF decodes a manifest from name.
func (w *Workspace) ReadVF(name string, opts *vf.Options) (*vf.File, error) {
	var f *vf.File
	err := w.read(name, func(r io.Reader) error {
		var err error
		f, err = vf.Read(r, opts)
		return err
	})
	return f, err
}

// WriteVF encodes f to name atomically.
func (w *Workspace) WriteVF(name string, f *vf.File) error {
	return w.WriteAtomic(name, f.Write)
}

func (w *Workspace) read(name string, decode func(io.Reader) error) error {
	file, err := w.fs.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	if err := decode(bufio.NewReaderSize(file, readBufferSize)); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// WriteAtomic streams write into a temporary file next to name and renames it
// into place once everything has been flushed. On any failure the temporary
// file is removed and name is left untouched.
func (w *Workspace) WriteAtomic(name string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(name)
	if err := w.EnsureDir(dir); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := w.fs.Remove(tmpName); rmErr != nil {
				slog.Warn("Failed to remove temporary file", "path", tmpName, "error", rmErr)
			}
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err = w.fs.Rename(tmpName, name); err != nil {
		return fmt.Errorf("renaming into %s: %w", name, err)
	}

	slog.Debug("Wrote file atomically", "path", name)
	return nil
}
