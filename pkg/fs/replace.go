// Package fs writes files atomically by way of a temporary file in the
// same directory.
package fs

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrAborted = errors.New("replacer aborted")

// Replacer is an io.WriteCloser that atomically replaces the content of a
// file.  Either Close or Abort must be called.  Close renames the temporary
// file to the target name while Abort leaves any existing file unmodified.
type Replacer struct {
	f        *os.File
	err      error
	filename string
	perm     os.FileMode
}

func NewFileReplacer(filename string, perm os.FileMode) (*Replacer, error) {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(filename), ".tmp-"+filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	return &Replacer{
		f:        f,
		filename: filename,
		perm:     perm,
	}, nil
}

func (r *Replacer) Write(b []byte) (int, error) {
	n, err := r.f.Write(b)
	if err != nil {
		r.err = err
	}
	return n, err
}

func (r *Replacer) Abort() {
	if r.err == nil {
		r.err = ErrAborted
	}
	_ = r.close()
}

func (r *Replacer) Close() error {
	return r.close()
}

func (r *Replacer) close() (err error) {
	defer func() {
		if err != nil || r.err != nil {
			os.Remove(r.f.Name())
		}
	}()
	if err := r.f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(r.f.Name(), r.perm); err != nil {
		return err
	}
	if r.err == nil {
		return os.Rename(r.f.Name(), r.filename)
	}
	return r.err
}
