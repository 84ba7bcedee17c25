package storage

import (
	"bytes"

	"github.com/brimdata/arbor"
)

// objectReader serves an object fetched whole into memory.  Reads after
// Close fail with the object's URI in the error.
type objectReader struct {
	uri    *URI
	r      *bytes.Reader
	closed bool
}

var _ Reader = (*objectReader)(nil)
var _ Sizer = (*objectReader)(nil)

func newObjectReader(u *URI, b []byte) *objectReader {
	return &objectReader{uri: u, r: bytes.NewReader(b)}
}

func (o *objectReader) Read(b []byte) (int, error) {
	if o.closed {
		return 0, o.errClosed()
	}
	return o.r.Read(b)
}

func (o *objectReader) ReadAt(b []byte, off int64) (int, error) {
	if o.closed {
		return 0, o.errClosed()
	}
	return o.r.ReadAt(b, off)
}

func (o *objectReader) Close() error {
	o.closed = true
	return nil
}

func (o *objectReader) Size() (int64, error) {
	return o.r.Size(), nil
}

func (o *objectReader) errClosed() error {
	return arbor.E(arbor.InvalidOperation, "%s: read after close", o.uri)
}
