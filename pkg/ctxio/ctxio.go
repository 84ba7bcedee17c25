// Package ctxio wraps readers and writers so that a canceled context stops
// long copies between them.
package ctxio

import (
	"context"
	"io"
)

type writer struct {
	io.Writer
	ctx context.Context
}

func NewWriter(ctx context.Context, w io.Writer) io.Writer {
	return &writer{w, ctx}
}

func (w *writer) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	return w.Writer.Write(p)
}

type reader struct {
	io.Reader
	ctx context.Context
}

func NewReader(ctx context.Context, r io.Reader) io.Reader {
	return &reader{r, ctx}
}

func (r *reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.Reader.Read(p)
}

// Copy is io.Copy checking ctx before each read or write.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	if _, ok := src.(io.WriterTo); ok {
		dst = NewWriter(ctx, dst)
	} else {
		src = NewReader(ctx, src)
	}
	return io.Copy(dst, src)
}
