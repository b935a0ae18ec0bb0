// Package iox contains io extensions.
package iox

import (
	"context"
	"io"
)

// CopyContext is like io.Copy but may terminate earlier when the context
// expires. In such a case, the background goroutine keeps copying until
// src returns an error or EOF. Close the file or connection backing src
// to stop the background goroutine.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	countch, errch := make(chan int64, 1), make(chan error, 1) // buffers
	go func() {
		count, err := io.Copy(dst, src)
		if err != nil {
			errch <- err
			return
		}
		countch <- count
	}()
	select {
	case count := <-countch:
		return count, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case err := <-errch:
		return 0, err
	}
}

// ReadFullContext is like io.ReadFull but returns early when the context
// expires, with the same caveats of [CopyContext].
func ReadFullContext(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	type result struct {
		count int
		err   error
	}
	resch := make(chan result, 1) // buffer
	go func() {
		count, err := io.ReadFull(r, buf)
		resch <- result{count, err}
	}()
	select {
	case res := <-resch:
		return res.count, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// MockableReader allows to mock any io.Reader.
type MockableReader struct {
	MockRead func(b []byte) (int, error)
}

var _ io.Reader = &MockableReader{}

// Read implements io.Reader.Read.
func (r *MockableReader) Read(b []byte) (int, error) {
	return r.MockRead(b)
}
