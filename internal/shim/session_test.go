package shim

import (
	"io"
	"sync"
)

// pipeSession is an in-memory [Session].
type pipeSession struct {
	r      *io.PipeReader
	w      *io.PipeWriter
	closed sync.Once
}

// newSessionPair returns two connected sessions.
func newSessionPair() (*pipeSession, *pipeSession) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &pipeSession{r: ar, w: aw}, &pipeSession{r: br, w: bw}
}

func (s *pipeSession) Read(b []byte) (int, error) {
	return s.r.Read(b)
}

func (s *pipeSession) Write(b []byte) (int, error) {
	return s.w.Write(b)
}

func (s *pipeSession) CloseWrite() error {
	return s.w.Close()
}

func (s *pipeSession) Close() error {
	s.closed.Do(func() {
		s.w.Close()
		s.r.Close()
	})
	return nil
}

// keyUpdatingSession is a [Session] with the [KeyUpdater] capability.
type keyUpdatingSession struct {
	Session
	count      int
	MockCount  func(count int) int
	MockUpdate func() error
}

func (s *keyUpdatingSession) SendKeyUpdate() error {
	if s.MockUpdate != nil {
		if err := s.MockUpdate(); err != nil {
			return err
		}
	}
	s.count++
	return nil
}

func (s *keyUpdatingSession) KeyUpdatesSent() int {
	if s.MockCount != nil {
		return s.MockCount(s.count)
	}
	return s.count
}

// resumingSession is a [Session] with the [ResumptionReporter] capability.
type resumingSession struct {
	Session
	resumed bool
}

func (s *resumingSession) DidResume() bool {
	return s.resumed
}

// mockSession is a [Session] implemented by functions.
type mockSession struct {
	MockRead       func(b []byte) (int, error)
	MockWrite      func(b []byte) (int, error)
	MockCloseWrite func() error
	MockClose      func() error
}

func (s *mockSession) Read(b []byte) (int, error) {
	return s.MockRead(b)
}

func (s *mockSession) Write(b []byte) (int, error) {
	return s.MockWrite(b)
}

func (s *mockSession) CloseWrite() error {
	return s.MockCloseWrite()
}

func (s *mockSession) Close() error {
	return s.MockClose()
}
