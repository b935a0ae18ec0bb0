package shim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/model/mocks"
)

func testParams() *Params {
	return &Params{
		Gigabytes:         3,
		ChunkSize:         16,
		ChunksPerGigabyte: 4,
		Logger:            model.DiscardLogger,
	}
}

// countingLogger returns a logger counting the warnings and the debug
// messages containing "reset".
func countingLogger(warnings, resets *int) *mocks.Logger {
	return &mocks.Logger{
		MockDebug: func(message string) {},
		MockDebugf: func(format string, v ...interface{}) {
			if strings.Contains(fmt.Sprintf(format, v...), "reset") {
				*resets++
			}
		},
		MockInfo:  func(message string) {},
		MockInfof: func(format string, v ...interface{}) {},
		MockWarn: func(message string) {
			*warnings++
		},
		MockWarnf: func(format string, v ...interface{}) {
			*warnings++
		},
	}
}

// runPair runs the server and the client concurrently and returns
// both errors.
func runPair(tc model.TestCase, leg int, server, client Session) (serverErr, clientErr error) {
	params := testParams()
	done := make(chan error, 1)
	go func() {
		done <- RunServerScenario(context.Background(), params, tc, leg, server)
	}()
	clientErr = RunClientScenario(context.Background(), params, tc, leg, client)
	serverErr = <-done
	return
}

func TestScenarioSuccess(t *testing.T) {
	for _, tc := range []model.TestCase{
		model.Handshake,
		model.Greeting,
		model.MutualAuthRequestResponse,
		model.LargeDataDownload,
	} {
		t.Run(tc.String(), func(t *testing.T) {
			server, client := newSessionPair()
			serverErr, clientErr := runPair(tc, 0, server, client)
			if serverErr != nil {
				t.Fatal("server", serverErr)
			}
			if clientErr != nil {
				t.Fatal("client", clientErr)
			}
		})
	}
}

func TestGreetingCorruptionIsDetected(t *testing.T) {
	for _, pos := range []int{0, 7, len(ClientGreeting) - 1} {
		t.Run(fmt.Sprintf("byte %d", pos), func(t *testing.T) {
			server, client := newSessionPair()
			go func() {
				corrupted := []byte(ClientGreeting)
				corrupted[pos] ^= 0x01
				client.Write(corrupted)
				io.Copy(io.Discard, client)
			}()
			err := RunServerScenario(context.Background(), testParams(), model.Greeting, 0, server)
			if !errors.Is(err, ErrGreetingMismatch) {
				t.Fatal("unexpected error", err)
			}
		})
	}

	t.Run("the client detects a corrupted reply", func(t *testing.T) {
		server, client := newSessionPair()
		go func() {
			buffer := make([]byte, len(ClientGreeting))
			io.ReadFull(server, buffer)
			reply := []byte(ServerGreeting)
			reply[len(reply)-1] = '!'
			server.Write(reply)
		}()
		err := RunClientScenario(context.Background(), testParams(), model.Greeting, 0, client)
		if !errors.Is(err, ErrGreetingMismatch) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("a short read is a failure", func(t *testing.T) {
		server, client := newSessionPair()
		go func() {
			client.Write([]byte(ClientGreeting[:10]))
			client.CloseWrite()
		}()
		err := RunServerScenario(context.Background(), testParams(), model.Greeting, 0, server)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatal("unexpected error", err)
		}
	})
}

func TestChunkTag(t *testing.T) {
	type testcase struct {
		index  int
		expect byte
	}
	cases := []testcase{
		{0, 0},
		{999, 0},
		{1000, 1},
		{1999, 1},
		{255_999, 255},
		{256_000, 0},
		{257_000, 1},
	}
	for _, tc := range cases {
		if got := ChunkTag(tc.index, DefaultChunksPerGigabyte); got != tc.expect {
			t.Fatal("chunk", tc.index, "expected", tc.expect, "got", got)
		}
	}
}

func TestLargeDataTagDeviationIsRejected(t *testing.T) {
	params := testParams()
	total := params.Gigabytes * params.ChunksPerGigabyte
	for _, bad := range []int{0, 5, total - 1} {
		t.Run(fmt.Sprintf("chunk %d", bad), func(t *testing.T) {
			server, client := newSessionPair()
			go func() {
				buffer := make([]byte, len(ClientGreeting))
				io.ReadFull(server, buffer)
				chunk := make([]byte, params.ChunkSize)
				for idx := 0; idx < total; idx++ {
					chunk[0] = ChunkTag(idx, params.ChunksPerGigabyte)
					if idx == bad {
						chunk[0]++
					}
					if _, err := server.Write(chunk); err != nil {
						return
					}
				}
			}()
			err := RunClientScenario(context.Background(), params, model.LargeDataDownload, 0, client)
			if !errors.Is(err, ErrTagMismatch) {
				t.Fatal("unexpected error", err)
			}
			server.Close()
		})
	}
}

func TestLargeDataWithKeyUpdates(t *testing.T) {
	t.Run("we send one key update per gigabyte", func(t *testing.T) {
		server, client := newSessionPair()
		ku := &keyUpdatingSession{Session: server}
		serverErr, clientErr := runPair(model.LargeDataDownloadWithKeyUpdates, 0, ku, client)
		if serverErr != nil || clientErr != nil {
			t.Fatal(serverErr, clientErr)
		}
		if ku.count != testParams().Gigabytes {
			t.Fatal("unexpected number of key updates", ku.count)
		}
	})

	t.Run("a session without key updates is unimplemented", func(t *testing.T) {
		server, client := newSessionPair()
		go io.Copy(io.Discard, client)
		err := RunServerScenario(context.Background(), testParams(), model.LargeDataDownloadWithKeyUpdates, 0, server)
		if !errors.Is(err, ErrUnimplemented) {
			t.Fatal("unexpected error", err)
		}
		if ExitCode(err) != model.ExitUnimplemented {
			t.Fatal("unexpected exit code")
		}
	})

	t.Run("a wrong key update count is a failure", func(t *testing.T) {
		server, client := newSessionPair()
		ku := &keyUpdatingSession{
			Session: server,
			MockCount: func(count int) int {
				return count + 1
			},
		}
		serverErr, _ := runPair(model.LargeDataDownloadWithKeyUpdates, 0, ku, client)
		if !errors.Is(serverErr, ErrKeyUpdateCount) {
			t.Fatal("unexpected error", serverErr)
		}
	})

	t.Run("a key update failure is a failure", func(t *testing.T) {
		server, client := newSessionPair()
		expected := errors.New("mocked error")
		ku := &keyUpdatingSession{
			Session: server,
			MockUpdate: func() error {
				return expected
			},
		}
		serverErr, _ := runPair(model.LargeDataDownloadWithKeyUpdates, 0, ku, client)
		if !errors.Is(serverErr, expected) {
			t.Fatal("unexpected error", serverErr)
		}
	})
}

func TestSessionResumption(t *testing.T) {
	type testcase struct {
		name     string
		leg      int
		reporter bool
		resumed  bool
		expect   error
	}
	cases := []testcase{
		{"first connection with full handshake", 0, true, false, nil},
		{"first connection without reporter", 0, false, false, nil},
		{"first connection resumed", 0, true, true, ErrUnexpectedResumption},
		{"second connection resumed", 1, true, true, nil},
		{"second connection with full handshake", 1, true, false, ErrResumptionNotUsed},
		{"second connection without reporter", 1, false, false, ErrResumptionNotUsed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, client := newSessionPair()
			var sess Session = server
			if tc.reporter {
				sess = &resumingSession{Session: server, resumed: tc.resumed}
			}
			serverErr, clientErr := runPair(model.SessionResumption, tc.leg, sess, client)
			if !errors.Is(serverErr, tc.expect) {
				t.Fatal("unexpected server error", serverErr)
			}
			if clientErr != nil {
				t.Fatal("unexpected client error", clientErr)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Run("the server rejects data after the exchange", func(t *testing.T) {
		server, client := newSessionPair()
		go func() {
			client.Write([]byte("x"))
			client.Close()
		}()
		err := RunServerScenario(context.Background(), testParams(), model.Handshake, 0, server)
		if !errors.Is(err, ErrUnexpectedData) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("the client tolerates a reset while waiting for close", func(t *testing.T) {
		var closed bool
		sess := &mockSession{
			MockRead: func(b []byte) (int, error) {
				return 0, &mockNetError{syscall.ECONNRESET}
			},
			MockCloseWrite: func() error {
				return nil
			},
			MockClose: func() error {
				closed = true
				return nil
			},
		}
		var warnings, resets int
		params := testParams()
		params.Logger = countingLogger(&warnings, &resets)
		if err := RunClientScenario(context.Background(), params, model.Handshake, 0, sess); err != nil {
			t.Fatal(err)
		}
		if !closed {
			t.Fatal("expected the session to be closed")
		}
		if warnings != 0 || resets != 1 {
			t.Fatal("unexpected logging", warnings, resets)
		}
	})

	t.Run("the client completes despite other errors while waiting for close", func(t *testing.T) {
		sess := &mockSession{
			MockRead: func(b []byte) (int, error) {
				return 0, io.ErrUnexpectedEOF
			},
			MockCloseWrite: func() error {
				return nil
			},
			MockClose: func() error {
				return nil
			},
		}
		var warnings, resets int
		params := testParams()
		params.Logger = countingLogger(&warnings, &resets)
		if err := RunClientScenario(context.Background(), params, model.Handshake, 0, sess); err != nil {
			t.Fatal(err)
		}
		if warnings != 1 || resets != 0 {
			t.Fatal("unexpected logging", warnings, resets)
		}
	})

	t.Run("a close write failure is a failure", func(t *testing.T) {
		expected := errors.New("mocked error")
		sess := &mockSession{
			MockCloseWrite: func() error {
				return expected
			},
			MockClose: func() error {
				return nil
			},
		}
		if err := RunServerScenario(context.Background(), testParams(), model.Handshake, 0, sess); !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
	})
}

// mockNetError wraps an errno like the net package does.
type mockNetError struct {
	err error
}

func (e *mockNetError) Error() string {
	return "read: " + e.err.Error()
}

func (e *mockNetError) Unwrap() error {
	return e.err
}

func TestUnknownTestCasePanics(t *testing.T) {
	server, client := newSessionPair()
	defer server.Close()
	defer client.Close()
	for _, fn := range []func(){
		func() {
			RunServerScenario(context.Background(), testParams(), model.TestCase(99), 0, server)
		},
		func() {
			RunClientScenario(context.Background(), testParams(), model.TestCase(99), 0, client)
		},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()
			fn()
		}()
	}
}

func TestCanceledContextStopsTheDownload(t *testing.T) {
	server, client := newSessionPair()
	go func() {
		client.Write([]byte(ClientGreeting))
		io.Copy(io.Discard, client)
	}()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunServerScenario(ctx, testParams(), model.LargeDataDownload, 0, server)
	if !errors.Is(err, context.Canceled) {
		t.Fatal("unexpected error", err)
	}
}

func TestCanceledContextStopsWaitingForTheGreeting(t *testing.T) {
	for _, role := range []model.Role{model.RoleServer, model.RoleClient} {
		t.Run(string(role), func(t *testing.T) {
			// the peer never writes anything
			sess, peer := newSessionPair()
			defer peer.Close()
			go io.Copy(io.Discard, peer)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			var err error
			switch role {
			case model.RoleServer:
				err = RunServerScenario(ctx, testParams(), model.Greeting, 0, sess)
			default:
				err = RunClientScenario(ctx, testParams(), model.Greeting, 0, sess)
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatal("unexpected error", err)
			}
		})
	}
}
