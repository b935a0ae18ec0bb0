package shim

//
// Application exchange of each test case
//

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/tlsinterop/tlsinterop/internal/iox"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/runtimex"
)

// Legs returns the number of sequential connections used by tc.
func Legs(tc model.TestCase) int {
	if tc == model.SessionResumption {
		return 2
	}
	return 1
}

// RunServerScenario runs the server side of tc over sess, where leg is the
// zero-based index of the connection within the test case, and then runs
// the shutdown sequence. The session is always closed on return.
func RunServerScenario(ctx context.Context, params *Params, tc model.TestCase, leg int, sess Session) error {
	logger := params.logger()
	tracker := NewTracker(model.RoleServer, logger)
	caps := DetectCapabilities(sess)
	tracker.Advance(ApplicationExchange)
	logger.Infof("executing the %s scenario", tc)
	if err := serverExchange(ctx, params, tc, leg, sess, caps); err != nil {
		sess.Close()
		return err
	}
	return serverShutdown(tracker, logger, sess)
}

func serverExchange(ctx context.Context, params *Params, tc model.TestCase, leg int, sess Session, caps Capabilities) error {
	switch tc {
	case model.Handshake:
		return nil

	case model.Greeting, model.MutualAuthRequestResponse:
		if err := expectGreeting(ctx, sess, ClientGreeting); err != nil {
			return err
		}
		return writeString(sess, ServerGreeting)

	case model.LargeDataDownload:
		if err := expectGreeting(ctx, sess, ClientGreeting); err != nil {
			return err
		}
		return sendLargeData(ctx, params, sess, nil)

	case model.LargeDataDownloadWithKeyUpdates:
		if caps.KeyUpdater == nil {
			return fmt.Errorf("%w: %s: the session cannot update keys", ErrUnimplemented, tc)
		}
		if err := expectGreeting(ctx, sess, ClientGreeting); err != nil {
			return err
		}
		return sendLargeData(ctx, params, sess, caps.KeyUpdater)

	case model.SessionResumption:
		if err := expectGreeting(ctx, sess, ClientGreeting); err != nil {
			return err
		}
		if err := writeString(sess, ServerGreeting); err != nil {
			return err
		}
		resumed := caps.DidResume()
		switch {
		case leg == 0 && resumed:
			return ErrUnexpectedResumption
		case leg > 0 && !resumed:
			params.logger().Warn("session resumption was not used")
			return ErrResumptionNotUsed
		}
		params.logger().Infof("connection %d: resumed=%v", leg, resumed)
		return nil

	default:
		panic(fmt.Sprintf("shim: unhandled server test case: %s", tc))
	}
}

func sendLargeData(ctx context.Context, params *Params, sess Session, ku KeyUpdater) error {
	logger := params.logger()
	chunk := make([]byte, params.ChunkSize)
	runtimex.Assert(len(chunk) > 0, "shim: chunk size must be positive")
	for gb := 0; gb < params.Gigabytes; gb++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ku != nil {
			if err := ku.SendKeyUpdate(); err != nil {
				return fmt.Errorf("key update: %w", err)
			}
		}
		if gb%ProgressEvery == 0 {
			logger.Infof("GB sent: %d", gb)
		}
		chunk[0] = GigabyteTag(gb)
		for idx := 0; idx < params.ChunksPerGigabyte; idx++ {
			if _, err := sess.Write(chunk); err != nil {
				return err
			}
		}
	}
	if ku != nil {
		sent := ku.KeyUpdatesSent()
		logger.Infof("key updates sent: %d", sent)
		if sent != params.Gigabytes {
			return fmt.Errorf("%w: sent %d, expected %d", ErrKeyUpdateCount, sent, params.Gigabytes)
		}
	}
	return nil
}

// RunClientScenario runs the client side of tc over sess, where leg is the
// zero-based index of the connection within the test case, and then runs
// the shutdown sequence. The session is always closed on return.
func RunClientScenario(ctx context.Context, params *Params, tc model.TestCase, leg int, sess Session) error {
	logger := params.logger()
	tracker := NewTracker(model.RoleClient, logger)
	caps := DetectCapabilities(sess)
	tracker.Advance(ApplicationExchange)
	logger.Infof("executing the %s scenario", tc)
	if err := clientExchange(ctx, params, tc, sess); err != nil {
		sess.Close()
		return err
	}
	if tc == model.SessionResumption {
		logger.Infof("connection %d: resumed=%v", leg, caps.DidResume())
	}
	return clientShutdown(tracker, logger, sess)
}

func clientExchange(ctx context.Context, params *Params, tc model.TestCase, sess Session) error {
	switch tc {
	case model.Handshake:
		return nil

	case model.Greeting, model.MutualAuthRequestResponse, model.SessionResumption:
		if err := writeString(sess, ClientGreeting); err != nil {
			return err
		}
		return expectGreeting(ctx, sess, ServerGreeting)

	case model.LargeDataDownload, model.LargeDataDownloadWithKeyUpdates:
		if err := writeString(sess, ClientGreeting); err != nil {
			return err
		}
		return receiveLargeData(ctx, params, sess)

	default:
		panic(fmt.Sprintf("shim: unhandled client test case: %s", tc))
	}
}

func receiveLargeData(ctx context.Context, params *Params, sess Session) error {
	chunk := make([]byte, params.ChunkSize)
	runtimex.Assert(len(chunk) > 0, "shim: chunk size must be positive")
	total := params.Gigabytes * params.ChunksPerGigabyte
	for idx := 0; idx < total; idx++ {
		if idx%params.ChunksPerGigabyte == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := io.ReadFull(sess, chunk); err != nil {
			return fmt.Errorf("chunk %d: %w", idx, err)
		}
		if expect := ChunkTag(idx, params.ChunksPerGigabyte); chunk[0] != expect {
			return fmt.Errorf("%w: chunk %d: expected %d, got %d", ErrTagMismatch, idx, expect, chunk[0])
		}
	}
	return nil
}

func writeString(sess Session, message string) error {
	_, err := sess.Write([]byte(message))
	return err
}

func expectGreeting(ctx context.Context, sess Session, expect string) error {
	buffer := make([]byte, len(expect))
	if _, err := iox.ReadFullContext(ctx, sess, buffer); err != nil {
		return fmt.Errorf("reading greeting: %w", err)
	}
	if !bytes.Equal(buffer, []byte(expect)) {
		return fmt.Errorf("%w: %q", ErrGreetingMismatch, buffer)
	}
	return nil
}
