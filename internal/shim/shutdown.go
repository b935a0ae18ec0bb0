package shim

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

// readUntilEOF reads until the peer closes its writing direction and
// returns an error if the peer sends any byte.
func readUntilEOF(sess Session) error {
	var buffer [1]byte
	for {
		count, err := sess.Read(buffer[:])
		if count > 0 {
			return ErrUnexpectedData
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func serverShutdown(tracker *Tracker, logger model.Logger, sess Session) error {
	defer sess.Close()
	tracker.Advance(HalfClosing)
	logger.Info("closing the server side of the connection")
	if err := sess.CloseWrite(); err != nil {
		return fmt.Errorf("close write: %w", err)
	}
	tracker.Advance(AwaitingPeerClose)
	logger.Info("waiting for the client to close")
	if err := readUntilEOF(sess); err != nil {
		return fmt.Errorf("waiting for close: %w", err)
	}
	tracker.Advance(Closed)
	return nil
}

// isConnReset returns whether err is a connection reset.
func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

func clientShutdown(tracker *Tracker, logger model.Logger, sess Session) error {
	defer sess.Close()
	tracker.Advance(HalfClosing)
	logger.Info("closing the client side of the connection")
	if err := sess.CloseWrite(); err != nil {
		return fmt.Errorf("close write: %w", err)
	}
	tracker.Advance(AwaitingPeerClose)
	logger.Info("waiting for the server to close")
	// The server's FIN may be immediately followed by a RST, so we may see a
	// reset instead of a clean EOF here.
	switch err := readUntilEOF(sess); {
	case err == nil:
	case isConnReset(err):
		logger.Debugf("connection reset while waiting for close")
	default:
		logger.Warnf("while waiting for close: %s", err.Error())
	}
	tracker.Advance(Closed)
	return nil
}
