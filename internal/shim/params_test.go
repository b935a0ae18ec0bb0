package shim

import (
	"testing"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

func TestNewParams(t *testing.T) {
	t.Run("with defaults", func(t *testing.T) {
		t.Setenv(GigabytesEnv, "")
		params, err := NewParams(nil)
		if err != nil {
			t.Fatal(err)
		}
		if params.Gigabytes != 256 || params.ChunkSize != 1_000_000 || params.ChunksPerGigabyte != 1_000 {
			t.Fatal("unexpected params", params)
		}
	})

	t.Run("with the environment override", func(t *testing.T) {
		t.Setenv(GigabytesEnv, "2")
		params, err := NewParams(model.DiscardLogger)
		if err != nil {
			t.Fatal(err)
		}
		if params.Gigabytes != 2 {
			t.Fatal("unexpected gigabytes", params.Gigabytes)
		}
	})

	t.Run("with an invalid override", func(t *testing.T) {
		for _, value := range []string{"zero", "0", "-3"} {
			t.Setenv(GigabytesEnv, value)
			if _, err := NewParams(nil); err == nil {
				t.Fatal("expected an error for", value)
			}
		}
	})
}

func TestDetectCapabilities(t *testing.T) {
	server, client := newSessionPair()
	defer server.Close()
	defer client.Close()

	caps := DetectCapabilities(server)
	if caps.KeyUpdater != nil || caps.ResumptionReporter != nil || caps.DidResume() {
		t.Fatal("expected no capabilities")
	}

	caps = DetectCapabilities(&resumingSession{Session: server, resumed: true})
	if caps.ResumptionReporter == nil || !caps.DidResume() {
		t.Fatal("expected the resumption capability")
	}

	caps = DetectCapabilities(&keyUpdatingSession{Session: server})
	if caps.KeyUpdater == nil {
		t.Fatal("expected the key update capability")
	}
}

func TestNames(t *testing.T) {
	if TLSVersionString(0x0304) != "TLSv1.3" {
		t.Fatal("unexpected version string")
	}
	if TLSVersionString(0x7f17) != "TLS_VERSION_UNKNOWN_32535" {
		t.Fatal("unexpected version string", TLSVersionString(0x7f17))
	}
	if TLSCipherSuiteString(0x1301) != "TLS_AES_128_GCM_SHA256" {
		t.Fatal("unexpected cipher suite string")
	}
	if TLSCipherSuiteString(0xffff) != "TLS_CIPHER_SUITE_UNKNOWN_65535" {
		t.Fatal("unexpected cipher suite string")
	}
}
