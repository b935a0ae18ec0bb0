package model

//
// Test cases
//

import (
	"errors"
	"fmt"
)

// TestCase is the closed enumeration of interop scenarios. The order of
// the constants is the order used when sorting results.
//
// Adding a test case requires handling it in both the client-side and the
// server-side scenario logic, otherwise the scenario engine panics.
type TestCase int

const (
	// Handshake only performs the TLS handshake and the shutdown sequence.
	Handshake TestCase = iota

	// Greeting exchanges the client and the server greetings.
	Greeting

	// MutualAuthRequestResponse is like Greeting but both peers authenticate.
	MutualAuthRequestResponse

	// LargeDataDownload streams a large volume of tagged chunks to the client.
	LargeDataDownload

	// LargeDataDownloadWithKeyUpdates is like LargeDataDownload but the server
	// updates its traffic keys at every gigabyte.
	LargeDataDownloadWithKeyUpdates

	// SessionResumption connects twice and expects the second connection to
	// resume the session established by the first one.
	SessionResumption
)

// AllTestCases returns all the test cases in enumeration order.
func AllTestCases() []TestCase {
	return []TestCase{
		Handshake,
		Greeting,
		MutualAuthRequestResponse,
		LargeDataDownload,
		LargeDataDownloadWithKeyUpdates,
		SessionResumption,
	}
}

var testCaseNames = map[TestCase]string{
	Handshake:                       "handshake",
	Greeting:                        "greeting",
	MutualAuthRequestResponse:       "mtls_request_response",
	LargeDataDownload:               "large_data_download",
	LargeDataDownloadWithKeyUpdates: "large_data_download_with_frequent_key_updates",
	SessionResumption:               "session_resumption",
}

// String returns the wire name of the test case, which is also the
// first positional argument passed to backend binaries.
func (tc TestCase) String() string {
	if name, found := testCaseNames[tc]; found {
		return name
	}
	return fmt.Sprintf("TEST_CASE_UNKNOWN_%d", int(tc))
}

// Valid returns whether tc is one of the enumerated test cases.
func (tc TestCase) Valid() bool {
	_, found := testCaseNames[tc]
	return found
}

// ErrUnknownTestCase indicates that a name does not map to any test case.
var ErrUnknownTestCase = errors.New("unknown test case")

// ParseTestCase maps a wire name to the corresponding [TestCase].
func ParseTestCase(name string) (TestCase, error) {
	for tc, value := range testCaseNames {
		if value == name {
			return tc, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTestCase, name)
}
