package model

//
// Exit code contract between the runner and the backend binaries.
//

const (
	// ExitSuccess means the backend completed the scenario.
	ExitSuccess = 0

	// ExitFailure is the exit code our backends use for any failure. Any
	// nonzero value other than [ExitUnimplemented] is a failure.
	ExitFailure = 1

	// ExitUnimplemented means the backend does not implement the
	// requested scenario. It is not a failure.
	ExitUnimplemented = 127
)
