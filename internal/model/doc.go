// Package model contains the shared interfaces and data structures.
//
// # Criteria for adding a type to this package
//
// This package should contain two kinds of types:
//
// 1. interfaces shared by several packages, with the objective of
// separating unrelated pieces of code and making unit testing easier;
//
// 2. data shared across packages (e.g., the representation of a
// scenario or of its outcome).
//
// In general, this package should not contain logic, unless this
// logic is strictly related to data structures.
//
// # Content of this package
//
// - exitcode.go: the exit code contract between the runner and the
// backend binaries;
//
// - logger.go: definition of an apex/log compatible logger;
//
// - outcome.go: the tri-state scenario outcome and the result type;
//
// - scenario.go: scenario specifications and variants;
//
// - testcase.go: the closed enumeration of test cases.
package model
