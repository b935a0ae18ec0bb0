package model

//
// Scenarios
//

import (
	"fmt"
	"strconv"
)

// Role is the role of a process within a scenario.
type Role string

const (
	// RoleServer is the accepting side.
	RoleServer = Role("server")

	// RoleClient is the connecting side.
	RoleClient = Role("client")
)

// Variant identifies an external binary implementing one side of the
// scenarios, e.g., a server built on a given TLS library.
type Variant struct {
	// Name is the MANDATORY unique name of the variant.
	Name string

	// Index is the declaration order of the variant in the configuration,
	// which determines how results are sorted.
	Index int

	// Program is the MANDATORY executable to run.
	Program string

	// Args contains OPTIONAL fixed arguments that precede the test case
	// name and the port (e.g., a JVM class path).
	Args []string

	// Env contains OPTIONAL KEY=VALUE entries added to the environment.
	Env []string
}

// ScenarioSpec is one (test case, server, client) combination along with
// the TCP port assigned to it. It is immutable once built.
type ScenarioSpec struct {
	// TestCase is the scenario to run.
	TestCase TestCase

	// Server is the server variant.
	Server Variant

	// Client is the client variant.
	Client Variant

	// Port is the localhost TCP port used by this scenario.
	Port uint16
}

// Argv returns the positional arguments passed to both binaries.
func (s *ScenarioSpec) Argv() []string {
	return []string{s.TestCase.String(), strconv.Itoa(int(s.Port))}
}

// String implements fmt.Stringer.
func (s *ScenarioSpec) String() string {
	return fmt.Sprintf("%s/%s/%s", s.TestCase, s.Server.Name, s.Client.Name)
}

// Less orders scenarios by (test case, server, client).
func (s *ScenarioSpec) Less(other *ScenarioSpec) bool {
	if s.TestCase != other.TestCase {
		return s.TestCase < other.TestCase
	}
	if s.Server.Index != other.Server.Index {
		return s.Server.Index < other.Server.Index
	}
	return s.Client.Index < other.Client.Index
}
