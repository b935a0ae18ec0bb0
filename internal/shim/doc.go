// Package shim contains the backend-agnostic protocol scenario engine.
//
// Every TLS backend implements [ServerTLS] or [ClientTLS] (or both) for its
// own configuration and handle types. [NewServerProgram] and
// [NewClientProgram] turn a backend into a program that accepts or dials
// connections and runs the application exchange of each [model.TestCase]
// on top of the resulting [Session].
//
// Backends may additionally implement optional session capabilities, which
// the engine discovers using [DetectCapabilities].
package shim
