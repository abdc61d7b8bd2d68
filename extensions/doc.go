// Package extensions provides the Lua-based extension system for Parley.
// It includes the runtime for executing Lua scripts and defines the Go functions
// and types that are exposed to the Lua environment, allowing extensions to
// inspect, rewrite, or drop chat messages before they are delivered.
package extensions
