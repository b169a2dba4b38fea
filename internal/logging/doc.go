// Package logging builds the process logger.
//
// Output goes to stderr because stdout carries the MCP protocol. The level
// can be raised or lowered without a config file through the
// NATIVEIMAGE_LOG_LEVEL environment variable.
package logging
