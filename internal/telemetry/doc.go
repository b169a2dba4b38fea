// Package telemetry answers "how much memory does this device have right now".
//
// A Source returns a Snapshot of total and free bytes. Sysinfo asks the
// kernel directly, Meminfo parses /proc/meminfo and Static returns fixed
// numbers for tests and for hosts where neither is available. Cached wraps
// any Source so the query runs at most once per TTL; a zero TTL keeps the
// first successful answer for the life of the process.
//
// A TotalBytes of zero means the total is unknown. Consumers substitute
// their own conservative assumption.
package telemetry
