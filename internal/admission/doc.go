// Package admission decides whether an engine allocation is safe to attempt.
//
// The Ledger is the single shared accumulator of bytes held by live engine
// objects, together with the set of engine references currently tracked. The
// Controller combines the ledger with a telemetry.Source:
//
//	ratio = (live + reserved + requested) / total
//
// and denies the request with an out_of_memory error when ratio exceeds the
// maximum for the device's memory tier:
//
//	total <= 1 GiB -> 0.50
//	total <= 2 GiB -> 0.70
//	otherwise      -> 0.85
//
// An unknown total (zero) is replaced by a 1 GiB assumption.
//
// Check is the plain heuristic: two concurrent checks may both pass against
// memory that together exceeds the threshold. Reserve closes that gap by
// holding the requested bytes in the ledger until the caller releases them,
// so concurrent reservations see each other. In non-strict mode Reserve
// degrades to Check.
package admission
