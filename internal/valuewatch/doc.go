// Package valuewatch provides a single-slot, coalescing value cell.
//
// A Watch holds the latest value and a generation counter. Writers replace
// the value without blocking; a reader blocks until a generation it has not
// seen yet exists and then receives only the newest value. Values written
// between two reads are dropped, never queued.
package valuewatch
