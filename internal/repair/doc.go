// Package repair reconnects a fragmented road network. Every operation takes
// the segment collection by value, mutates it and returns the result; callers
// must use the returned slice. A tolerance of zero or less turns an operation
// into a no-op.
package repair
