// Package transport sends framed events to the tablet driver and reads the
// reply. Every call dials the target, writes one request frame and, when a
// reply is expected, blocks on one read bounded by the resolved timeout.
//
// There are no retries and no background goroutines. A timeout surfaces as
// ErrTransport wrapping ErrTimeout; a non-zero 'errn' in the reply surfaces
// as *RemoteError.
package transport
