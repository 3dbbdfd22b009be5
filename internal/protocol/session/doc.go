// Package session owns the request/reply envelope exchanged with the driver.
//
// Ownership boundary:
// - request and reply frame encoding
// - reply error extraction
// - transport timing defaults
package session
