// Package driver is the client for the tablet driver's event interface:
// context lifecycle, attribute reads and writes, and entity counts. Every
// operation builds its routing table, wraps it in an event and sends it
// through a transport.Sender once.
package driver
