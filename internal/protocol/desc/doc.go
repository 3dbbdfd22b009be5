// Package desc owns the self-describing descriptor record format.
//
// Ownership boundary:
// - descriptor values (scalar, list, record, object specifier)
// - four-character type tags and key forms
// - binary wire encoding of descriptors
//
// Descriptors are immutable once built. Accessors hand out copies.
package desc
