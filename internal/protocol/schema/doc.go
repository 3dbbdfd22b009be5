// Package schema is the driver's event dictionary.
//
// Ownership boundary:
// - event class / id catalogue and required parameters
// - object classes, attributes and context types
// - reply error numbers
package schema
