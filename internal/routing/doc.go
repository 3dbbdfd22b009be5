// Package routing builds routing tables: object specifier chains addressing
// one entity of the driver hierarchy.
//
//	driver
//	├── tablet[i]
//	│   └── transducer[i]
//	└── context[h]
//	    └── control[i, type]
//	        └── function[i]
//
// Every builder composes a fresh chain from the leaf outward; nothing is cached
// and no returned descriptor is modified afterwards, so chains cannot cycle.
// All indices are 1-based. Index 0 is reserved and rejected everywhere.
package routing
