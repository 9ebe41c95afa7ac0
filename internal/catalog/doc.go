// Package catalog builds the immutable recording items the operator works
// through and derives the visible working list from them.
//
// Items are keyed by "<dataset>:<letter>:<name>", which is the only identity
// the in-memory recording store uses. The voice path of an item is both the
// location probed on the remote host and the entry name inside the export
// archive.
package catalog
