// Package export packages every captured take into a single zip archive,
// each entry stored at the item's download path.
package export
