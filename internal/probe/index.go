package probe

import "sort"

// Index is the set of voice paths confirmed present on the remote host. It is
// built once and never mutated afterwards.
type Index struct {
	paths map[string]struct{}
}

// NewIndex builds an index from confirmed paths.
func NewIndex(paths ...string) Index {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return Index{paths: set}
}

// Has reports whether voicePath exists on the host.
func (i Index) Has(voicePath string) bool {
	_, ok := i.paths[voicePath]
	return ok
}

// Len returns the number of confirmed paths.
func (i Index) Len() int {
	return len(i.paths)
}

// Paths returns the confirmed paths in lexical order.
func (i Index) Paths() []string {
	out := make([]string, 0, len(i.paths))
	for p := range i.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
