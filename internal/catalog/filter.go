package catalog

// AssetIndex reports whether a voice path already exists on the remote host.
type AssetIndex interface {
	Has(voicePath string) bool
}

// Filter derives the working list for a dataset. With hideExisting set, items
// whose voice path is in the index are dropped; otherwise every item is kept
// in order. The returned index selects preferredKey when it is still visible,
// else currentIndex clamped to the new list (0 for an empty list).
func Filter(items []Item, index AssetIndex, hideExisting bool, currentIndex int, preferredKey string) ([]Item, int) {
	visible := make([]Item, 0, len(items))
	for _, item := range items {
		if hideExisting && index != nil && index.Has(item.VoicePath) {
			continue
		}
		visible = append(visible, item)
	}

	if preferredKey != "" {
		for i, item := range visible {
			if item.RecordingKey == preferredKey {
				return visible, i
			}
		}
	}
	if len(visible) == 0 {
		return visible, 0
	}
	selected := min(currentIndex, len(visible)-1)
	if selected < 0 {
		selected = 0
	}
	return visible, selected
}
