package catalog_test

import (
	"errors"
	"testing"

	"lettervoice/internal/catalog"
	"lettervoice/internal/config"
	"lettervoice/internal/services"
)

func TestDecorateItemsComputesDerivedFields(t *testing.T) {
	t.Parallel()

	items, err := catalog.DecorateItems([]catalog.RawItem{
		{Letter: "a", Name: "ice_cream", DownloadPath: "a/ice_cream.webm"},
		{Letter: "b", Name: "b", VoicePath: "b.webm"},
	}, "words")
	if err != nil {
		t.Fatalf("DecorateItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.RecordingKey != "words:a:ice_cream" {
		t.Fatalf("unexpected recording key %q", first.RecordingKey)
	}
	if first.VoicePath != "a/ice_cream.webm" {
		t.Fatalf("expected voice path to mirror download path, got %q", first.VoicePath)
	}
	if first.DownloadFileName != "ice_cream.webm" {
		t.Fatalf("unexpected download file name %q", first.DownloadFileName)
	}
	if first.DisplayName != "Ice Cream" {
		t.Fatalf("unexpected display name %q", first.DisplayName)
	}
	if first.ListLabel != "A - ice cream" {
		t.Fatalf("unexpected list label %q", first.ListLabel)
	}
	if first.ImagePath != "items/a/ice_cream.png" {
		t.Fatalf("unexpected default image path %q", first.ImagePath)
	}

	second := items[1]
	if second.DownloadPath != "b.webm" {
		t.Fatalf("expected download path to mirror voice path, got %q", second.DownloadPath)
	}
	if second.ListLabel != "B" {
		t.Fatalf("expected letter-only label, got %q", second.ListLabel)
	}
}

func TestDecorateItemsKeepsLetterCaseInKey(t *testing.T) {
	t.Parallel()

	items, err := catalog.DecorateItems([]catalog.RawItem{
		{Letter: " A ", Name: "ant", DownloadPath: "a/ant.webm"},
	}, "words")
	if err != nil {
		t.Fatalf("DecorateItems: %v", err)
	}
	if items[0].RecordingKey != "words:A:ant" {
		t.Fatalf("expected key composed from the trimmed inputs, got %q", items[0].RecordingKey)
	}
	if items[0].ListLabel != "A - ant" {
		t.Fatalf("unexpected list label %q", items[0].ListLabel)
	}
}

func TestDecorateItemsRejectsIncompleteEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  catalog.RawItem
	}{
		{"missing letter", catalog.RawItem{Name: "ant", DownloadPath: "a/ant.webm"}},
		{"missing name", catalog.RawItem{Letter: "a", DownloadPath: "a/ant.webm"}},
		{"missing paths", catalog.RawItem{Letter: "a", Name: "ant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.DecorateItems([]catalog.RawItem{tt.raw}, "words")
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuiltinRecordingKeysAreUnique(t *testing.T) {
	t.Parallel()

	datasets, err := catalog.BuildDatasets(nil)
	if err != nil {
		t.Fatalf("BuildDatasets: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("expected words and letters datasets, got %d", len(datasets))
	}

	seen := map[string]bool{}
	total := 0
	for _, ds := range datasets {
		for _, item := range ds.Items {
			if seen[item.RecordingKey] {
				t.Fatalf("duplicate recording key %q", item.RecordingKey)
			}
			seen[item.RecordingKey] = true
			total++
		}
	}

	lookup := catalog.BuildItemLookup(datasets)
	if len(lookup) != total {
		t.Fatalf("lookup has %d entries, want %d", len(lookup), total)
	}
	ant, ok := lookup["words:a:ant"]
	if !ok || ant.DownloadPath != "a/ant.webm" {
		t.Fatalf("unexpected lookup entry for ant: %+v", ant)
	}
	letterA, ok := lookup["letters:a:a"]
	if !ok || letterA.DownloadPath != "a.webm" {
		t.Fatalf("unexpected lookup entry for letter a: %+v", letterA)
	}
}

func TestBuildDatasetsUsesConfiguredLists(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Datasets = []config.Dataset{{
		Key: "animals",
		Items: []config.DatasetItem{
			{Letter: "d", Name: "dog", DownloadPath: "d/dog.webm"},
			{Letter: "e", Name: "elephant", VoicePath: "e/elephant.webm"},
		},
	}}

	datasets, err := catalog.BuildDatasets(&cfg)
	if err != nil {
		t.Fatalf("BuildDatasets: %v", err)
	}
	if len(datasets) != 1 {
		t.Fatalf("expected configured dataset only, got %d", len(datasets))
	}
	if datasets[0].Label != "Animals" {
		t.Fatalf("expected label derived from key, got %q", datasets[0].Label)
	}
	if got := catalog.VoicePaths(datasets); len(got) != 2 || got[1] != "e/elephant.webm" {
		t.Fatalf("unexpected voice paths %v", got)
	}
}

func TestBuildDatasetsRejectsRepeatedKeys(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	item := config.DatasetItem{Letter: "d", Name: "dog", DownloadPath: "d/dog.webm"}
	cfg.Datasets = []config.Dataset{{Key: "animals", Items: []config.DatasetItem{item, item}}}

	_, err := catalog.BuildDatasets(&cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestVoicePathsDeduplicates(t *testing.T) {
	t.Parallel()

	a, _ := catalog.DecorateItems([]catalog.RawItem{{Letter: "a", Name: "ant", DownloadPath: "a/ant.webm"}}, "one")
	b, _ := catalog.DecorateItems([]catalog.RawItem{{Letter: "a", Name: "ant", DownloadPath: "a/ant.webm"}}, "two")
	paths := catalog.VoicePaths([]catalog.Dataset{{Key: "one", Items: a}, {Key: "two", Items: b}})
	if len(paths) != 1 {
		t.Fatalf("expected one deduplicated path, got %v", paths)
	}
}
