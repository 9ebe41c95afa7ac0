package catalog

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lettervoice/internal/config"
	"lettervoice/internal/services"
)

// RawItem is an undecorated dataset entry. DownloadPath and VoicePath name the
// same remote audio location; either may be supplied.
type RawItem struct {
	Letter       string
	Name         string
	DownloadPath string
	VoicePath    string
	ImagePath    string
}

// Item is a recordable entry. Values are never mutated after DecorateItems.
type Item struct {
	Letter           string
	Name             string
	DatasetKey       string
	RecordingKey     string
	DownloadPath     string
	DownloadFileName string
	VoicePath        string
	ImagePath        string
	DisplayName      string
	ListLabel        string
}

// Dataset is a named, ordered collection of items.
type Dataset struct {
	Key         string
	Label       string
	Description string
	Items       []Item
}

// RecordingKey composes the identity of an item.
func RecordingKey(datasetKey, letter, name string) string {
	return datasetKey + ":" + letter + ":" + name
}

// DecorateItems computes keys, file names, and labels for the raw entries of
// one dataset. It has no side effects.
func DecorateItems(raw []RawItem, datasetKey string) ([]Item, error) {
	datasetKey = strings.TrimSpace(datasetKey)
	if datasetKey == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "decorate", "dataset key is empty", nil)
	}
	items := make([]Item, 0, len(raw))
	for i, entry := range raw {
		letter := strings.TrimSpace(entry.Letter)
		name := strings.TrimSpace(entry.Name)
		if letter == "" || name == "" {
			return nil, services.Wrap(services.ErrValidation, "catalog", "decorate",
				fmt.Sprintf("%s item %d needs a letter and a name", datasetKey, i), nil)
		}
		downloadPath := strings.TrimSpace(entry.DownloadPath)
		voicePath := strings.TrimSpace(entry.VoicePath)
		switch {
		case downloadPath == "" && voicePath == "":
			return nil, services.Wrap(services.ErrValidation, "catalog", "decorate",
				fmt.Sprintf("%s item %q has no download or voice path", datasetKey, name), nil)
		case downloadPath == "":
			downloadPath = voicePath
		case voicePath == "":
			voicePath = downloadPath
		}
		imagePath := strings.TrimSpace(entry.ImagePath)
		if imagePath == "" {
			imagePath = path.Join("items", letter, name+".png")
		}
		items = append(items, Item{
			Letter:           letter,
			Name:             name,
			DatasetKey:       datasetKey,
			RecordingKey:     RecordingKey(datasetKey, letter, name),
			DownloadPath:     downloadPath,
			DownloadFileName: path.Base(downloadPath),
			VoicePath:        voicePath,
			ImagePath:        imagePath,
			DisplayName:      displayName(name),
			ListLabel:        listLabel(letter, name),
		})
	}
	return items, nil
}

// BuildItemLookup flattens every dataset into one recording key index.
func BuildItemLookup(datasets []Dataset) map[string]Item {
	total := 0
	for _, ds := range datasets {
		total += len(ds.Items)
	}
	lookup := make(map[string]Item, total)
	for _, ds := range datasets {
		for _, item := range ds.Items {
			lookup[item.RecordingKey] = item
		}
	}
	return lookup
}

// BuildDatasets turns the configured dataset tables into immutable datasets,
// falling back to the built-in lists when none are configured. Recording keys
// must be unique across every dataset.
func BuildDatasets(cfg *config.Config) ([]Dataset, error) {
	var sources []config.Dataset
	if cfg != nil {
		sources = cfg.Datasets
	}
	if len(sources) == 0 {
		sources = BuiltinDatasets()
	}

	datasets := make([]Dataset, 0, len(sources))
	seenDatasets := make(map[string]struct{}, len(sources))
	seenKeys := make(map[string]string)
	for _, src := range sources {
		if _, ok := seenDatasets[src.Key]; ok {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "build",
				fmt.Sprintf("dataset %q declared more than once", src.Key), nil)
		}
		seenDatasets[src.Key] = struct{}{}

		raw := make([]RawItem, 0, len(src.Items))
		for _, entry := range src.Items {
			raw = append(raw, RawItem{
				Letter:       entry.Letter,
				Name:         entry.Name,
				DownloadPath: entry.DownloadPath,
				VoicePath:    entry.VoicePath,
				ImagePath:    entry.ImagePath,
			})
		}
		items, err := DecorateItems(raw, src.Key)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if owner, ok := seenKeys[item.RecordingKey]; ok {
				return nil, services.Wrap(services.ErrConfiguration, "catalog", "build",
					fmt.Sprintf("recording key %q repeated in dataset %q", item.RecordingKey, owner), nil)
			}
			seenKeys[item.RecordingKey] = src.Key
		}

		label := src.Label
		if label == "" {
			label = displayName(src.Key)
		}
		datasets = append(datasets, Dataset{
			Key:         src.Key,
			Label:       label,
			Description: src.Description,
			Items:       items,
		})
	}
	return datasets, nil
}

// Find returns the dataset with the given key.
func Find(datasets []Dataset, key string) (Dataset, bool) {
	for _, ds := range datasets {
		if ds.Key == key {
			return ds, true
		}
	}
	return Dataset{}, false
}

// VoicePaths returns the deduplicated voice paths of every dataset in order of
// first appearance.
func VoicePaths(datasets []Dataset) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, ds := range datasets {
		for _, item := range ds.Items {
			if _, ok := seen[item.VoicePath]; ok {
				continue
			}
			seen[item.VoicePath] = struct{}{}
			paths = append(paths, item.VoicePath)
		}
	}
	return paths
}

func displayName(name string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}

func listLabel(letter, name string) string {
	upper := strings.ToUpper(letter)
	if name == letter {
		return upper
	}
	return upper + " - " + strings.ReplaceAll(name, "_", " ")
}
