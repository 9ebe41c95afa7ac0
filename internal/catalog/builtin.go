package catalog

import "lettervoice/internal/config"

const (
	// WordsDatasetKey identifies the built-in picture word list.
	WordsDatasetKey = "words"
	// LettersDatasetKey identifies the built-in letter sound list.
	LettersDatasetKey = "letters"
)

var builtinWords = []struct {
	letter string
	names  []string
}{
	{"a", []string{"accordian", "acorn", "ant", "arrow", "astronaut"}},
	{"b", []string{"ball", "banana", "bear", "bee", "bird", "boat", "book", "bus", "butterfly"}},
	{"c", []string{"cake", "car", "castle", "cat", "clock", "coat", "cow", "crayon", "cup"}},
}

// BuiltinDatasets returns the default dataset tables: one word per picture
// item stored under its letter folder, and one sound per letter stored at the
// asset root.
func BuiltinDatasets() []config.Dataset {
	words := config.Dataset{
		Key:         WordsDatasetKey,
		Label:       "Words",
		Description: "Say the name of each picture item",
	}
	for _, group := range builtinWords {
		for _, name := range group.names {
			words.Items = append(words.Items, config.DatasetItem{
				Letter:       group.letter,
				Name:         name,
				DownloadPath: group.letter + "/" + name + ".webm",
				ImagePath:    "items/" + group.letter + "/" + name + ".png",
			})
		}
	}

	letters := config.Dataset{
		Key:         LettersDatasetKey,
		Label:       "Letters",
		Description: "Say the sound of each letter",
	}
	for r := 'a'; r <= 'z'; r++ {
		letter := string(r)
		letters.Items = append(letters.Items, config.DatasetItem{
			Letter:       letter,
			Name:         letter,
			DownloadPath: letter + ".webm",
		})
	}

	return []config.Dataset{words, letters}
}
