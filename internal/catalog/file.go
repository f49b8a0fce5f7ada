package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// File is the layout of a catalog seed file:
//
//	[[items]]
//	title = "King of Boys"
//	type = "movie"
//	...
type File struct {
	Items []Item `json:"items" toml:"items"`
}

// ReadFile loads a seed file. Files ending in .json are read as JSON,
// everything else as TOML. Every item is validated.
func ReadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseFile(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

func ParseFile(data []byte, isJSON bool) ([]Item, error) {
	var f File
	var err error
	if isJSON {
		err = json.Unmarshal(data, &f)
	} else {
		err = toml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog file: %w", err)
	}

	for i, it := range f.Items {
		if err := Validate(it); err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i+1, it.Title, err)
		}
	}
	return f.Items, nil
}
