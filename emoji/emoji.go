// Package emoji builds the token → image URL map used to render chat
// messages. Entries come from the files in the emoji directory and, optionally,
// from a YAML override file.
package emoji

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// URLPrefix is the path the relay serves emoji files under.
const URLPrefix = "/emojis/"

const placeholderFile = ".gitkeep"

// Map maps a whole-word token to an image URL.
type Map map[string]string

// LoadDir lists dir and maps each file name, minus its last extension, to
// urlPrefix+file. Subdirectories and .gitkeep are skipped.
func LoadDir(dir, urlPrefix string) (Map, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read emoji dir: %w", err)
	}
	m := make(Map, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == placeholderFile {
			continue
		}
		token := strings.TrimSuffix(name, path.Ext(name))
		if token == "" {
			continue
		}
		m[token] = urlPrefix + name
	}
	return m, nil
}

type yamlFile struct {
	Emojis Map `yaml:"emojis"`
}

// LoadYAML reads overrides of the form
//
//	emojis:
//	  ":)": https://example.com/smile.png
func LoadYAML(file string) (Map, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read emoji map: %w", err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse emoji map %s: %w", file, err)
	}
	if f.Emojis == nil {
		f.Emojis = Map{}
	}
	return f.Emojis, nil
}

// Load merges the directory listing with the optional YAML file; file entries
// win. A missing directory yields an empty map rather than an error.
func Load(dir, file string) (Map, error) {
	m, err := LoadDir(dir, URLPrefix)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		m = Map{}
	}
	if file == "" {
		return m, nil
	}
	overrides, err := LoadYAML(file)
	if err != nil {
		return nil, err
	}
	maps.Copy(m, overrides)
	return m, nil
}
