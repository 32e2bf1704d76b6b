package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/forest/pkg/forest"
	"gopkg.in/yaml.v3"
)

// The head file records the last-visited node for session resume. It belongs
// to this layer: the core store tolerates the file but never reads it.

func headPath(dir string) string {
	return filepath.Join(dir, "head")
}

func readHead(dir string) (forest.NodeID, bool) {
	data, err := os.ReadFile(headPath(dir))
	if err != nil {
		return forest.NullNode, false
	}
	id, err := forest.ParseNodeID(strings.TrimSpace(string(data)))
	if err != nil {
		return forest.NullNode, false
	}
	return id, true
}

func writeHead(dir string, id forest.NodeID) error {
	return os.WriteFile(headPath(dir), []byte(id.String()+"\n"), 0644)
}

// loadProfile reads a RootConfig from a YAML profile file.
func loadProfile(filename string) (forest.RootConfig, error) {
	var cfg forest.RootConfig

	f, err := os.Open(filename)
	if err != nil {
		return cfg, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	err = yaml.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
