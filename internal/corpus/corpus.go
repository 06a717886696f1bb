// Package corpus loads document collections and builds the dense and sparse
// indexes that retrieval runs against.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
)

// Document is one passage of a corpus file.
type Document struct {
	ID        string `yaml:"id" json:"id"`
	Content   string `yaml:"content" json:"content"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
	URL       string `yaml:"url,omitempty" json:"url,omitempty"`
	Source    string `yaml:"source,omitempty" json:"source,omitempty"`
	Author    string `yaml:"author,omitempty" json:"author,omitempty"`
	Published string `yaml:"published,omitempty" json:"published,omitempty"`
}

// File is the on-disk corpus layout. A bare list of documents is accepted too.
type File struct {
	Documents []Document `yaml:"documents" json:"documents"`
}

// Format names a corpus encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", serrors.CorpusInvalid(
			fmt.Sprintf("unsupported corpus file extension %q (want .yaml, .yml or .json)", filepath.Ext(path)), nil)
	}
}

// Load reads and validates the corpus at path.
func Load(path string) ([]Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.CorpusInvalid(fmt.Sprintf("cannot read corpus %s", path), err)
	}
	return Parse(data, format)
}

// Parse decodes and validates corpus data.
func Parse(data []byte, format Format) ([]Document, error) {
	docs, err := decode(data, format)
	if err != nil {
		return nil, serrors.CorpusInvalid("malformed corpus", err)
	}
	if err := Validate(docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func decode(data []byte, format Format) ([]Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '[' {
			var docs []Document
			err := json.Unmarshal(trimmed, &docs)
			return docs, err
		}
		var f File
		err := json.Unmarshal(trimmed, &f)
		return f.Documents, err

	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var docs []Document
			err := node.Decode(&docs)
			return docs, err
		}
		var f File
		err := node.Decode(&f)
		return f.Documents, err

	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

// Validate checks that every document has an ID and content and that IDs are
// unique. IDs and content are trimmed in place.
func Validate(docs []Document) error {
	if len(docs) == 0 {
		return serrors.CorpusInvalid("corpus contains no documents", nil)
	}

	seen := make(map[string]int, len(docs))
	for i := range docs {
		d := &docs[i]
		d.ID = strings.TrimSpace(d.ID)
		d.Content = strings.TrimSpace(d.Content)

		if d.ID == "" {
			return serrors.CorpusInvalid(fmt.Sprintf("document %d has no id", i), nil)
		}
		if d.Content == "" {
			return serrors.CorpusInvalid(fmt.Sprintf("document %q has no content", d.ID), nil)
		}
		if prev, dup := seen[d.ID]; dup {
			return serrors.CorpusInvalid(
				fmt.Sprintf("duplicate document id %q (documents %d and %d)", d.ID, prev, i), nil)
		}
		seen[d.ID] = i
	}
	return nil
}
