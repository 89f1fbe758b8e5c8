package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/doclabel/internal/doctree"
)

// YAMLParser reads a document tree written out in full, with every node
// attribute available.
type YAMLParser struct{}

func (p *YAMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	var doc doctree.Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return finishTree(&doc, trimExt(filename, ".yaml", ".yml")), nil
}

// JSONParser reads the JSON form of the YAML tree format.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	var doc doctree.Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return finishTree(&doc, trimExt(filename, ".json")), nil
}

// finishTree defaults the title and picks up inline references in nodes
// that declare none explicitly.
func finishTree(doc *doctree.Document, title string) *doctree.Document {
	if doc.Title == "" {
		doc.Title = title
	}
	doc.Walk(func(n *doctree.Node, _ int) bool {
		if len(n.References) == 0 && n.Content != "" {
			refs, notes := extractInline(n.Content)
			n.References = refs
			n.Children = append(n.Children, notes...)
		}
		return true
	})
	doc.Link()
	return doc
}
