package model

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

// fence markers for markdown-carried documents.
var (
	fenceOpen  = []byte("```yaml")
	fenceClose = []byte("```")
)

// LoadDocument decodes a canonical document from raw bytes. The source may
// be plain YAML or a markdown file carrying a ```yaml fenced block; any
// human-readable prose outside the fence is ignored.
func LoadDocument(raw []byte, path string) (*Document, error) {
	structured := ExtractStructuredBlock(raw)

	var doc Document
	if err := yaml.Unmarshal(structured, &doc); err != nil {
		return nil, &ParseError{Path: path, Message: "malformed document", Err: err}
	}
	return &doc, nil
}

// LoadDocumentFile reads and decodes a canonical document from disk.
func LoadDocumentFile(path string) (*Document, error) {
	// #nosec G304 - path is the user's configured rule source
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "cannot read document", Err: err}
	}
	return LoadDocument(raw, path)
}

// ExtractStructuredBlock returns the YAML payload of a document source.
// For a markdown file the first ```yaml fenced block is the payload; plain
// YAML sources are returned unchanged.
func ExtractStructuredBlock(raw []byte) []byte {
	idx := bytes.Index(raw, fenceOpen)
	if idx == -1 {
		return raw
	}

	body := raw[idx+len(fenceOpen):]
	if nl := bytes.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	}

	end := bytes.Index(body, fenceClose)
	if end == -1 {
		return raw
	}
	return body[:end]
}
