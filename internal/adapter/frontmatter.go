package adapter

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FrontmatterResult contains the parsed frontmatter and remaining content.
type FrontmatterResult struct {
	// Frontmatter contains the raw frontmatter bytes.
	Frontmatter []byte
	// Content contains the remaining content after frontmatter.
	Content string
	// HasFrontmatter indicates whether frontmatter was found.
	HasFrontmatter bool
	// TOML indicates +++ delimiters (TOML) rather than --- (YAML).
	TOML bool
}

// SplitFrontmatter extracts YAML or TOML frontmatter from content.
// Supports both --- (YAML) and +++ (TOML) delimiters.
func SplitFrontmatter(content []byte) FrontmatterResult {
	if bytes.HasPrefix(content, []byte("---\n")) || bytes.HasPrefix(content, []byte("---\r\n")) {
		return extractFrontmatter(content, []byte("---"), false)
	}

	if bytes.HasPrefix(content, []byte("+++\n")) || bytes.HasPrefix(content, []byte("+++\r\n")) {
		return extractFrontmatter(content, []byte("+++"), true)
	}

	return FrontmatterResult{
		Frontmatter:    nil,
		Content:        string(content),
		HasFrontmatter: false,
	}
}

// extractFrontmatter extracts frontmatter between delimiters.
func extractFrontmatter(content, delimiter []byte, isTOML bool) FrontmatterResult {
	remaining := content[len(delimiter):]

	// Handle both \n and \r\n line endings
	if bytes.HasPrefix(remaining, []byte("\r\n")) {
		remaining = remaining[2:]
	} else if bytes.HasPrefix(remaining, []byte("\n")) {
		remaining = remaining[1:]
	}

	var frontmatter []byte
	var bodyStart int
	delimFound := false

	if bytes.HasPrefix(remaining, delimiter) {
		// Empty frontmatter case: ---\n---\n
		frontmatter = []byte{}
		bodyStart = len(delimiter)
		delimFound = true
	} else {
		closingDelim := append([]byte("\n"), delimiter...)
		idx := bytes.Index(remaining, closingDelim)
		if idx != -1 {
			frontmatter = remaining[:idx]
			bodyStart = idx + len(closingDelim)
			delimFound = true
		} else {
			closingDelim = append([]byte("\r\n"), delimiter...)
			idx = bytes.Index(remaining, closingDelim)
			if idx != -1 {
				frontmatter = remaining[:idx]
				bodyStart = idx + len(closingDelim)
				delimFound = true
			}
		}
	}

	if !delimFound {
		// No closing delimiter, treat entire content as no frontmatter
		return FrontmatterResult{
			Frontmatter:    nil,
			Content:        string(content),
			HasFrontmatter: false,
		}
	}

	cleanFrontmatter := bytes.ReplaceAll(frontmatter, []byte("\r\n"), []byte("\n"))
	cleanFrontmatter = bytes.TrimRight(cleanFrontmatter, "\r")

	if bodyStart < len(remaining) {
		if bytes.HasPrefix(remaining[bodyStart:], []byte("\r\n")) {
			bodyStart += 2
		} else if bytes.HasPrefix(remaining[bodyStart:], []byte("\n")) {
			bodyStart++
		}
	}

	var body string
	if bodyStart < len(remaining) {
		body = string(remaining[bodyStart:])
	}

	return FrontmatterResult{
		Frontmatter:    cleanFrontmatter,
		Content:        body,
		HasFrontmatter: true,
		TOML:           isTOML,
	}
}

// DecodeFrontmatter parses frontmatter bytes into a map, dispatching on the
// delimiter style recorded by SplitFrontmatter.
func DecodeFrontmatter(result FrontmatterResult) (map[string]any, error) {
	if len(result.Frontmatter) == 0 {
		return make(map[string]any), nil
	}

	fm := make(map[string]any)
	if result.TOML {
		if err := toml.Unmarshal(result.Frontmatter, &fm); err != nil {
			return nil, fmt.Errorf("failed to parse TOML frontmatter: %w", err)
		}
		return fm, nil
	}

	if err := yaml.Unmarshal(result.Frontmatter, &fm); err != nil {
		return nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}
	return fm, nil
}

// EncodeYAMLFrontmatter renders a frontmatter block with --- delimiters.
func EncodeYAMLFrontmatter(fields map[string]any) (string, error) {
	data, err := yaml.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	return "---\n" + string(data) + "---\n", nil
}
