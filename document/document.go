package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/knowledge"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultPersonaName and DefaultTone fill in a persona given as a plain
// string or without a tone.
const (
	DefaultPersonaName = "Support Assistant"
	DefaultTone        = "neutral"
)

// Persona is the bot's identity, attached read-only to every response.
type Persona struct {
	Name         string   `json:"name"`
	Tone         string   `json:"tone"`
	Disclaimers  []string `json:"disclaimers,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
}

// Prompt renders the persona as system-prompt text.
func (p Persona) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. Keep a %s tone.\n", p.Name, p.Tone)
	for _, line := range p.Instructions {
		b.WriteString("\n" + line)
	}
	if len(p.Disclaimers) > 0 {
		b.WriteString("\n\nAlways remind the user:")
		for _, d := range p.Disclaimers {
			b.WriteString("\n- " + d)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Document is a loaded, validated configuration. It is immutable by
// convention: consumers copy what they keep.
type Document struct {
	Persona   Persona
	Knowledge []knowledge.Entry
	Actions   []action.Definition
}

// LoadFile reads and loads the document at path. The format is chosen from
// the extension (.yaml and .yml are YAML, anything else JSON).
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Load(data, FormatFromPath(path))
}

// FormatFromPath returns the format implied by a file name.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load parses and validates a document. Any problem, including a syntax
// error, is returned as *ConfigError.
func Load(data []byte, format Format) (*Document, error) {
	tree, err := decodeTree(data, format)
	if err != nil {
		return nil, &ConfigError{Errors: []Violation{{Path: rootPath, Message: err.Error()}}}
	}

	violations, err := schemaViolations(tree)
	if err != nil {
		return nil, fmt.Errorf("document schema: %w", err)
	}

	doc, semantic := buildDocument(tree)
	violations = append(violations, semantic...)
	if len(violations) > 0 {
		return nil, &ConfigError{Errors: sortViolations(violations)}
	}
	return doc, nil
}

// decodeTree parses data into JSON-shaped values (map[string]any, []any,
// json.Number, string, bool, nil) whatever the source format.
func decodeTree(data []byte, format Format) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	if format == FormatYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("parse json: unexpected data after the top-level value")
	}
	return tree, nil
}

// sortViolations orders violations by document position and drops exact
// duplicates.
func sortViolations(vs []Violation) []Violation {
	slices.SortStableFunc(vs, func(a, b Violation) int {
		if c := comparePaths(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return slices.Compact(vs)
}

// comparePaths compares paths segment by segment, numerically for indices,
// so that actions[2] sorts before actions[10].
func comparePaths(a, b string) int {
	as, bs := splitPath(a), splitPath(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, y := as[i], bs[i]
		if isIndex(x) && isIndex(y) {
			if len(x) != len(y) {
				return len(x) - len(y)
			}
		}
		if c := strings.Compare(x, y); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
}
