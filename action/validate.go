package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBaseURL = "https://supportbot.schemas.local/actions/"

// ArgumentValidator checks invocation arguments against the compiled
// JSON Schema of one definition.
type ArgumentValidator struct {
	def    Definition
	schema *jsonschema.Schema
}

// NewArgumentValidator compiles d's input schema.
func NewArgumentValidator(d Definition) (*ArgumentValidator, error) {
	raw, err := json.Marshal(d.InputSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: encode schema: %v", ErrInvalidAction, d.Name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := schemaBaseURL + url.PathEscape(d.Name) + ".schema.json"
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %s: load schema: %v", ErrInvalidAction, d.Name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: compile schema: %v", ErrInvalidAction, d.Name, err)
	}
	return &ArgumentValidator{def: d.clone(), schema: compiled}, nil
}

// Validate returns every violation found, in parameter order followed by
// unknown arguments sorted by name. A nil value counts as absent.
func (v *ArgumentValidator) Validate(args map[string]any) []Violation {
	instance := make(map[string]any, len(args))
	byParam := make(map[string]string)
	for name, value := range args {
		if value == nil {
			continue
		}
		normalized, err := jsonValue(value)
		if err != nil {
			byParam[name] = "must be a JSON value"
			continue
		}
		instance[name] = normalized
	}

	var missing, unknown bool
	if err := v.schema.Validate(instance); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []Violation{{Message: err.Error()}}
		}
		for _, leaf := range leaves(ve) {
			switch {
			case strings.HasSuffix(leaf.KeywordLocation, "/required"):
				missing = true
			case strings.HasSuffix(leaf.KeywordLocation, "/additionalProperties"):
				unknown = true
			default:
				name := parameterAt(leaf.InstanceLocation)
				if _, seen := byParam[name]; !seen {
					byParam[name] = leaf.Message
				}
			}
		}
	}

	var violations []Violation
	for _, p := range v.def.Parameters {
		if msg, ok := byParam[p.Name]; ok {
			violations = append(violations, Violation{Parameter: p.Name, Message: msg})
			continue
		}
		if _, present := instance[p.Name]; missing && p.Required && !present {
			violations = append(violations, Violation{Parameter: p.Name, Message: "is required"})
		}
	}

	if unknown {
		var names []string
		for name := range args {
			if _, ok := v.def.Parameter(name); !ok {
				names = append(names, name)
			}
		}
		slices.Sort(names)
		for _, name := range names {
			violations = append(violations, Violation{Parameter: name, Message: "is not a parameter of " + v.def.Name})
		}
	}
	return violations
}

// jsonValue re-decodes value into the shapes the schema validator accepts
// (map[string]any, []any, json.Number, string, bool).
func jsonValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

// parameterAt returns the top-level property named by a JSON pointer such
// as /data/email.
func parameterAt(pointer string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(pointer, "/"), "/")
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}
