package action

import (
	"fmt"
	"slices"
	"strings"
)

// EffectKind is one member of the capability set the registry can
// dispatch.
type EffectKind string

const (
	EffectCreateTicket EffectKind = "create_ticket"
	EffectUpdateRecord EffectKind = "update_record"
	EffectNotify       EffectKind = "notify"
	EffectCustom       EffectKind = "custom"
)

// EffectKinds lists the capability set in declaration order.
var EffectKinds = []EffectKind{EffectCreateTicket, EffectUpdateRecord, EffectNotify, EffectCustom}

// Valid reports whether k is a member of the capability set.
func (k EffectKind) Valid() bool {
	return slices.Contains(EffectKinds, k)
}

// ParamType is the declared runtime type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
	TypeAny     ParamType = "any"
)

// ParamTypes lists every accepted parameter type.
var ParamTypes = []ParamType{TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray, TypeAny}

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	return slices.Contains(ParamTypes, t)
}

// ParameterSpec declares one action parameter.
type ParameterSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	// Enum restricts string values when non-empty.
	Enum []string `json:"enum,omitempty"`
}

// Definition is an immutable action definition. Identity is Name.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterSpec `json:"parameters"`
	EffectKind  EffectKind      `json:"effectKind"`
}

// Summary is the introspection view of a definition.
type Summary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	EffectKind  EffectKind      `json:"effectKind"`
	Parameters  []ParameterSpec `json:"parameters"`
	Required    []string        `json:"required,omitempty"`
}

// Summary returns the definition's introspection view.
func (d Definition) Summary() Summary {
	s := Summary{
		Name:        d.Name,
		Description: d.Description,
		EffectKind:  d.EffectKind,
		Parameters:  d.clone().Parameters,
	}
	for _, p := range d.Parameters {
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// Parameter returns the spec with the given name.
func (d Definition) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Validate checks the definition in isolation: non-empty name, a known
// effect kind, and named, uniquely named, well-typed parameters.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAction)
	}
	if !d.EffectKind.Valid() {
		return fmt.Errorf("%w: %s: unknown effect kind %q", ErrInvalidAction, d.Name, d.EffectKind)
	}
	seen := make(map[string]struct{}, len(d.Parameters))
	for i, p := range d.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: %s: parameter %d has no name", ErrInvalidAction, d.Name, i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidAction, d.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Type != "" && !p.Type.Valid() {
			return fmt.Errorf("%w: %s: parameter %q has unknown type %q", ErrInvalidAction, d.Name, p.Name, p.Type)
		}
	}
	return nil
}

// InputSchema renders the parameters as a JSON Schema object, the shape
// MCP clients expect for a tool's input.
func (d Definition) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{}
		if t := p.effectiveType(); t != TypeAny {
			prop["type"] = string(t)
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = slices.Clone(p.Enum)
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (p ParameterSpec) effectiveType() ParamType {
	if p.Type == "" {
		return TypeString
	}
	return p.Type
}

func (d Definition) clone() Definition {
	out := d
	out.Parameters = make([]ParameterSpec, len(d.Parameters))
	for i, p := range d.Parameters {
		p.Enum = slices.Clone(p.Enum)
		out.Parameters[i] = p
	}
	return out
}
