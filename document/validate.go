package document

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/knowledge"
)

// ReservedActionNames are tool names served by the knowledge index; actions
// may not reuse them.
var ReservedActionNames = []string{
	"search_knowledge",
	"read_knowledge_article",
	"list_knowledge_category",
}

type rawPersona struct {
	Name         string   `json:"name"`
	Tone         string   `json:"tone"`
	Disclaimers  []string `json:"disclaimers"`
	Instructions []string `json:"instructions"`
}

type rawEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type rawParameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description"`
	Enum        []string `json:"enum"`
}

type rawAction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	EffectKind  string         `json:"effectKind"`
	Parameters  []rawParameter `json:"parameters"`
}

// buildDocument decodes the typed document from tree. Elements that do not
// decode are skipped: the schema pass has already reported them.
func buildDocument(tree any) (*Document, []Violation) {
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, nil
	}

	var vs []Violation
	doc := &Document{}
	doc.Persona = buildPersona(root["persona"], root["constraints"])
	doc.Knowledge, vs = buildKnowledge(root["knowledge"], vs)
	doc.Actions, vs = buildActions(root["actions"], vs)
	return doc, vs
}

func buildPersona(raw, constraints any) Persona {
	p := Persona{Name: DefaultPersonaName, Tone: DefaultTone}
	switch v := raw.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			p.Instructions = append(p.Instructions, s)
		}
	case map[string]any:
		var rp rawPersona
		if decode(v, &rp) == nil {
			if s := strings.TrimSpace(rp.Name); s != "" {
				p.Name = s
			}
			if s := strings.TrimSpace(rp.Tone); s != "" {
				p.Tone = s
			}
			p.Disclaimers = nonEmpty(rp.Disclaimers)
			p.Instructions = nonEmpty(rp.Instructions)
		}
	}
	var extra []string
	if decode(constraints, &extra) == nil {
		p.Instructions = append(p.Instructions, nonEmpty(extra)...)
	}
	return p
}

func buildKnowledge(raw any, vs []Violation) ([]knowledge.Entry, []Violation) {
	items, _ := raw.([]any)
	entries := make([]knowledge.Entry, 0, len(items))
	firstSeen := make(map[string]string, len(items))

	for i, item := range items {
		path := fmt.Sprintf("knowledge[%d]", i)
		var re rawEntry
		if decode(item, &re) != nil {
			continue
		}

		id := strings.TrimSpace(re.ID)
		if _, present := asMap(item)["id"]; present && id == "" {
			vs = append(vs, Violation{Path: path + ".id", Message: "must not be empty"})
		}
		if _, present := asMap(item)["title"]; present && strings.TrimSpace(re.Title) == "" {
			vs = append(vs, Violation{Path: path + ".title", Message: "must not be empty"})
		}
		body := re.Body
		if strings.TrimSpace(body) == "" {
			body = re.Content
		}
		if strings.TrimSpace(body) == "" {
			vs = append(vs, Violation{Path: path + ".body", Message: "is required"})
		}

		if id != "" {
			if first, dup := firstSeen[id]; dup {
				vs = append(vs, Violation{
					Path:    path + ".id",
					Message: fmt.Sprintf("duplicate id %q (first defined at %s)", id, first),
				})
				continue
			}
			firstSeen[id] = path
		}

		entries = append(entries, knowledge.Entry{
			ID:       id,
			Title:    re.Title,
			Body:     body,
			Tags:     re.Tags,
			Category: re.Category,
		}.Normalized())
	}
	return entries, vs
}

func buildActions(raw any, vs []Violation) ([]action.Definition, []Violation) {
	items, _ := raw.([]any)
	defs := make([]action.Definition, 0, len(items))
	firstSeen := make(map[string]string, len(items))

	for i, item := range items {
		path := fmt.Sprintf("actions[%d]", i)
		var ra rawAction
		if decode(item, &ra) != nil {
			continue
		}

		name := strings.TrimSpace(ra.Name)
		if _, present := asMap(item)["name"]; present && name == "" {
			vs = append(vs, Violation{Path: path + ".name", Message: "must not be empty"})
		}
		if slices.Contains(ReservedActionNames, name) {
			vs = append(vs, Violation{
				Path:    path + ".name",
				Message: fmt.Sprintf("%q is reserved for a built-in knowledge tool", name),
			})
		}
		kind := action.EffectKind(strings.TrimSpace(ra.EffectKind))
		if _, present := asMap(item)["effectKind"]; present && !kind.Valid() {
			vs = append(vs, Violation{
				Path:    path + ".effectKind",
				Message: fmt.Sprintf("unknown effectKind %q (want one of %s)", ra.EffectKind, joinKinds()),
			})
		}

		params, pvs := buildParameters(path, ra.Parameters)
		vs = append(vs, pvs...)

		if name != "" {
			if first, dup := firstSeen[name]; dup {
				vs = append(vs, Violation{
					Path:    path + ".name",
					Message: fmt.Sprintf("duplicate action name %q (first defined at %s)", name, first),
				})
				continue
			}
			firstSeen[name] = path
		}

		defs = append(defs, action.Definition{
			Name:        name,
			Description: strings.TrimSpace(ra.Description),
			Parameters:  params,
			EffectKind:  kind,
		})
	}
	return defs, vs
}

func buildParameters(actionPath string, raw []rawParameter) ([]action.ParameterSpec, []Violation) {
	var vs []Violation
	params := make([]action.ParameterSpec, 0, len(raw))
	firstSeen := make(map[string]string, len(raw))

	for j, rp := range raw {
		path := fmt.Sprintf("%s.parameters[%d]", actionPath, j)
		name := strings.TrimSpace(rp.Name)
		if name == "" {
			vs = append(vs, Violation{Path: path + ".name", Message: "must not be empty"})
		} else if first, dup := firstSeen[name]; dup {
			vs = append(vs, Violation{
				Path:    path + ".name",
				Message: fmt.Sprintf("duplicate parameter name %q (first defined at %s)", name, first),
			})
		} else {
			firstSeen[name] = path
		}

		typ := action.ParamType(strings.TrimSpace(rp.Type))
		if typ == "" {
			typ = action.TypeString
		}
		if !typ.Valid() {
			vs = append(vs, Violation{
				Path:    path + ".type",
				Message: fmt.Sprintf("unknown parameter type %q", rp.Type),
			})
		}
		if len(rp.Enum) > 0 && typ != action.TypeString {
			vs = append(vs, Violation{Path: path + ".enum", Message: "is only allowed on string parameters"})
		}

		params = append(params, action.ParameterSpec{
			Name:        name,
			Type:        typ,
			Required:    rp.Required,
			Description: strings.TrimSpace(rp.Description),
			Enum:        slices.Clone(rp.Enum),
		})
	}
	return params, vs
}

func decode(v any, dst any) error {
	if v == nil {
		return fmt.Errorf("missing value")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinKinds() string {
	names := make([]string, len(action.EffectKinds))
	for i, k := range action.EffectKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
