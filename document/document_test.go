package document

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/knowledge"
)

func mustLoadFile(t *testing.T, name string) *Document {
	t.Helper()
	doc, err := LoadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFile(%s) failed: %v", name, err)
	}
	return doc
}

func loadErr(t *testing.T, src string) *ConfigError {
	t.Helper()
	_, err := Load([]byte(src), FormatJSON)
	if err == nil {
		t.Fatal("expected load to fail")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("expected errors.Is(err, ErrInvalidDocument)")
	}
	return cerr
}

// ============================================================
// Tests for valid documents
// ============================================================

func TestLoadFile_JSON(t *testing.T) {
	doc := mustLoadFile(t, "valid.json")

	if doc.Persona.Name != "Ava" || doc.Persona.Tone != "friendly" {
		t.Errorf("unexpected persona: %+v", doc.Persona)
	}
	if want := []string{"Search the knowledge base before answering."}; !reflect.DeepEqual(doc.Persona.Instructions, want) {
		t.Errorf("constraints not merged into instructions: %v", doc.Persona.Instructions)
	}
	if len(doc.Knowledge) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(doc.Knowledge))
	}
	first := doc.Knowledge[0]
	if first.Body == "" {
		t.Error("expected content to be accepted as body")
	}
	if !reflect.DeepEqual(first.Tags, []string{"auth", "login"}) {
		t.Errorf("expected normalized tags, got %v", first.Tags)
	}
	if len(doc.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(doc.Actions))
	}
	priority, ok := doc.Actions[0].Parameter("priority")
	if !ok || priority.Type != action.TypeString {
		t.Errorf("expected priority to default to string, got %+v", priority)
	}
}

func TestLoadFile_YAMLMatchesJSON(t *testing.T) {
	fromJSON := mustLoadFile(t, "valid.json")
	fromYAML := mustLoadFile(t, "valid.yaml")

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("YAML and JSON documents differ:\njson=%+v\nyaml=%+v", fromJSON, fromYAML)
	}
}

func TestLoad_PersonaString(t *testing.T) {
	doc, err := Load([]byte(`{"persona": "You are a helpful assistant."}`), FormatJSON)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Persona.Name != DefaultPersonaName || doc.Persona.Tone != DefaultTone {
		t.Errorf("expected defaults, got %+v", doc.Persona)
	}
	if !reflect.DeepEqual(doc.Persona.Instructions, []string{"You are a helpful assistant."}) {
		t.Errorf("expected string persona as instruction, got %v", doc.Persona.Instructions)
	}
}

func TestLoad_ValidDocumentBuildsIndexAndRegistry(t *testing.T) {
	doc := mustLoadFile(t, "valid.json")

	if _, err := knowledge.NewIndex(doc.Knowledge, knowledge.IndexOptions{}); err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	noop := func(ctx context.Context, inv action.Invocation) (any, error) { return nil, nil }
	handlers := action.Handlers{ByKind: map[action.EffectKind]action.Handler{}}
	for _, k := range action.EffectKinds {
		handlers.ByKind[k] = noop
	}
	if _, err := action.NewRegistry(doc.Actions, handlers, action.Options{}); err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
}

func TestPersona_Prompt(t *testing.T) {
	p := Persona{
		Name:         "Ava",
		Tone:         "friendly",
		Instructions: []string{"Search first."},
		Disclaimers:  []string{"No legal advice."},
	}
	prompt := p.Prompt()
	for _, want := range []string{"You are Ava", "friendly", "Search first.", "- No legal advice."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

// ============================================================
// Tests for invalid documents
// ============================================================

func TestLoad_DuplicateKnowledgeID(t *testing.T) {
	cerr := loadErr(t, `{
		"persona": {"name": "Ava"},
		"knowledge": [
			{"id": "kb-1", "title": "One", "body": "x"},
			{"id": "kb-2", "title": "Two", "body": "y"},
			{"id": "kb-1", "title": "Three", "body": "z"}
		]
	}`)
	if !cerr.Has("knowledge[2].id", `duplicate id "kb-1"`) {
		t.Errorf("expected duplicate id violation, got %v", cerr.Errors)
	}
}

func TestLoad_DuplicateActionName(t *testing.T) {
	cerr := loadErr(t, `{
		"persona": {"name": "Ava"},
		"actions": [
			{"name": "notify", "effectKind": "notify"},
			{"name": "notify", "effectKind": "notify"}
		]
	}`)
	if !cerr.Has("actions[1].name", `duplicate action name "notify"`) {
		t.Errorf("expected duplicate action violation, got %v", cerr.Errors)
	}
}

func TestLoad_ActionNameMustBeToolName(t *testing.T) {
	long := strings.Repeat("a", 129)
	cerr := loadErr(t, `{
		"persona": {"name": "Ava"},
		"actions": [
			{"name": "open ticket", "effectKind": "create_ticket"},
			{"name": "notify/user", "effectKind": "notify"},
			{"name": "`+long+`", "effectKind": "custom"},
			{"name": "ok.name-1_x", "effectKind": "custom"}
		]
	}`)
	if !cerr.Has("actions[0].name", "does not match pattern") {
		t.Errorf("expected pattern violation for a name with a space, got %v", cerr.Errors)
	}
	if !cerr.Has("actions[1].name", "does not match pattern") {
		t.Errorf("expected pattern violation for a name with a slash, got %v", cerr.Errors)
	}
	if !cerr.Has("actions[2].name", "length must be <= 128") {
		t.Errorf("expected length violation, got %v", cerr.Errors)
	}
	for _, v := range cerr.Errors {
		if strings.HasPrefix(v.Path, "actions[3]") {
			t.Errorf("valid tool name rejected: %v", v)
		}
	}
}

func TestLoad_ReportsEveryViolation(t *testing.T) {
	cerr := loadErr(t, `{
		"persona": {"tone": "calm"},
		"knowledge": [
			{"id": "kb-1", "body": "missing title"},
			{"id": "kb-1", "title": "Dup", "body": "x"},
			{"id": 7, "title": "Numeric id", "body": "x"},
			{"id": "kb-3", "title": "No body"}
		],
		"actions": [
			{"name": "teleport", "effectKind": "teleport"},
			{"name": "update_record", "effectKind": "update_record",
			 "parameters": [{"name": "record_id"}, {"name": "record_id"}, {"name": "when", "type": "date"}]},
			{"effectKind": "notify"},
			{"name": "search_knowledge", "effectKind": "custom"}
		]
	}`)

	checks := []struct{ path, substr string }{
		{"persona", "name"},
		{"knowledge[0]", "title"},
		{"knowledge[1].id", "duplicate id"},
		{"knowledge[2].id", "string"},
		{"knowledge[3].body", "is required"},
		{"actions[0].effectKind", `unknown effectKind "teleport"`},
		{"actions[1].parameters[1].name", "duplicate parameter name"},
		{"actions[1].parameters[2].type", `unknown parameter type "date"`},
		{"actions[2]", "name"},
		{"actions[3].name", "reserved"},
	}
	for _, c := range checks {
		if !cerr.Has(c.path, c.substr) {
			t.Errorf("missing violation at %s containing %q; got %v", c.path, c.substr, cerr.Errors)
		}
	}

	for i := 1; i < len(cerr.Errors); i++ {
		if comparePaths(cerr.Errors[i-1].Path, cerr.Errors[i].Path) > 0 {
			t.Errorf("violations not in document order: %v", cerr.Errors)
			break
		}
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	cerr := loadErr(t, `{"persona": `)
	if len(cerr.Errors) != 1 || cerr.Errors[0].Path != rootPath {
		t.Errorf("expected one document-level violation, got %v", cerr.Errors)
	}
}

func TestLoad_TrailingData(t *testing.T) {
	cerr := loadErr(t, `{"persona": {"name": "Ava"}} {"persona": {}}`)
	if !cerr.Has(rootPath, "unexpected data") {
		t.Errorf("expected trailing data violation, got %v", cerr.Errors)
	}
}

func TestDecodeTree_KeepsNumbersExact(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		tree, err := decodeTree([]byte(`{"n": 9007199254740993}`), format)
		if err != nil {
			t.Fatalf("%s: decodeTree: %v", format, err)
		}
		n, ok := tree.(map[string]any)["n"].(json.Number)
		if !ok {
			t.Fatalf("%s: n decoded as %T, want json.Number", format, tree.(map[string]any)["n"])
		}
		if format == FormatJSON && n.String() != "9007199254740993" {
			t.Errorf("%s: n = %s, want 9007199254740993", format, n)
		}
	}
}

func TestLoad_EmptyDocument(t *testing.T) {
	cerr := loadErr(t, "   ")
	if !cerr.Has(rootPath, "empty") {
		t.Errorf("expected empty document violation, got %v", cerr.Errors)
	}
}

func TestLoad_NotAnObject(t *testing.T) {
	cerr := loadErr(t, `[1, 2, 3]`)
	if len(cerr.Errors) == 0 {
		t.Error("expected violations for non-object document")
	}
}

func TestLoad_EnumOnNonString(t *testing.T) {
	cerr := loadErr(t, `{
		"persona": {"name": "Ava"},
		"actions": [{"name": "a", "effectKind": "notify",
			"parameters": [{"name": "n", "type": "integer", "enum": ["1"]}]}]
	}`)
	if !cerr.Has("actions[0].parameters[0].enum", "only allowed on string") {
		t.Errorf("expected enum violation, got %v", cerr.Errors)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "does-not-exist.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrInvalidDocument) {
		t.Error("missing file should not be reported as an invalid document")
	}
}

func TestPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":                            rootPath,
		"/persona":                    "persona",
		"/knowledge/0/id":             "knowledge[0].id",
		"/actions/1/parameters/2/type": "actions[1].parameters[2].type",
	}
	for in, want := range tests {
		if got := pointerToPath(in); got != want {
			t.Errorf("pointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComparePaths(t *testing.T) {
	if comparePaths("actions[2].name", "actions[10].name") >= 0 {
		t.Error("expected actions[2] before actions[10]")
	}
	if comparePaths("actions[0]", "knowledge[0]") >= 0 {
		t.Error("expected actions before knowledge")
	}
	if comparePaths("knowledge[0]", "knowledge[0].id") >= 0 {
		t.Error("expected parent before child")
	}
}
