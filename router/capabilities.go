package router

import (
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/supportbot/action"
)

// Resource URIs and templates served by ResolveResource.
const (
	Scheme            = "knowledge://"
	IndexURI          = Scheme + "index"
	EntryTemplate     = Scheme + "{id}"
	EntryPathTemplate = Scheme + "entry/{id}"
	CategoryTemplate  = Scheme + "category/{name}"
)

const (
	entryPrefix    = "entry/"
	categoryPrefix = "category/"
	mimeJSON       = "application/json"
	toolNamespace  = "supportbot"
	toolVersion    = "1.0.0"
)

// Resource describes a concrete resource or a resource template.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// Capabilities is the bot's static self-description.
type Capabilities struct {
	KnowledgeCategories []string         `json:"knowledgeCategories"`
	Actions             []action.Summary `json:"actions"`
	Tools               []model.Tool     `json:"tools"`
	Resources           []Resource       `json:"resources"`
	ResourceTemplates   []Resource       `json:"resourceTemplates"`
	SearchEngine        string           `json:"searchEngine"`
	SearchFingerprint   string           `json:"searchFingerprint,omitempty"`
	Persona             PersonaStamp     `json:"persona"`
}

func (c Capabilities) clone() Capabilities {
	out := c
	out.KnowledgeCategories = append([]string(nil), c.KnowledgeCategories...)
	out.Actions = append([]action.Summary(nil), c.Actions...)
	out.Tools = append([]model.Tool(nil), c.Tools...)
	out.Resources = append([]Resource(nil), c.Resources...)
	out.ResourceTemplates = append([]Resource(nil), c.ResourceTemplates...)
	out.Persona.Disclaimers = append([]string(nil), c.Persona.Disclaimers...)
	return out
}

// Built-in knowledge tool names.
const (
	ToolSearchKnowledge = "search_knowledge"
	ToolReadArticle     = "read_knowledge_article"
	ToolListCategory    = "list_knowledge_category"
)

// builtinTools describes the knowledge tools as definitions so that their
// arguments are validated and their schemas generated the same way as
// actions.
var builtinTools = []action.Definition{
	{
		Name:        ToolSearchKnowledge,
		Description: "Search the knowledge base and return the best matching articles.",
		Parameters: []action.ParameterSpec{
			{Name: "query", Type: action.TypeString, Required: true, Description: "Free-text search query"},
			{Name: "limit", Type: action.TypeInteger, Description: "Maximum number of results"},
		},
	},
	{
		Name:        ToolReadArticle,
		Description: "Read one knowledge article by id.",
		Parameters: []action.ParameterSpec{
			{Name: "article_id", Type: action.TypeString, Required: true, Description: "Article id"},
		},
	},
	{
		Name:        ToolListCategory,
		Description: "List the articles of one knowledge category.",
		Parameters: []action.ParameterSpec{
			{Name: "category", Type: action.TypeString, Required: true, Description: "Category name"},
		},
	},
}

// BuiltinToolNames returns the names of the knowledge tools.
func BuiltinToolNames() []string {
	names := make([]string, len(builtinTools))
	for i, d := range builtinTools {
		names[i] = d.Name
	}
	return names
}

func toolFromDefinition(d action.Definition, tags ...string) model.Tool {
	return model.Tool{
		Tool: mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		},
		Namespace: toolNamespace,
		Version:   toolVersion,
		Tags:      model.NormalizeTags(tags),
	}
}
