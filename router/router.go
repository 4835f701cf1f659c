package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/document"
	"github.com/jonwraymond/supportbot/knowledge"
)

// Search limits applied when Options leaves them unset.
const (
	DefaultSearchLimit = 5
	DefaultMaxLimit    = 50
)

// EngineToken names the built-in token index engine.
const EngineToken = "token"

// fingerprinter is implemented by searchers that can identify the entry set
// they were built from.
type fingerprinter interface {
	Fingerprint() string
}

// SearchObserver is notified of every knowledge search.
type SearchObserver interface {
	SearchObserved(ctx context.Context, engine string, results int)
}

// Options configures a Router.
type Options struct {
	// Searcher ranks search_knowledge queries. Default: the index itself.
	Searcher knowledge.Searcher

	// SearchEngine is reported in capabilities. Default: "token"
	SearchEngine string

	// DefaultLimit applies when search_knowledge omits limit. Default: 5
	DefaultLimit int

	// MaxLimit caps any requested limit. Default: 50
	MaxLimit int

	// Logger receives internal failures. Default: slog.Default()
	Logger *slog.Logger

	// Tracer opens one span per call. Default: otel.Tracer("supportbot/router")
	Tracer trace.Tracer

	// Observer is optional.
	Observer SearchObserver
}

func (o Options) withDefaults(index *knowledge.Index) Options {
	if o.Searcher == nil {
		o.Searcher = index
		if o.SearchEngine == "" {
			o.SearchEngine = EngineToken
		}
	}
	if o.SearchEngine == "" {
		o.SearchEngine = "custom"
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultSearchLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = DefaultMaxLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer("supportbot/router")
	}
	return o
}

// PersonaStamp is the persona view attached to every response.
type PersonaStamp struct {
	Name        string   `json:"name"`
	Tone        string   `json:"tone"`
	Disclaimers []string `json:"disclaimers,omitempty"`
}

// SearchResult is the payload of search_knowledge.
type SearchResult struct {
	Query  string          `json:"query"`
	Engine string          `json:"engine"`
	Hits   []knowledge.Hit `json:"hits"`
}

// Response is returned by ResolveResource and CallTool. Exactly one of
// Entry, Entries, Search and Action is set.
type Response struct {
	Persona PersonaStamp      `json:"persona"`
	Entry   *knowledge.Entry  `json:"entry,omitempty"`
	Entries []knowledge.Entry `json:"entries,omitempty"`
	Search  *SearchResult     `json:"search,omitempty"`
	Action  *action.Result    `json:"action,omitempty"`
}

// Router dispatches transport requests to the knowledge index and the
// action registry.
type Router struct {
	opts     Options
	persona  document.Persona
	index    *knowledge.Index
	registry *action.Registry
	builtins map[string]*action.ArgumentValidator
	caps     Capabilities
}

// New builds a router. Action names must not collide with the built-in
// knowledge tools.
func New(persona document.Persona, index *knowledge.Index, registry *action.Registry, opts Options) (*Router, error) {
	if index == nil {
		return nil, errors.New("router: knowledge index is required")
	}
	if registry == nil {
		return nil, errors.New("router: action registry is required")
	}

	r := &Router{
		opts:     opts.withDefaults(index),
		persona:  persona,
		index:    index,
		registry: registry,
		builtins: make(map[string]*action.ArgumentValidator, len(builtinTools)),
	}
	for _, d := range builtinTools {
		if registry.Has(d.Name) {
			return nil, fmt.Errorf("router: action %q shadows a built-in tool", d.Name)
		}
		validator, err := action.NewArgumentValidator(d)
		if err != nil {
			return nil, fmt.Errorf("router: %w", err)
		}
		r.builtins[d.Name] = validator
	}

	caps, err := r.buildCapabilities()
	if err != nil {
		return nil, err
	}
	r.caps = caps
	return r, nil
}

func (r *Router) buildCapabilities() (Capabilities, error) {
	caps := Capabilities{
		KnowledgeCategories: r.index.Categories(),
		Actions:             r.registry.Summaries(),
		SearchEngine:        r.opts.SearchEngine,
		Persona:             r.stamp(),
		Resources: []Resource{{
			URI:         IndexURI,
			Name:        "knowledge-index",
			Description: "Every knowledge article",
			MIMEType:    mimeJSON,
		}},
		ResourceTemplates: []Resource{
			{URI: EntryTemplate, Name: "knowledge-entry", Description: "One knowledge article by id", MIMEType: mimeJSON},
			{URI: EntryPathTemplate, Name: "knowledge-entry-path", Description: "One knowledge article by id", MIMEType: mimeJSON},
			{URI: CategoryTemplate, Name: "knowledge-category", Description: "Knowledge articles in one category", MIMEType: mimeJSON},
		},
	}
	if fp, ok := r.opts.Searcher.(fingerprinter); ok {
		caps.SearchFingerprint = fp.Fingerprint()
	}
	for _, c := range caps.KnowledgeCategories {
		caps.Resources = append(caps.Resources, Resource{
			URI:         Scheme + categoryPrefix + c,
			Name:        "knowledge-category-" + c,
			Description: fmt.Sprintf("Knowledge articles in category %s", c),
			MIMEType:    mimeJSON,
		})
	}

	for _, d := range builtinTools {
		caps.Tools = append(caps.Tools, toolFromDefinition(d, "knowledge"))
	}
	for _, d := range r.registry.Definitions() {
		caps.Tools = append(caps.Tools, toolFromDefinition(d, "action", string(d.EffectKind)))
	}
	for _, tool := range caps.Tools {
		if err := tool.Validate(); err != nil {
			return Capabilities{}, fmt.Errorf("router: tool %q: %w", tool.Name, err)
		}
	}
	return caps, nil
}

// ListCapabilities returns the static capability description.
func (r *Router) ListCapabilities() Capabilities {
	return r.caps.clone()
}

// Persona returns the loaded persona.
func (r *Router) Persona() document.Persona {
	p := r.persona
	p.Disclaimers = slices.Clone(p.Disclaimers)
	p.Instructions = slices.Clone(p.Instructions)
	return p
}

// Prompt returns the persona rendered as system-prompt text.
func (r *Router) Prompt() string {
	return r.persona.Prompt()
}

// History returns the most recent audit records, newest first.
func (r *Router) History(limit int) []action.AuditRecord {
	return r.registry.History(limit)
}

// Stats returns the registry's counters.
func (r *Router) Stats() action.Stats {
	return r.registry.Stats()
}

func (r *Router) stamp() PersonaStamp {
	return PersonaStamp{
		Name:        r.persona.Name,
		Tone:        r.persona.Tone,
		Disclaimers: slices.Clone(r.persona.Disclaimers),
	}
}

func (r *Router) respond() Response {
	return Response{Persona: r.stamp()}
}

// finish records the outcome on span and converts err into a *Failure.
func (r *Router) finish(ctx context.Context, span trace.Span, op, target string, err error) error {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	f := r.toFailure(ctx, op, target, err)
	stamp := r.stamp()
	f.Persona = &stamp
	span.SetAttributes(attribute.String("failure.kind", string(f.Kind)))
	span.SetStatus(codes.Error, f.Message)
	return f
}

func (r *Router) toFailure(ctx context.Context, op, target string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var ae *action.Error
	if errors.As(err, &ae) {
		return fromActionError(ae)
	}
	if errors.Is(err, knowledge.ErrNotFound) {
		return failure(KindNotFound, err, "%s", err.Error())
	}
	if errors.Is(err, knowledge.ErrInvalidLimit) {
		return failure(KindInvalidArguments, err, "%s", err.Error())
	}

	r.opts.Logger.ErrorContext(ctx, "router.internal_error",
		slog.String("op", op),
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
	return failure(KindInternal, err, "internal error while handling %s", target)
}

func fromActionError(ae *action.Error) *Failure {
	switch ae.Kind {
	case action.KindUnknownAction:
		return failure(KindUnknownAction, ae, "unknown action %q", ae.Action)
	case action.KindInvalidArguments:
		f := failure(KindInvalidArguments, ae, "%s", ae.Error())
		f.Details = map[string]any{
			"action":     ae.Action,
			"violations": slices.Clone(ae.Violations),
		}
		return f
	default:
		f := failure(KindEffectFailed, ae, "%s", ae.Error())
		details := map[string]any{"action": ae.Action}
		if ae.Cause != nil {
			details["cause"] = ae.Cause.Error()
		}
		if errors.Is(ae, action.ErrTimeout) {
			details["timeout"] = true
		}
		f.Details = details
		return f
	}
}
