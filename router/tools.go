package router

import (
	"context"
	"encoding/json"
	"math"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/knowledge"
)

// CallTool runs a built-in knowledge tool or invokes the action of the
// same name. Names that are neither fail with KindUnknownTool.
func (r *Router) CallTool(ctx context.Context, name string, args map[string]any) (Response, error) {
	ctx, span := r.opts.Tracer.Start(ctx, "Router.CallTool", trace.WithAttributes(
		attribute.String("tool.name", name),
	))
	resp, err := r.call(ctx, name, args)
	return resp, r.finish(ctx, span, "call_tool", name, err)
}

func (r *Router) call(ctx context.Context, name string, args map[string]any) (Response, error) {
	if args == nil {
		args = map[string]any{}
	}

	if validator, ok := r.builtins[name]; ok {
		if vs := validator.Validate(args); len(vs) > 0 {
			return Response{}, fromActionError(&action.Error{
				Kind:       action.KindInvalidArguments,
				Action:     name,
				Violations: vs,
			})
		}
		switch name {
		case ToolSearchKnowledge:
			return r.search(ctx, args)
		case ToolReadArticle:
			entry, err := r.entry(args["article_id"].(string))
			if err != nil {
				return Response{}, err
			}
			resp := r.respond()
			resp.Entry = &entry
			return resp, nil
		case ToolListCategory:
			entries, err := r.category(args["category"].(string))
			if err != nil {
				return Response{}, err
			}
			resp := r.respond()
			resp.Entries = entries
			return resp, nil
		}
	}

	if !r.registry.Has(name) {
		return Response{}, failure(KindUnknownTool, nil, "unknown tool %q", name)
	}
	result, err := r.registry.Invoke(ctx, name, args)
	if err != nil {
		return Response{}, err
	}
	resp := r.respond()
	resp.Action = &result
	return resp, nil
}

func (r *Router) search(ctx context.Context, args map[string]any) (Response, error) {
	query := args["query"].(string)
	limit := r.opts.DefaultLimit
	if v, ok := args["limit"]; ok && v != nil {
		n, ok := asInt(v)
		if !ok || n < 1 {
			return Response{}, fromActionError(&action.Error{
				Kind:   action.KindInvalidArguments,
				Action: ToolSearchKnowledge,
				Violations: []action.Violation{
					{Parameter: "limit", Message: "must be a positive integer"},
				},
			})
		}
		limit = min(n, r.opts.MaxLimit)
	}

	hits, err := r.opts.Searcher.Search(query, limit)
	if err != nil {
		return Response{}, err
	}
	if hits == nil {
		hits = []knowledge.Hit{}
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("search.engine", r.opts.SearchEngine),
		attribute.Int("search.results", len(hits)),
	)
	if r.opts.Observer != nil {
		r.opts.Observer.SearchObserved(ctx, r.opts.SearchEngine, len(hits))
	}

	resp := r.respond()
	resp.Search = &SearchResult{Query: query, Engine: r.opts.SearchEngine, Hits: hits}
	return resp, nil
}

// asInt accepts the integer shapes a decoded argument can take.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return int(rv.Int()), true
	case rv.CanUint():
		return int(rv.Uint()), true
	}
	return 0, false
}
