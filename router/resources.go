package router

import (
	"context"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/supportbot/knowledge"
)

// ResolveResource reads a knowledge:// resource. An unknown id, a category
// without entries, or a URI outside the knowledge scheme fails with
// KindNotFound.
func (r *Router) ResolveResource(ctx context.Context, uri string) (Response, error) {
	ctx, span := r.opts.Tracer.Start(ctx, "Router.ResolveResource", trace.WithAttributes(
		attribute.String("resource.uri", uri),
	))
	resp, err := r.resolve(uri)
	return resp, r.finish(ctx, span, "resolve_resource", uri, err)
}

func (r *Router) resolve(uri string) (Response, error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok {
		return Response{}, failure(KindNotFound, nil, "unsupported resource URI %q", uri)
	}
	rest, err := url.PathUnescape(rest)
	if err != nil {
		return Response{}, failure(KindNotFound, err, "malformed resource URI %q", uri)
	}

	resp := r.respond()
	switch {
	case rest == "index":
		resp.Entries = r.index.All()
		return resp, nil
	case strings.HasPrefix(rest, categoryPrefix):
		category := strings.TrimPrefix(rest, categoryPrefix)
		entries, err := r.category(category)
		if err != nil {
			return Response{}, err
		}
		resp.Entries = entries
		return resp, nil
	default:
		id := strings.TrimPrefix(rest, entryPrefix)
		entry, err := r.entry(id)
		if err != nil {
			return Response{}, err
		}
		resp.Entry = &entry
		return resp, nil
	}
}

func (r *Router) entry(id string) (knowledge.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return knowledge.Entry{}, failure(KindNotFound, knowledge.ErrNotFound, "empty knowledge id")
	}
	entry, err := r.index.Get(id)
	if err != nil {
		return knowledge.Entry{}, failure(KindNotFound, err, "knowledge article %q not found", id)
	}
	return entry, nil
}

func (r *Router) category(name string) ([]knowledge.Entry, error) {
	entries := r.index.ListByCategory(name)
	if len(entries) == 0 {
		return nil, failure(KindNotFound, knowledge.ErrNotFound, "knowledge category %q not found", name)
	}
	return entries, nil
}
