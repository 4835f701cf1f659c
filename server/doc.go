// Package server exposes a router over the Model Context Protocol using
// the official Go SDK.
//
// Every tool the router advertises is registered with its generated input
// schema, the knowledge resources and templates are served through
// ResolveResource, and the persona is available as the bot_persona prompt.
//
//	srv := server.New(rt, server.Options{Name: "supportbot", Version: "1.0.0"})
//	err := srv.Run(ctx, &mcp.StdioTransport{})
//
// Routed failures are returned as tool results with IsError set and the
// failure encoded as JSON, so clients can switch on its kind.
package server
