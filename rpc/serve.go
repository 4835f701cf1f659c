package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxLineSize = 4 << 20

// ServeStdio answers one request per line read from in, writing one
// response per line to out. It returns when in is exhausted or ctx is
// cancelled.
func ServeStdio(ctx context.Context, h *Handler, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := encoder.Encode(errorResponse(nil, ErrCodeParseError, err.Error(), nil)); err != nil {
				return fmt.Errorf("failed to encode error response: %w", err)
			}
			continue
		}
		if req.IsNotification() {
			continue
		}

		if err := encoder.Encode(h.HandleRequest(ctx, req)); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// ServeHTTP returns an http.Handler accepting a JSON-RPC request per POST.
func ServeHTTP(h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var rpcReq Request
		if err := json.NewDecoder(io.LimitReader(req.Body, maxLineSize)).Decode(&rpcReq); err != nil {
			writeJSON(w, errorResponse(nil, ErrCodeParseError, err.Error(), nil))
			return
		}
		if rpcReq.IsNotification() {
			w.WriteHeader(http.StatusAccepted)
			return
		}

		writeJSON(w, h.HandleRequest(req.Context(), rpcReq))
	})
}

// ServeSSE returns an http.Handler that answers a POSTed request with a
// single server-sent event. The event id echoes the request id.
func ServeSSE(h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		var rpcReq Request
		decodeErr := json.NewDecoder(io.LimitReader(req.Body, maxLineSize)).Decode(&rpcReq)
		if decodeErr == nil && rpcReq.IsNotification() {
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		ev := sseEvent{name: "message", id: rpcReq.ID}
		if decodeErr != nil {
			ev.name = "error"
			ev.data = errorResponse(nil, ErrCodeParseError, decodeErr.Error(), nil)
		} else {
			ev.data = h.HandleRequest(req.Context(), rpcReq)
		}
		ev.writeTo(w)
		flusher.Flush()
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type sseEvent struct {
	name string
	id   any
	data Response
}

// writeTo emits the event in text/event-stream framing. A response that
// cannot be encoded is replaced by an internal error response.
func (ev sseEvent) writeTo(w io.Writer) {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		ev.name = "error"
		payload, _ = json.Marshal(errorResponse(ev.data.ID, ErrCodeInternal, "encode response: "+err.Error(), nil))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\ndata: %s\n", ev.name, payload)
	if ev.id != nil {
		fmt.Fprintf(&b, "id: %v\n", ev.id)
	}
	b.WriteString("\n")
	_, _ = io.WriteString(w, b.String())
}
