package rpc

import "github.com/jonwraymond/supportbot/router"

// JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError       = -32700
	ErrCodeInvalidRequest   = -32600
	ErrCodeMethodNotFound   = -32601
	ErrCodeInvalidParams    = -32602
	ErrCodeInternal         = -32603
	ErrCodeToolNotFound     = -32001
	ErrCodeResourceNotFound = -32002
	ErrCodeToolExecFailed   = -32003
)

func failureCode(kind router.FailureKind) int {
	switch kind {
	case router.KindUnknownTool, router.KindUnknownAction:
		return ErrCodeToolNotFound
	case router.KindNotFound:
		return ErrCodeResourceNotFound
	case router.KindEffectFailed:
		return ErrCodeToolExecFailed
	case router.KindInvalidArguments:
		return ErrCodeInvalidParams
	default:
		return ErrCodeInternal
	}
}
