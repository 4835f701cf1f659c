// Package rpc is a minimal JSON-RPC 2.0 front end for a router, speaking
// the subset of MCP that line-oriented clients use: initialize, ping,
// tools/list, tools/call, resources/list, resources/templates/list,
// resources/read, prompts/list and prompts/get.
//
// [Handler.HandleRequest] is transport independent. [ServeStdio] reads one
// request per line, [ServeHTTP] accepts a JSON body per POST and
// [ServeSSE] answers a POST with a single server-sent event.
//
// Router failures become JSON-RPC errors whose data field is the failure
// itself:
//
//	unknown_tool, unknown_action  -32001
//	not_found                     -32002
//	effect_failed                 -32003
//	invalid_arguments             -32602
//	internal                      -32603
package rpc
