// Package document loads the bot's declarative configuration: the persona,
// the knowledge entries and the action definitions.
//
// Loading is pure and exhaustive. The raw JSON or YAML is checked against an
// embedded JSON Schema for structure, then decoded and checked for semantic
// problems (duplicate entry ids or action names, unknown effect kinds,
// duplicate or mistyped parameters). Every problem found is reported in a
// single *[ConfigError]; a document that loads is guaranteed to build a
// knowledge index and an action registry.
//
// # Format
//
//	{
//	  "persona":   {"name": "Ava", "tone": "friendly", "disclaimers": ["..."]},
//	  "knowledge": [{"id": "kb-001", "title": "...", "body": "...", "tags": ["..."], "category": "account"}],
//	  "actions":   [{"name": "create_ticket", "effectKind": "create_ticket",
//	                 "parameters": [{"name": "description", "type": "string", "required": true}]}]
//	}
//
// The persona may also be a plain string, which becomes its sole
// instruction, and a top-level "constraints" array is appended to the
// persona instructions. Entries may spell "body" as "content".
package document
