// Package router is the single entry point the transports talk to.
//
// A [Router] sits in front of the knowledge index and the action registry.
// It advertises what the bot can do ([Router.ListCapabilities]), resolves
// knowledge:// resource URIs ([Router.ResolveResource]) and dispatches tool
// calls ([Router.CallTool]) either to the built-in knowledge tools or to
// the registry's actions.
//
// # Resources
//
//	knowledge://index             every entry, ordered by id
//	knowledge://category/{name}   entries of one category
//	knowledge://entry/{id}        one entry
//	knowledge://{id}              shorthand for the above
//
// # Built-in tools
//
//	search_knowledge         {query, limit?}
//	read_knowledge_article   {article_id}
//	list_knowledge_category  {category}
//
// Any other tool name must match an action definition.
//
// # Errors
//
// Every failure leaving the router is a *[Failure] with a stable
// [FailureKind]. Errors the router does not recognise are logged and
// reported as KindInternal with a generic message.
//
// Every [Response] carries the persona's name, tone and disclaimers.
package router
