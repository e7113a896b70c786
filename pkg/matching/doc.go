// Package matching provides composable matchers for values and requests.
//
// A Matcher[T] tests one value and describes itself for reports. Value
// matchers (Equal, StartsWith, HasItem, AtLeast, JSONPath, ...) are combined
// into request predicates, which are simply Matcher[*request.ClientRequest]:
//
//	matching.AllOf(
//	    matching.Method(request.MethodPost),
//	    matching.Path("/users"),
//	    matching.Header("Accept", matching.HasItem(matching.StartsWith("application/"))),
//	    matching.QueryExists("dry-run"),
//	)
//
// Predicates never perform I/O; body predicates decode through a
// codec.DecoderChain and treat any decoding failure as a non-match.
package matching
