package matching

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/ersatz/pkg/request"
)

// ExprEnv is the environment request expressions evaluate against.
type ExprEnv struct {
	Method      string              `expr:"method"`
	Path        string              `expr:"path"`
	Scheme      string              `expr:"scheme"`
	Protocol    string              `expr:"protocol"`
	ContentType string              `expr:"contentType"`
	Body        string              `expr:"body"`
	Headers     map[string][]string `expr:"headers"`
	Query       map[string][]string `expr:"query"`
	Params      map[string][]string `expr:"params"`
	Cookies     map[string]string   `expr:"cookies"`
}

// Header returns the first value of the named header, ignoring case.
func (e ExprEnv) Header(name string) string {
	r := request.ClientRequest{Headers: e.Headers}
	return r.Header(name)
}

// QueryParam returns the first value of the named query parameter.
func (e ExprEnv) QueryParam(name string) string {
	if v := e.Query[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func newExprEnv(r *request.ClientRequest) ExprEnv {
	cookies := make(map[string]string, len(r.Cookies))
	for name, c := range r.Cookies {
		cookies[name] = c.Value
	}
	return ExprEnv{
		Method:      string(r.Method),
		Path:        r.Path,
		Scheme:      r.Scheme,
		Protocol:    r.Protocol,
		ContentType: r.ContentType,
		Body:        string(r.Body),
		Headers:     r.Headers,
		Query:       r.Query,
		Params:      r.BodyParams,
		Cookies:     cookies,
	}
}

// Expr compiles a boolean expr-lang expression over ExprEnv, for example
//
//	method == "POST" && Header("X-Tenant") == "acme" && body contains "id"
//
// Evaluation errors are non-matches.
func Expr(expression string) (Predicate, error) {
	program, err := expr.Compile(expression, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", expression, err)
	}
	return exprPredicate(expression, program), nil
}

func exprPredicate(expression string, program *vm.Program) Predicate {
	return Request(fmt.Sprintf("expression %q", expression), func(r *request.ClientRequest) bool {
		out, err := expr.Run(program, newExprEnv(r))
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	})
}
