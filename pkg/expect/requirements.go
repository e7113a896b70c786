package expect

import (
	"fmt"
	"sync"

	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/request"
)

// Requirement holds predicates every request to a method and path must
// satisfy, whichever expectation it would match.
type Requirement struct {
	method   request.Method
	path     matching.Matcher[string]
	matchers []matching.Predicate
}

// Matcher adds predicates.
func (r *Requirement) Matcher(preds ...matching.Predicate) *Requirement {
	r.matchers = append(r.matchers, preds...)
	return r
}

// Header requires the named header to carry value.
func (r *Requirement) Header(name, value string) *Requirement {
	return r.Matcher(matching.HeaderValue(name, value))
}

// Query requires the named query parameter to carry value.
func (r *Requirement) Query(name, value string) *Requirement {
	return r.Matcher(matching.QueryValue(name, value))
}

// Secure requires HTTPS when secure is true and plain HTTP otherwise.
func (r *Requirement) Secure(secure bool) *Requirement {
	return r.Matcher(matching.Secure(secure))
}

// BasicAuth requires HTTP Basic credentials.
func (r *Requirement) BasicAuth(user, password string) *Requirement {
	return r.Matcher(matching.BasicAuth(user, password))
}

func (r *Requirement) applies(req *request.ClientRequest) bool {
	return r.method.Accepts(req.Method) && r.path.Match(req.Path)
}

func (r *Requirement) String() string {
	return fmt.Sprintf("requirement %s %s", r.method, r.path)
}

// Requirements is an ordered set of Requirement rules.
type Requirements struct {
	mu    sync.RWMutex
	rules []*Requirement
}

// NewRequirements returns an empty set.
func NewRequirements() *Requirements {
	return &Requirements{}
}

// That adds a rule for requests whose method and path match.
func (rs *Requirements) That(method request.Method, path matching.Matcher[string]) *Requirement {
	r := &Requirement{method: method, path: path}
	rs.mu.Lock()
	rs.rules = append(rs.rules, r)
	rs.mu.Unlock()
	return r
}

// Path adds a rule for an exact path, or every path when path is "*".
func (rs *Requirements) Path(method request.Method, path string) *Requirement {
	return rs.That(method, pathMatcher(path))
}

// Check reports whether req satisfies every applicable rule.
func (rs *Requirements) Check(req *request.ClientRequest) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	for _, r := range rs.rules {
		if !r.applies(req) {
			continue
		}
		for _, m := range r.matchers {
			if !m.Match(req) {
				return false
			}
		}
	}
	return true
}

// Evaluate reports, for each applicable rule, how its predicates fared.
func (rs *Requirements) Evaluate(req *request.ClientRequest) []CandidateResult {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var out []CandidateResult
	for i, r := range rs.rules {
		if !r.applies(req) {
			continue
		}
		res := CandidateResult{Index: i, Description: r.String()}
		for _, m := range r.matchers {
			res.Matchers = append(res.Matchers, MatcherResult{Description: m.String(), Matched: m.Match(req)})
		}
		out = append(out, res)
	}
	return out
}

// Len returns the number of rules.
func (rs *Requirements) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rules)
}

// Clear removes every rule.
func (rs *Requirements) Clear() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rules = nil
}

func pathMatcher(path string) matching.Matcher[string] {
	if path == "*" {
		return matching.Anything[string]()
	}
	return matching.Equal(path)
}
