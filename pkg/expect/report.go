package expect

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getmockd/ersatz/pkg/mimetype"
	"github.com/getmockd/ersatz/pkg/request"
)

// MatcherResult is the outcome of one predicate.
type MatcherResult struct {
	Description string
	Matched     bool
}

// CandidateResult is how one expectation or requirement fared against a
// request.
type CandidateResult struct {
	Index       int
	ID          string
	Description string
	Matchers    []MatcherResult
}

// Matched reports whether every predicate matched.
func (c CandidateResult) Matched() bool {
	for _, m := range c.Matchers {
		if !m.Matched {
			return false
		}
	}
	return true
}

// UnmatchedReport explains why no expectation matched a request.
type UnmatchedReport struct {
	Request      string
	Headers      http.Header
	ContentType  string
	Body         string
	Requirements []CandidateResult
	Expectations []CandidateResult
}

// NewUnmatchedReport evaluates req against the registry without changing
// any state.
func (e *Expectations) NewUnmatchedReport(req *request.ClientRequest) *UnmatchedReport {
	report := &UnmatchedReport{
		Request:      req.String(),
		Headers:      req.Headers,
		ContentType:  req.ContentType,
		Requirements: e.requirements.Evaluate(req),
	}
	switch {
	case len(req.Body) == 0:
	case mimetype.IsTextual(req.ContentType):
		report.Body = string(req.Body)
	default:
		report.Body = fmt.Sprintf("<%d bytes>", len(req.Body))
	}

	for i, exp := range e.Requests() {
		report.Expectations = append(report.Expectations, CandidateResult{
			Index:       i,
			ID:          exp.ID(),
			Description: exp.String(),
			Matchers:    exp.Evaluate(req),
		})
	}
	return report
}

// String renders the report as plain text, marking each predicate with
// (+) when it matched and (-) when it did not.
func (r *UnmatchedReport) String() string {
	var b strings.Builder
	b.WriteString("# Unmatched Request\n\n")
	b.WriteString(r.Request)
	b.WriteString("\n")

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(r.Headers[name], ", "))
	}
	if r.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Body)
	}

	if len(r.Requirements) > 0 {
		b.WriteString("\n# Requirements\n")
		for _, c := range r.Requirements {
			writeCandidate(&b, c)
		}
	}

	b.WriteString("\n# Expectations\n")
	if len(r.Expectations) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range r.Expectations {
		writeCandidate(&b, c)
	}
	return b.String()
}

func writeCandidate(b *strings.Builder, c CandidateResult) {
	matched := 0
	for _, m := range c.Matchers {
		if m.Matched {
			matched++
		}
	}
	fmt.Fprintf(b, "\n[%d] %s (%d of %d matched)\n", c.Index, c.Description, matched, len(c.Matchers))
	for _, m := range c.Matchers {
		sign := "-"
		if m.Matched {
			sign = "+"
		}
		fmt.Fprintf(b, "  (%s) %s\n", sign, m.Description)
	}
}
