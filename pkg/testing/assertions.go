package testing

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"
	stdtesting "testing"
	"time"

	"github.com/getmockd/ersatz/pkg/requestlog"
)

// RecordedRequest is a served HTTP request, kept for assertions.
type RecordedRequest struct {
	ID        string
	Timestamp time.Time
	Method    string
	Path      string
	Query     url.Values
	Headers   http.Header
	// Body is truncated to requestlog.MaxBodyLength.
	Body string
	// MatchedID is the ID of the matching expectation, empty when unmatched.
	MatchedID string
	Status    int
}

func newRecordedRequest(e *requestlog.Entry) *RecordedRequest {
	query, _ := url.ParseQuery(e.QueryString)
	return &RecordedRequest{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Method:    e.Method,
		Path:      e.Path,
		Query:     query,
		Headers:   http.Header(e.Headers),
		Body:      e.Body,
		MatchedID: e.MatchedID,
		Status:    e.ResponseStatus,
	}
}

// Matched reports whether an expectation accepted the request.
func (r *RecordedRequest) Matched() bool {
	return r.MatchedID != ""
}

// AssertJSONBody asserts the body is JSON equal to expected, which may be a
// JSON string, bytes or any value that marshals to JSON.
func (r *RecordedRequest) AssertJSONBody(t stdtesting.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("marshaling expected value: %v", err)
			return
		}
		raw = data
	}

	var want, got any
	if err := json.Unmarshal(raw, &want); err != nil {
		t.Errorf("expected value is not valid JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}
	if !reflect.DeepEqual(got, want) {
		wantText, _ := json.MarshalIndent(want, "", "  ")
		gotText, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s", wantText, gotText)
	}
}

// AssertBody asserts the body equals expected.
func (r *RecordedRequest) AssertBody(t stdtesting.TB, expected string) {
	t.Helper()
	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts the body contains substr.
func (r *RecordedRequest) AssertBodyContains(t stdtesting.TB, substr string) {
	t.Helper()
	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts some value of the named header equals expected.
func (r *RecordedRequest) AssertHeader(t stdtesting.TB, name, expected string) {
	t.Helper()
	values := r.Headers.Values(name)
	if len(values) == 0 {
		t.Errorf("request does not have header %q", name)
		return
	}
	if !slices.Contains(values, expected) {
		t.Errorf("header %q has no value %q\nvalues: %q", name, expected, values)
	}
}

// AssertHeaderExists asserts the named header is present.
func (r *RecordedRequest) AssertHeaderExists(t stdtesting.TB, name string) {
	t.Helper()
	if len(r.Headers.Values(name)) == 0 {
		t.Errorf("request does not have header %q", name)
	}
}

// AssertQueryParam asserts some value of the named query parameter equals
// expected.
func (r *RecordedRequest) AssertQueryParam(t stdtesting.TB, name, expected string) {
	t.Helper()
	values, ok := r.Query[name]
	if !ok {
		t.Errorf("request does not have query parameter %q", name)
		return
	}
	if !slices.Contains(values, expected) {
		t.Errorf("query parameter %q has no value %q\nvalues: %q", name, expected, values)
	}
}

// AssertStatus asserts the response status code.
func (r *RecordedRequest) AssertStatus(t stdtesting.TB, expected int) {
	t.Helper()
	if r.Status != expected {
		t.Errorf("response status mismatch\nexpected: %d\nactual: %d", expected, r.Status)
	}
}
