package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/request"
	"github.com/getmockd/ersatz/pkg/websocket"
)

const usersYAML = `
version: "1"
name: users
requirements:
  - method: ANY
    path: "*"
    headers:
      X-Api-Key: [secret]
expectations:
  - name: get-user
    request:
      method: GET
      path: /users/1
      query:
        verbose: []
    calls: {exactly: 1}
    responses:
      - status: 200
        contentType: application/json
        body: {id: 1, name: joe}
      - status: 404
  - name: create-user
    request:
      method: POST
      pathPrefix: /users
      body:
        contentType: application/json
        jsonPath:
          $.name: joe
          $.age: 42
    responses:
      - status: 201
        delay: 5ms
        headers:
          Location: [/users/2]
websockets:
  - path: /chat
    sends: [{text: welcome}]
    receives:
      - text: ping
        reacts: [{text: pong}]
        calls: {atLeast: 1}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clientRequest(t *testing.T, r *http.Request) *request.ClientRequest {
	t.Helper()
	req, err := request.FromHTTP(r, 0)
	require.NoError(t, err)
	return req
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.yaml", usersYAML)

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "users", c.Name)
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, []string{path}, c.Sources)
	assert.Equal(t, 5*time.Millisecond, c.Expectations[1].Responses[0].Delay.Std())
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "health.json", `{
		"version": "1",
		"expectations": [{
			"request": {"method": "GET", "path": "/health"},
			"responses": [{"status": 200, "body": "ok", "delay": 15, "chunked": {"chunks": 2, "delay": "1ms"}}]
		}]
	}`)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Expectations, 1)
	resp := c.Expectations[0].Responses[0]
	assert.Equal(t, 15*time.Millisecond, resp.Delay.Std())
	assert.Equal(t, time.Millisecond, resp.Chunked.Delay.Std())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "missing", file: "missing.yaml", wantErr: ErrFileNotFound},
		{name: "empty", file: "empty.yaml", content: "  \n", wantErr: ErrEmptyFile},
		{name: "bad json", file: "bad.json", content: "{ nope }", wantErr: ErrInvalidJSON},
		{name: "bad yaml", file: "bad.yaml", content: "expectations: [", wantErr: ErrInvalidYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if tt.content != "" {
				writeFile(t, dir, tt.file, tt.content)
			}
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		fields []string
	}{
		{
			name:   "valid",
			yaml:   usersYAML,
			fields: nil,
		},
		{
			name:   "version",
			yaml:   `version: "2"`,
			fields: []string{"version"},
		},
		{
			name: "path choice",
			yaml: `
expectations:
  - request: {method: GET}
  - request: {path: /a, pathPrefix: /b}`,
			fields: []string{"expectations[0].request", "expectations[1].request"},
		},
		{
			name: "bad method regex and expression",
			yaml: `
expectations:
  - request: {method: FETCH, pathRegex: "(", when: "method =="}`,
			fields: []string{"expectations[0].request.method", "expectations[0].request.pathRegex", "expectations[0].request.when"},
		},
		{
			name: "responses",
			yaml: `
expectations:
  - request: {path: /a}
    responses:
      - status: 42
      - forward: "not-a-url"
      - body: x
        bodyFile: y`,
			fields: []string{"expectations[0].responses[0].status", "expectations[0].responses[1].forward", "expectations[0].responses[2]"},
		},
		{
			name: "calls",
			yaml: `
expectations:
  - request: {path: /a}
    calls: {exactly: 1, atLeast: 2}
  - request: {path: /b}
    calls: {atLeast: 3, atMost: 1}`,
			fields: []string{"expectations[0].calls", "expectations[1].calls"},
		},
		{
			name: "websockets",
			yaml: `
websockets:
  - path: chat
  - path: /a
    sends: [{}]
    receives:
      - text: x
        binary: eA==
  - path: /a`,
			fields: []string{"websockets[0].path", "websockets[1].sends[0]", "websockets[1].receives[0]", "websockets[2].path"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml), FormatYAML)
			require.NoError(t, err)

			err = c.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), "validation error on "+field+":")
			}
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestLoad_GlobMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/one.yaml", "expectations:\n  - request: {path: /one}\n")
	writeFile(t, dir, "a/b/two.json", `{"expectations": [{"request": {"path": "/two"}}]}`)
	writeFile(t, dir, "a/notes.txt", "ignored")

	c, err := LoadGlob(filepath.Join(dir, "**", "*.{yaml,json}"))
	require.NoError(t, err)
	require.Len(t, c.Expectations, 2)
	assert.Len(t, c.Sources, 2)

	_, err = LoadGlob(filepath.Join(dir, "**", "*.toml"))
	assert.ErrorIs(t, err, ErrNoFiles)

	c, err = Load(filepath.Join(dir, "a", "one.yaml"), filepath.Join(dir, "a", "b", "two.json"))
	require.NoError(t, err)
	assert.Equal(t, "/one", c.Expectations[0].Request.Path)
	assert.Equal(t, "/two", c.Expectations[1].Request.Path)
}

func TestApply(t *testing.T) {
	c, err := Parse([]byte(usersYAML), FormatYAML)
	require.NoError(t, err)

	e := expect.New()
	require.NoError(t, Apply(c, e))
	require.Len(t, e.Requests(), 2)
	assert.Equal(t, 1, e.Requirements().Len())

	get := httptest.NewRequest(http.MethodGet, "/users/1?verbose", nil)
	get.Header.Set("X-Api-Key", "secret")
	req := clientRequest(t, get)
	assert.True(t, e.Requirements().Check(req))
	exp, ok := e.FindMatch(req)
	require.True(t, ok)

	out, err := exp.Claim().Render()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.JSONEq(t, `{"id":1,"name":"joe"}`, string(out.Body))
	out, err = exp.Claim().Render()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, out.Status)

	post := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"joe","age":42}`))
	post.Header.Set("Content-Type", "application/json")
	exp, ok = e.FindMatch(clientRequest(t, post))
	require.True(t, ok)
	out, err = exp.Claim().Render()
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, out.Status)
	assert.Equal(t, "/users/2", out.Headers.Get("Location"))
	assert.Equal(t, 5*time.Millisecond, out.Delay)

	ws, ok := e.FindWebSocket("/chat")
	require.True(t, ok)
	assert.Equal(t, []websocket.Message{websocket.Text("welcome")}, ws.Connect())
	reactions, ok := ws.FindMatch(websocket.Text("ping"))
	require.True(t, ok)
	assert.Equal(t, []websocket.Message{websocket.Text("pong")}, reactions)
}

func TestApply_InvalidEntriesAreLeftOut(t *testing.T) {
	c := &Collection{
		Version: Version,
		Requirements: []RequirementConfig{
			{Method: "ANY", Path: "*", When: "broken ("},
		},
		Expectations: []ExpectationConfig{
			{Name: "broken", Request: RequestConfig{Method: "GET", Path: "*", When: "this is (not valid"}},
			{Name: "bad-schema", Request: RequestConfig{Method: "GET", Path: "*", Body: &BodyConfig{
				ContentType: "application/json", JSONSchema: "{not json",
			}}},
			{Name: "ok", Request: RequestConfig{Method: "GET", Path: "/ok"}},
		},
	}

	e := expect.New()
	err := Apply(c, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expectations[0] broken")
	assert.Contains(t, err.Error(), "expectations[1] bad-schema")
	assert.Contains(t, err.Error(), "requirements[0]")
	assert.Equal(t, 0, e.Requirements().Len())

	require.Len(t, e.Requests(), 1)
	_, ok := e.FindMatch(clientRequest(t, httptest.NewRequest(http.MethodGet, "/anything", nil)))
	assert.False(t, ok)
	exp, ok := e.FindMatch(clientRequest(t, httptest.NewRequest(http.MethodGet, "/ok", nil)))
	require.True(t, ok)
	assert.NoError(t, exp.Err())
}

func TestApply_BodyFileAndEquals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payload.json", `{"from":"file"}`)
	path := writeFile(t, dir, "mocks.yaml", `
expectations:
  - request:
      method: PUT
      path: /items
      body:
        contentType: application/json
        equals: {qty: 2}
    responses:
      - contentType: application/json
        bodyFile: payload.json
`)
	c, err := LoadFile(path)
	require.NoError(t, err)

	e := expect.New()
	require.NoError(t, Apply(c, e))

	put := httptest.NewRequest(http.MethodPut, "/items", strings.NewReader(`{"qty": 2}`))
	put.Header.Set("Content-Type", "application/json")
	exp, ok := e.FindMatch(clientRequest(t, put))
	require.True(t, ok)

	out, err := exp.Claim().Render()
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(out.Body))
}

func TestApply_Forward(t *testing.T) {
	c, err := Parse([]byte(`
expectations:
  - request: {path: /proxy}
    responses:
      - forward: http://upstream.test:9000
`), FormatYAML)
	require.NoError(t, err)

	e := expect.New()
	require.NoError(t, Apply(c, e))
	out, err := e.Requests()[0].Claim().Render()
	require.NoError(t, err)
	require.NotNil(t, out.ForwardTo)
	assert.Equal(t, "upstream.test:9000", out.ForwardTo.Host)
}

func TestCollection_Marshal(t *testing.T) {
	c, err := Parse([]byte(usersYAML), FormatYAML)
	require.NoError(t, err)

	data, err := c.Marshal(FormatJSON)
	require.NoError(t, err)
	again, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, c.Count(), again.Count())
	assert.Equal(t, c.Expectations[1].Responses[0].Delay, again.Expectations[1].Responses[0].Delay)
}
