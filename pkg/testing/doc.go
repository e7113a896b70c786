// Package testing runs an ersatz server for the duration of a Go test.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    srv := ersatztest.New(t)
//
//	    srv.GET("/users/123").
//	        Called(matching.Once()).
//	        Responds().
//	        BodyAs(`{"id":"123"}`, "application/json")
//
//	    resp, err := http.Get(srv.URL() + "/users/123")
//	    ...
//
//	    srv.AssertVerified()
//	    srv.Requests("GET", "/users/123")[0].AssertHeader("Accept", "application/json")
//	}
//
// The server is started by New and closed when the test ends. When the test
// fails, unmatched request reports are in the test log.
package testing
