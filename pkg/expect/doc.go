// Package expect is the expectation engine of ersatz.
//
// An Expectations registry holds HTTP expectations in registration order
// and WebSocket expectations by path. For each inbound request the first
// expectation whose method, path and predicates all match wins; it hands
// out its response variants in order, repeating the last one once they run
// out, and counts the match against its call-count contract.
//
//	exps := expect.New()
//	exps.GET("/users/1").
//	    Header("Accept", "application/json").
//	    Called(matching.Once()).
//	    Responds().Code(200).BodyAs(user, "application/json")
//
//	// exercise the system under test, then
//	if err := exps.Verify(time.Second); err != nil {
//	    t.Fatal(err)
//	}
//
// Rendering a response never touches the network; a transport writes the
// Rendered result.
package expect
