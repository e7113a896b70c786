// Package websocket implements WebSocket expectations.
//
// An Expectation for a path records whether a client connected, the
// messages it is expected to receive with their occurrence contracts, and
// the reactions to send back for each. It is a plain state machine;
// Handler binds it to real connections using github.com/coder/websocket.
//
//	exp := websocket.NewExpectation("/chat")
//	exp.SendsText("welcome")
//	exp.ReceivesText("ping").ReactsText("pong")
//
//	mux.Handle("/chat", websocket.NewHandler(exp))
package websocket
