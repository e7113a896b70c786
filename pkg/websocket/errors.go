package websocket

import "errors"

// ErrNotConnected indicates that no client connected to the expectation path.
var ErrNotConnected = errors.New("websocket not connected")
