// Package config loads expectation files and applies them to an
// expect.Expectations registry.
//
// Files are YAML (.yaml, .yml) or JSON (anything else):
//
//	version: "1"
//	requirements:
//	  - method: ANY
//	    path: "*"
//	    headers:
//	      X-Api-Key: [secret]
//	expectations:
//	  - name: get-user
//	    request:
//	      method: GET
//	      path: /users/1
//	      when: 'Header("Accept") == "application/json"'
//	    calls: {exactly: 1}
//	    responses:
//	      - status: 200
//	        contentType: application/json
//	        body: {id: 1, name: joe}
//	websockets:
//	  - path: /chat
//	    sends: [{text: welcome}]
//	    receives:
//	      - text: ping
//	        reacts: [{text: pong}]
package config
