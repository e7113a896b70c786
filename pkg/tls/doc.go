// Package tls generates the self-signed certificates used by the HTTPS
// listener and hands matching trust pools to test clients.
package tls
