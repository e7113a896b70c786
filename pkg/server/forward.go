package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/getmockd/ersatz/pkg/request"
)

// forward relays r to target and copies the upstream response. The target
// path is joined with the request path.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, req *request.ClientRequest, target *url.URL) {
	// FromHTTP consumed the body.
	r.Body = io.NopCloser(bytes.NewReader(req.Body))
	r.ContentLength = int64(len(req.Body))

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			s.log.Warn("forward failed", "request", req.String(), "target", target.String(), "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	s.log.Debug("forwarding", "request", req.String(), "target", target.String())
	proxy.ServeHTTP(w, r)
}
