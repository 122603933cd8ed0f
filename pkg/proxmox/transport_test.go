package proxmox

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// handlerTransport routes client requests to an in-process handler and
// records every request and body, so wire assertions need no real listener.
type handlerTransport struct {
	handler  http.Handler
	requests []*http.Request
	bodies   [][]byte
}

func (t *handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, body)

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// requestsTo returns the recorded requests whose path contains the fragment.
func (t *handlerTransport) requestsTo(fragment string) []*http.Request {
	var matched []*http.Request
	for _, req := range t.requests {
		if strings.Contains(req.URL.Path, fragment) {
			matched = append(matched, req)
		}
	}
	return matched
}

// lastBody decodes the most recent request body into a generic map.
func (t *handlerTransport) lastBody(tb testing.TB) map[string]any {
	tb.Helper()
	require.NotEmpty(tb, t.bodies)
	var decoded map[string]any
	require.NoError(tb, json.Unmarshal(t.bodies[len(t.bodies)-1], &decoded))
	return decoded
}

func writeData(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

// newTestMux returns a mux that already answers the connection probe.
func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api2/json/version", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]string{"version": "8.2.4", "release": "8.2"})
	})
	return mux
}

func connectTest(t *testing.T, handler http.Handler) (*Session, *handlerTransport) {
	t.Helper()
	rt := &handlerTransport{handler: handler}
	s, err := Connect("pve.test", "root@pam!ci", "supersecret",
		WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	return s, rt
}
