package reverse_proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/habitat-network/redirector/internal/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProxy(t *testing.T, pairs []string, opts ...Option) (*ProxyServer, *bytes.Buffer) {
	t.Helper()
	var froms, tos []string
	for i := 0; i < len(pairs); i += 2 {
		froms = append(froms, pairs[i])
		tos = append(tos, pairs[i+1])
	}
	rs, err := rules.Parse(froms, tos)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	return NewProxyServer(&logger, rs, opts...), &buf
}

// echoServer simulates a server sitting behind the proxy.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Upstream", "echo")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, "%s %s host=%s test=%s body=%s",
			r.Method, r.RequestURI, r.Host, r.Header.Get("X-Test"), body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func fileTo(dir string) string {
	return "file://" + filepath.ToSlash(dir) + "/"
}

func do(t *testing.T, h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestProxy(t *testing.T) {
	backend := echoServer(t)
	fileDir := writeFiles(t, map[string]string{"file": "Hello, World!"})

	proxy, _ := newTestProxy(t, []string{
		"/backend1/", backend.URL + "/api/",
		"/fileserver/", fileTo(fileDir),
		"/gone/", "status://410",
	})

	// binding to :0 chooses any open ports for tests
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = http.Serve(listener, proxy)
	}()
	t.Cleanup(func() { _ = listener.Close() })
	base := "http://" + listener.Addr().String()

	req, err := http.NewRequest(http.MethodPost, base+"/backend1/users?page=2", strings.NewReader("payload"))
	require.NoError(t, err)
	req.Header.Set("X-Test", "kept")
	req.Host = "proxy.example"
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "echo", resp.Header.Get("X-Upstream"))
	require.Equal(t, "POST /api/users?page=2 host=proxy.example test=kept body=payload", string(body))

	resp, err = http.Get(base + "/fileserver/file")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Hello, World!", string(body))

	resp, err = http.Get(base + "/gone/whatever")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusGone, resp.StatusCode)

	resp, err = http.Get(base + "/nothing/here")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestForwardOrder(t *testing.T) {
	specific := echoServer(t)
	catchAll := echoServer(t)

	proxy, _ := newTestProxy(t, []string{
		"/a/", specific.URL + "/specific/",
		"/", catchAll.URL + "/all/",
	})

	w := do(t, proxy, httptest.NewRequest(http.MethodGet, "/a/1", nil))
	assert.Contains(t, w.Body.String(), "GET /specific/1 ")

	w = do(t, proxy, httptest.NewRequest(http.MethodGet, "/b/1", nil))
	assert.Contains(t, w.Body.String(), "GET /all/b/1 ")
}

func TestUpstreamError(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backendURL := backend.URL
	backend.Close()

	proxy, logs := newTestProxy(t, []string{"/api/", backendURL + "/"})
	w := do(t, proxy, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Contains(t, logs.String(), "[upstream error]")

	var got error
	proxy, _ = newTestProxy(t, []string{"/api/", backendURL + "/"},
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	)
	w = do(t, proxy, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Error(t, got)
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("connection reset")
}

func TestUpstreamNotRetried(t *testing.T) {
	rt := &countingTransport{}
	proxy, _ := newTestProxy(t, []string{"/", "http://upstream.invalid/"}, WithTransport(rt))

	w := do(t, proxy, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1, rt.calls)
}

func TestStatusRule(t *testing.T) {
	proxy, _ := newTestProxy(t, []string{"/", "status://404"})

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodHead} {
		w := do(t, proxy, httptest.NewRequest(method, "/anything?x=1", nil))
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Empty(t, w.Body.String(), method)
	}
}

func TestNoMatch(t *testing.T) {
	proxy, logs := newTestProxy(t, []string{"/api/", "status://200"})

	w := do(t, proxy, httptest.NewRequest(http.MethodGet, "/other/", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Contains(t, logs.String(), "[no match]")
}

func TestInvalidGeneratedURI(t *testing.T) {
	proxy, logs := newTestProxy(t, []string{"/api/", "http://h/"})

	r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	// An opaque request target reaches the rules byte for byte.
	r.URL = &url.URL{Opaque: "/api/%zz"}

	w := do(t, proxy, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Contains(t, logs.String(), "[internal error]")
}

func TestRequestID(t *testing.T) {
	proxy, logs := newTestProxy(t, []string{"/", "status://204"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	do(t, proxy, r)
	assert.Contains(t, logs.String(), `"request_id":"abc-123"`)

	logs.Reset()
	do(t, proxy, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Regexp(t, `"request_id":"[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}"`, logs.String())
}
