package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/stravamark/stravamark/internal/models"
)

const callbackPath = "/callback"

// successPage is served to the browser so it does not hang on the redirect.
const successPage = `<html>
<head><title>Strava Authorization</title></head>
<body style="font-family: system-ui; text-align: center; padding: 50px;">
    <h1>Authorization Successful!</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`

const failurePage = `<html>
<head><title>Authorization Failed</title></head>
<body style="font-family: system-ui; text-align: center; padding: 50px;">
    <h1>Authorization Failed</h1>
    <p>%s</p>
</body>
</html>
`

// callbackServer is a short-lived loopback listener that captures exactly one
// OAuth redirect. The captured outcome is handed to the waiting caller
// through a single-use buffered channel; subsequent requests are ignored.
type callbackServer struct {
	ln      net.Listener
	srv     *http.Server
	results chan models.AuthorizationResult
	once    sync.Once
}

// newCallbackServer binds the loopback listener on the given port and starts
// serving. Port 0 picks an ephemeral port (used by tests).
func newCallbackServer(port int) (*callbackServer, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind callback listener: %w", err)
	}

	c := &callbackServer{
		ln:      ln,
		results: make(chan models.AuthorizationResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, c.handleCallback)
	c.srv = &http.Server{Handler: mux}

	go c.srv.Serve(ln)

	return c, nil
}

// Port returns the bound port.
func (c *callbackServer) Port() int {
	return c.ln.Addr().(*net.TCPAddr).Port
}

// RedirectURI returns the redirect target the provider must be given.
func (c *callbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", c.Port(), callbackPath)
}

func (c *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("code") != "":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, successPage)
		c.deliver(models.AuthorizationResult{
			Code:  q.Get("code"),
			State: q.Get("state"),
		})

	case q.Get("error") != "":
		desc := q.Get("error_description")
		if desc == "" {
			desc = "Unknown error"
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, desc)
		c.deliver(models.AuthorizationResult{
			Err:   desc,
			State: q.Get("state"),
		})

	default:
		http.NotFound(w, r)
	}
}

// deliver hands the result to the waiter exactly once.
func (c *callbackServer) deliver(result models.AuthorizationResult) {
	c.once.Do(func() {
		c.results <- result
	})
}

// Wait blocks until a redirect is captured or the timeout elapses. The
// second return value is false on timeout.
func (c *callbackServer) Wait(timeout time.Duration) (models.AuthorizationResult, bool) {
	select {
	case result := <-c.results:
		return result, true
	case <-time.After(timeout):
		return models.AuthorizationResult{}, false
	}
}

// Close tears the listener down unconditionally.
func (c *callbackServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.srv.Shutdown(ctx)
}
