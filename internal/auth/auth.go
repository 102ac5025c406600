package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stravamark/stravamark/internal/common"
	"github.com/stravamark/stravamark/internal/models"
)

// Sentinel errors for the authorization flow.
var (
	// ErrMissingCredentials indicates client id/secret are absent.
	ErrMissingCredentials = errors.New("missing client credentials")

	// ErrAuthorizationDenied indicates the provider returned an error on redirect.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrAuthorizationTimeout indicates no redirect arrived within the wait window.
	ErrAuthorizationTimeout = errors.New("authorization timed out")
)

// Mode selects how the authorization code is captured.
type Mode int

const (
	// ModeLocalCallback captures the code via the loopback listener.
	ModeLocalCallback Mode = iota
	// ModeManual prompts the operator to paste the redirect URL or code.
	ModeManual
)

const (
	// authorizeWait bounds the wait for the browser redirect.
	authorizeWait = 120 * time.Second

	defaultAuthURL      = "https://www.strava.com/oauth/authorize"
	defaultTokenURL     = "https://www.strava.com/oauth/token"
	defaultRedirectPort = 8080
	defaultScope        = "read,activity:read_all"
)

// Authenticator owns the token lifecycle: first-time authorization, refresh,
// expiry checks, and write-through persistence of the token state.
type Authenticator struct {
	cred  models.Credential
	store *TokenStore
	token models.TokenState

	authURL      string
	tokenURL     string
	redirectPort int
	scope        string

	httpClient *http.Client
	logger     *common.Logger

	waitTimeout time.Duration
	now         func() time.Time
	openBrowser func(url string) error
	input       io.Reader
	promptOut   io.Writer
}

// Option configures the authenticator.
type Option func(*Authenticator)

// WithAuthURL sets the provider authorization endpoint.
func WithAuthURL(u string) Option {
	return func(a *Authenticator) { a.authURL = u }
}

// WithTokenURL sets the provider token endpoint.
func WithTokenURL(u string) Option {
	return func(a *Authenticator) { a.tokenURL = u }
}

// WithRedirectPort sets the loopback listener port.
func WithRedirectPort(port int) Option {
	return func(a *Authenticator) { a.redirectPort = port }
}

// WithScope sets the requested OAuth scope.
func WithScope(scope string) Option {
	return func(a *Authenticator) { a.scope = scope }
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// WithTimeout sets the HTTP timeout for token endpoint calls.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Authenticator) { a.httpClient.Timeout = timeout }
}

// WithInput sets the reader used by the manual-paste mode.
func WithInput(r io.Reader) Option {
	return func(a *Authenticator) { a.input = r }
}

// New creates an authenticator and loads any persisted token state.
func New(cred models.Credential, store *TokenStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		cred:         cred,
		store:        store,
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		redirectPort: defaultRedirectPort,
		scope:        defaultScope,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      common.NewSilentLogger(),
		waitTimeout: authorizeWait,
		now:         time.Now,
		openBrowser: openBrowser,
		input:       os.Stdin,
		promptOut:   os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.token = store.Load()
	return a
}

// IsAuthenticated reports whether both access and refresh token are present.
func (a *Authenticator) IsAuthenticated() bool {
	return a.token.HasTokens()
}

// AccessToken returns the current access token.
func (a *Authenticator) AccessToken() string {
	return a.token.AccessToken
}

// Token returns the current token state.
func (a *Authenticator) Token() models.TokenState {
	return a.token
}

// EnsureValid guarantees a usable access token without raising: it returns
// false when not authenticated, refreshes when the token is within the
// expiry buffer, and makes no network call otherwise.
func (a *Authenticator) EnsureValid(ctx context.Context) bool {
	if !a.IsAuthenticated() {
		return false
	}
	if a.token.ExpiresSoon(a.now()) {
		return a.Refresh(ctx)
	}
	return true
}

// Refresh exchanges the refresh token for a new token pair. On any failure
// the existing state is left untouched — stale-but-present credentials are
// preferable to discarding them — and false is returned.
func (a *Authenticator) Refresh(ctx context.Context) bool {
	if a.token.RefreshToken == "" {
		return false
	}

	form := url.Values{
		"client_id":     {a.cred.ClientID},
		"client_secret": {a.cred.ClientSecret},
		"refresh_token": {a.token.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	exchange, err := a.postTokenForm(ctx, form)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Token refresh failed")
		return false
	}

	if err := a.setToken(exchange.TokenState()); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist refreshed tokens")
		return false
	}

	a.logger.Debug().Int64("expires_at", exchange.ExpiresAt).Msg("Access token refreshed")
	return true
}

// AuthorizationURL builds the browser-navigated authorization URL.
func (a *Authenticator) AuthorizationURL(redirectURI, state string) string {
	params := url.Values{
		"client_id":     {a.cred.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {a.scope},
	}
	if state != "" {
		params.Set("state", state)
	}
	return a.authURL + "?" + params.Encode()
}

// Authorize performs the one-time authorization-code flow and persists the
// resulting token state.
func (a *Authenticator) Authorize(ctx context.Context, mode Mode) (*models.TokenExchange, error) {
	if !a.cred.Valid() {
		return nil, ErrMissingCredentials
	}

	var code string
	var err error
	switch mode {
	case ModeManual:
		code, err = a.captureManual()
	default:
		code, err = a.captureLocal()
	}
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"client_id":     {a.cred.ClientID},
		"client_secret": {a.cred.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	exchange, err := a.postTokenForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	if err := a.setToken(exchange.TokenState()); err != nil {
		return nil, err
	}

	a.logger.Info().
		Int64("athlete_id", exchange.Athlete.ID).
		Str("athlete", exchange.AthleteName()).
		Msg("Authorization complete")
	return exchange, nil
}

// captureLocal runs the loopback listener for one redirect.
func (a *Authenticator) captureLocal() (string, error) {
	server, err := newCallbackServer(a.redirectPort)
	if err != nil {
		return "", err
	}
	defer server.Close()

	state := uuid.NewString()
	authURL := a.AuthorizationURL(server.RedirectURI(), state)

	fmt.Fprintf(a.promptOut, "\nOpening browser for Strava authorization...\n")
	fmt.Fprintf(a.promptOut, "If the browser doesn't open, visit: %s\n\n", authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.logger.Debug().Err(err).Msg("Could not open browser")
	}

	result, ok := server.Wait(a.waitTimeout)
	if !ok {
		return "", ErrAuthorizationTimeout
	}
	if result.Err != "" {
		return "", fmt.Errorf("%w: %s", ErrAuthorizationDenied, result.Err)
	}
	// State echo is verified when present; manual providers may omit it.
	if result.State != "" && result.State != state {
		return "", fmt.Errorf("%w: state mismatch", ErrAuthorizationDenied)
	}
	return result.Code, nil
}

// captureManual prompts the operator for the redirect URL or bare code.
// Used when the loopback listener cannot be reached (remote or headless).
func (a *Authenticator) captureManual() (string, error) {
	redirectURI := fmt.Sprintf("http://localhost:%d%s", a.redirectPort, callbackPath)
	authURL := a.AuthorizationURL(redirectURI, "")

	fmt.Fprintf(a.promptOut, "\nVisit this URL to authorize:\n%s\n\n", authURL)
	fmt.Fprintf(a.promptOut, "Paste the full redirect URL (or just the code): ")

	scanner := bufio.NewScanner(a.input)
	if !scanner.Scan() {
		return "", ErrAuthorizationTimeout
	}
	return ExtractCode(scanner.Text())
}

// ExtractCode pulls the authorization code from a pasted redirect URL or
// returns the trimmed input as a bare code.
func ExtractCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrAuthorizationDenied)
	}

	if strings.Contains(input, "://") || strings.Contains(input, "?") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("%w: unparseable redirect URL", ErrAuthorizationDenied)
		}
		q := u.Query()
		if errParam := q.Get("error"); errParam != "" {
			desc := q.Get("error_description")
			if desc == "" {
				desc = errParam
			}
			return "", fmt.Errorf("%w: %s", ErrAuthorizationDenied, desc)
		}
		if code := q.Get("code"); code != "" {
			return code, nil
		}
		return "", fmt.Errorf("%w: no code in redirect URL", ErrAuthorizationDenied)
	}

	return input, nil
}

// postTokenForm posts to the token endpoint and decodes the response.
// Any transport failure, non-2xx status, or malformed body is an error.
func (a *Authenticator) postTokenForm(ctx context.Context, form url.Values) (*models.TokenExchange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var exchange models.TokenExchange
	if err := json.NewDecoder(resp.Body).Decode(&exchange); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &exchange, nil
}

// setToken atomically replaces the entire token state and persists it.
func (a *Authenticator) setToken(state models.TokenState) error {
	if err := a.store.Save(state); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	a.token = state
	return nil
}

// openBrowser opens the default browser on the host platform.
func openBrowser(targetURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", targetURL).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", targetURL).Start()
	default:
		return exec.Command("xdg-open", targetURL).Start()
	}
}
