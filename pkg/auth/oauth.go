package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// ClientSecretsFile is the Google API credentials.json, read from the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the Google OAuth token next to the credentials.
	TokenFile = "token.json"

	// LocalhostAuthPort is the port the loopback server listens on for the OAuth redirect.
	LocalhostAuthPort = "6789"
)

// ErrNoToken is returned when no task API token has been stored.
var ErrNoToken = errors.New("auth: no API token stored, run `nextup token <token>`")

// TokenStore yields the stored task API token.
type TokenStore interface {
	Token() (string, error)
}

// TaskClient returns an HTTP client that sends the stored task API token as a bearer token.
func TaskClient(ctx context.Context, store TokenStore) (*http.Client, error) {
	tok, err := store.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read API token: %w", err)
	}
	if tok == "" {
		return nil, ErrNoToken
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, src), nil
}

// GetConfig creates an oauth2.Config from the client secrets file in dir.
func GetConfig(dir string, scopes []string) (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = loopbackRedirect(config.RedirectURL)
	return config, nil
}

// loopbackRedirect pins localhost and out-of-band redirects to LocalhostAuthPort.
func loopbackRedirect(redirect string) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		log.Printf("Warning: Could not parse RedirectURL '%s': %v. Using it as is.", redirect, err)
		return redirect
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		log.Printf("Warning: RedirectURL in credentials.json is not a localhost callback: %s", redirect)
		return redirect
	}
	if u.Port() != LocalhostAuthPort {
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	}
	return u.String()
}

// GoogleClient returns an authenticated client for the given scopes. Without a cached
// token it runs the browser authorization flow when interactive is true.
func GoogleClient(ctx context.Context, dir string, scopes []string, interactive bool) (*http.Client, error) {
	config, err := GetConfig(dir, scopes)
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(dir, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if !interactive {
			return nil, fmt.Errorf("no Google token at %s: %w", tokenFile, err)
		}
		log.Printf("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	src := &savingSource{
		base: config.TokenSource(ctx, tok),
		last: tok,
		path: tokenFile,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingSource writes refreshed tokens back to the token file.
type savingSource struct {
	base oauth2.TokenSource
	last *oauth2.Token
	path string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			log.Printf("Warning: Could not save refreshed token: %v", err)
		}
		s.last = tok
	}
	return tok, nil
}

// getTokenFromWeb runs the authorization code flow through a loopback server.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize nextup:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken saves an oauth2.Token to a JSON file.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// GetCalendarService creates an authenticated Google Calendar service.
func GetCalendarService(ctx context.Context, dir string, interactive bool) (*calendar.Service, error) {
	scopes := []string{
		calendar.CalendarEventsScope,
		calendar.CalendarReadonlyScope,
	}

	client, err := GoogleClient(ctx, dir, scopes, interactive)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}
