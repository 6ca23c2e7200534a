/*
Package gmailhttp implements an HTTP client for gmail.

The client authenticates as a single user with OAuth 2.0.  Client
secrets come from a file downloaded from the Google Cloud console
("installed application" credentials).  The user's token is kept in a
TokenStore; when there is none the installed-app flow is run once,
with the authorization server redirecting to a short lived loopback
HTTP server.

Refreshed tokens are written back to the store, so the refresh token
survives across runs.
*/
package gmailhttp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Options configures New.
type Options struct {
	// Path of the OAuth client secrets JSON file.
	CredentialsFile string

	// Where the user's token is kept.
	Store TokenStore

	// OAuth scopes to request on first authorization.
	Scopes []string

	// Prompt shows the user the consent URL.  Defaults to printing
	// it on stderr.
	Prompt func(url string)

	Log *zap.Logger
}

// savingTokenSource saves each new token its source hands out.
type savingTokenSource struct {
	src   oauth2.TokenSource
	store TokenStore
	log   *zap.Logger

	mu   sync.Mutex
	last string
}

// Token satisfies oauth2.TokenSource.
func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			// The token still works for this run.
			s.log.Warn("unable to save refreshed token", zap.Error(err))
		} else {
			s.log.Debug("saved token", zap.Time("expiry", tok.Expiry))
		}
	}
	return tok, nil
}

func printPrompt(url string) {
	fmt.Fprintf(os.Stderr, "Visit this URL to authorize mailpdf:\n\n%s\n\n", url)
}

// New returns a new HTTP client capable of using the GMail API.
//
// A token that can no longer be refreshed is reported as an
// *oauth2.RetrieveError; the stored token must then be removed to
// authorize again.
func New(ctx context.Context, opts Options) (*http.Client, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = printPrompt
	}

	b, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading client secrets %q", opts.CredentialsFile)
	}
	conf, err := google.ConfigFromJSON(b, opts.Scopes...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing client secrets %q", opts.CredentialsFile)
	}

	tok, err := opts.Store.Load()
	var last string
	switch {
	case err == ErrNoToken:
		log.Info("no stored token; authorizing")
		tok, err = authorize(ctx, *conf, prompt, log)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		last = tok.AccessToken
	}

	src := &savingTokenSource{
		src:   conf.TokenSource(ctx, tok),
		store: opts.Store,
		log:   log,
		last:  last,
	}
	// Refresh now, if needed, so a revoked token fails before any
	// mail is touched.
	tok, err = src.Token()
	if err != nil {
		return nil, errors.Wrap(err, "obtaining a valid token")
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}
