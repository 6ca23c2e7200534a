package gmailhttp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

type callbackResult struct {
	code string
	err  error
}

// callbackHandler receives the authorization server's redirect and
// passes the code, or the reason there is none, to results.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			res.err = errors.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("authorization response carried no code")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "mailpdf is authorized. You may close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// authorize runs the installed-app flow: it serves the redirect on a
// loopback port, hands the consent URL to prompt and exchanges the
// returned code for a token.
func authorize(ctx context.Context, conf oauth2.Config, prompt func(url string), log *zap.Logger) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "listening for the authorization redirect")
	}
	conf.RedirectURL = "http://" + ln.Addr().String() + "/"

	state, err := newState()
	if err != nil {
		ln.Close()
		return nil, errors.Wrap(err, "generating authorization state")
	}
	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackHandler(state, results)}

	var res callbackResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer srv.Shutdown(context.Background())
		select {
		case res = <-results:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	log.Info("waiting for authorization", zap.String("redirect", conf.RedirectURL))
	prompt(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "waiting for authorization")
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return nil, errors.Wrap(err, "exchanging authorization code")
	}
	return tok, nil
}
