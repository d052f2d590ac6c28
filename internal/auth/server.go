package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

var (
	ErrStateMismatch = errors.New("state mismatch - possible CSRF attack")
	ErrNoCode        = errors.New("no code in callback")
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>velowatt</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #F97316;">Connected to Strava</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`

// Authenticate runs the OAuth flow with a local callback server.
// Instructions for the user are written to prompt.
func Authenticate(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*AuthResult, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	grants := make(chan grant, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, grants, errCh))

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	defer shutdownServer(server)

	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			report(errCh, fmt.Errorf("server error: %w", err))
		}
	}()

	fmt.Fprintf(prompt, "\nTo connect velowatt to Strava, open this URL in your browser:\n\n  %s\n\nWaiting for authorization...\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	g, err := awaitGrant(ctx, grants, errCh, AuthTimeout)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, g.code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	return &AuthResult{
		Token:     token,
		AthleteID: ExtractAthleteID(token),
		Scope:     g.scope,
	}, nil
}

// grant is what the athlete approved on the Strava consent page
type grant struct {
	code  string
	scope string
}

// callbackHandler validates the redirect from Strava and hands the
// authorization code (or the failure) to the waiting flow.
func callbackHandler(state string, grants chan<- grant, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != state {
			report(errCh, ErrStateMismatch)
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		if msg := q.Get("error"); msg != "" {
			report(errCh, fmt.Errorf("auth error: %s", msg))
			http.Error(w, "Authorization denied", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			report(errCh, ErrNoCode)
			http.Error(w, "No authorization code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)

		select {
		case grants <- grant{code: code, scope: q.Get("scope")}:
		default:
		}
	})
}

func awaitGrant(ctx context.Context, grants <-chan grant, errCh <-chan error, timeout time.Duration) (grant, error) {
	select {
	case g := <-grants:
		return g, nil
	case err := <-errCh:
		return grant{}, err
	case <-time.After(timeout):
		return grant{}, fmt.Errorf("authentication timeout after %v", timeout)
	case <-ctx.Done():
		return grant{}, ctx.Err()
	}
}

// report sends err without blocking when an earlier error is pending
func report(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
