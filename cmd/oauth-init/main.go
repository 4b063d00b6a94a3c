// Command oauth-init runs the one-time OAuth consent flow for the Google
// Sheets export and stores the resulting token in sheets.tokenfile.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"budget/internal/cli"
	"budget/internal/log"
	gsheet "budget/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.Log, log.ComponentCLI)

	if cfg.Sheets.TokenFile == "" {
		cfg.Sheets.TokenFile = "token.json"
	}

	oauthCfg, err := gsheet.OAuthConfig(gsheet.Config{
		CredentialsFile: cfg.Sheets.CredentialsFile,
		CredentialsJSON: cfg.Sheets.CredentialsJSON,
	})
	if err != nil {
		logger.Error("Failed to load OAuth client", log.FieldError, err)
		os.Exit(1)
	}

	// The OAuth client must list this URI among its authorized redirect URIs.
	port := os.Getenv("OAUTH_REDIRECT_PORT")
	if port == "" {
		port = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + port + "/callback"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok, err := authorize(ctx, oauthCfg, port, logger)
	if err != nil {
		logger.Error("Authorization failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := gsheet.SaveToken(cfg.Sheets.TokenFile, tok); err != nil {
		logger.Error("Failed to save token", log.FieldError, err, "path", cfg.Sheets.TokenFile)
		os.Exit(1)
	}
	logger.Info("Saved OAuth token", "path", cfg.Sheets.TokenFile, "expiry", tok.Expiry)
}

// authorize prints the consent URL and waits for the browser redirect.
func authorize(ctx context.Context, oauthCfg *oauth2.Config, port string, logger *log.Logger) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			errCh <- fmt.Errorf("consent denied: %s", q.Get("error"))
		case q.Get("state") != state:
			http.Error(w, "State mismatch", http.StatusBadRequest)
			errCh <- errors.New("state mismatch in OAuth callback")
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			codeCh <- q.Get("code")
		}
	})

	srv := &http.Server{
		Addr:              "localhost:" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
	logger.Info("Waiting for OAuth callback", "redirect_url", oauthCfg.RedirectURL)

	select {
	case code := <-codeCh:
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out")
	case <-ctx.Done():
		return nil, errors.New("interrupted")
	}
}
