package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"transcript-assistant/shared/config"
	"transcript-assistant/shared/logging"
)

const youtubeReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

var ErrNoCredentials = errors.New("no YouTube Data API credentials configured")

// ClientOptions picks the Data API credentials: an API key when set,
// otherwise an OAuth token previously stored by Authorize. Refreshed OAuth
// tokens are written back to cfg.TokenFile.
func ClientOptions(ctx context.Context, cfg config.YouTubeConfig) ([]option.ClientOption, error) {
	if cfg.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil
	}
	if !cfg.HasOAuth() {
		return nil, ErrNoCredentials
	}

	store := tokenFile(cfg.TokenFile)
	token, err := store.load()
	if err != nil {
		return nil, fmt.Errorf("load OAuth token from %s (run the auth command first): %w", cfg.TokenFile, err)
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, fmt.Errorf("OAuth token in %s is expired and cannot be refreshed", cfg.TokenFile)
	}

	source := &persistingTokenSource{
		base:   oauthConfigFor(cfg).TokenSource(ctx, token),
		store:  store,
		last:   token.AccessToken,
		logger: logging.WithComponent("metadata.auth"),
	}
	return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, source))}, nil
}

// Authorize runs the OAuth device flow and stores the resulting token in
// cfg.TokenFile. Instructions for the user are written to out.
func Authorize(ctx context.Context, cfg config.YouTubeConfig, out io.Writer) error {
	if !cfg.HasOAuth() {
		return fmt.Errorf("OAuth client credentials are required (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	oauthConfig := oauthConfigFor(cfg)

	resp, err := oauthConfig.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("device authorization rejected (%s): %s", retrieveErr.Response.Status, strings.TrimSpace(string(retrieveErr.Body)))
		}
		return fmt.Errorf("unable to start device authorization: %w", err)
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(out, "\n%s\nYOUTUBE DEVICE AUTHORIZATION REQUIRED\n%s\n", rule, rule)
	fmt.Fprintf(out, "1. Visit %s in your browser.\n", resp.VerificationURI)
	fmt.Fprintf(out, "2. Enter this code when prompted: %s\n\n", resp.UserCode)
	fmt.Fprintf(out, "Waiting for authorization to complete... (Ctrl+C to cancel)\n")

	token, err := oauthConfig.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return fmt.Errorf("device authorization did not complete: %w", err)
	}
	if err := tokenFile(cfg.TokenFile).save(token); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAuthorization successful. Token saved to %s\n%s\n", cfg.TokenFile, rule)
	return nil
}

func oauthConfigFor(cfg config.YouTubeConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{youtubeReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// persistingTokenSource hands out tokens from base and stores each new
// access token so a restart does not need a fresh authorization.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  tokenFile
	mu     sync.Mutex
	last   string
	logger zerolog.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken
	if err := s.store.save(token); err != nil {
		s.logger.Warn().Err(err).Str("file", string(s.store)).Msg("failed to store refreshed OAuth token")
	} else {
		s.logger.Info().Str("file", string(s.store)).Msg("OAuth token refreshed")
	}
	return token, nil
}

// tokenFile is the path of a JSON-encoded OAuth token.
type tokenFile string

func (p tokenFile) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode OAuth token: %w", err)
	}
	return &token, nil
}

// save writes the token with owner-only permissions, replacing any previous
// file in one rename.
func (p tokenFile) save(token *oauth2.Token) error {
	path := string(p)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode OAuth token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("store OAuth token: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store OAuth token: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("store OAuth token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store OAuth token: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
