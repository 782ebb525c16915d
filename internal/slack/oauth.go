package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var (
	// ErrMissingAccessToken means Slack answered but gave no access token.
	ErrMissingAccessToken = errors.New("slack oauth response has no access token")
	// ErrExchangeFailed means the token endpoint could not be reached or
	// answered with a non-2xx status or an unreadable body.
	ErrExchangeFailed = errors.New("slack oauth exchange failed")
)

// OAuthConfig holds the app credentials used for the code exchange.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Exchanger trades OAuth authorization codes for access tokens via
// oauth.v2.access. It holds no per-request state and is safe for
// concurrent use.
type Exchanger struct {
	client *http.Client
	cfg    OAuthConfig
	logger *zap.Logger
}

func NewExchanger(client *http.Client, cfg OAuthConfig, logger *zap.Logger) *Exchanger {
	if client == nil {
		client = http.DefaultClient
	}
	return &Exchanger{client: client, cfg: cfg, logger: logger}
}

// Exchange makes a single oauth.v2.access call and returns the access token.
func (e *Exchanger) Exchange(ctx context.Context, code string) (string, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, e.client, e.cfg.ClientID, e.cfg.ClientSecret, code, e.cfg.RedirectURL)
	if err != nil {
		var slackErr slack.SlackErrorResponse
		if errors.As(err, &slackErr) {
			return "", fmt.Errorf("%w: slack error %q", ErrMissingAccessToken, slackErr.Err)
		}
		return "", fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	if resp == nil || resp.AccessToken == "" {
		return "", ErrMissingAccessToken
	}

	e.logger.Debug("OAuth exchange completed",
		zap.String("team_id", resp.Team.ID),
		zap.String("team_name", resp.Team.Name),
		zap.String("bot_user_id", resp.BotUserID),
		zap.String("scope", resp.Scope))
	return resp.AccessToken, nil
}
