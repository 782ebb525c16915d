// Package assistant runs the front-desk batch: today's check-ins, the
// composed prompts, and one chat completion.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"whereabouts/internal/checkin"
	"whereabouts/internal/prompt"
)

// DigestBuilder builds the check-in digest for a channel.
type DigestBuilder interface {
	Build(ctx context.Context, channelID string) (checkin.Digest, error)
}

// Completer answers a system/user prompt pair.
type Completer interface {
	Invoke(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome of a successful run.
type Result struct {
	Reply           string
	Prompts         prompt.Prompts
	DigestAvailable bool
	CheckinCount    int
}

type Assistant struct {
	digests   DigestBuilder
	completer Completer
	channelID string
	prompts   prompt.Config
	now       func() time.Time
	logger    *zap.Logger
}

func New(digests DigestBuilder, completer Completer, channelID string, prompts prompt.Config, logger *zap.Logger) *Assistant {
	return &Assistant{
		digests:   digests,
		completer: completer,
		channelID: channelID,
		prompts:   prompts,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces time.Now for the user prompt timestamp.
func (a *Assistant) WithClock(now func() time.Time) *Assistant {
	a.now = now
	return a
}

// Run executes the batch once. A missing digest is tolerated and the
// prompt goes out without check-ins; a completion failure is returned.
func (a *Assistant) Run(ctx context.Context) (Result, error) {
	var res Result

	digest, err := a.digests.Build(ctx, a.channelID)
	switch {
	case err == nil:
		res.DigestAvailable = true
		res.CheckinCount = len(digest.Lines)
		if digest.Empty() {
			a.logger.Info("No check-ins today", zap.String("channel_id", a.channelID))
		}
	case errors.Is(err, checkin.ErrUnavailable):
		a.logger.Warn("Check-ins unavailable, continuing without them", zap.Error(err))
	default:
		return res, fmt.Errorf("failed to build check-in digest: %w", err)
	}

	res.Prompts = prompt.Compose(a.prompts, digest.String(), a.now())
	a.logger.Debug("Composed prompts",
		zap.String("system_prompt", res.Prompts.System),
		zap.String("user_prompt", res.Prompts.User))

	reply, err := a.completer.Invoke(ctx, res.Prompts.System, res.Prompts.User)
	if err != nil {
		return res, fmt.Errorf("failed to generate reply: %w", err)
	}
	res.Reply = reply
	return res, nil
}
