// Package checkin turns a channel's recent messages into today's check-in
// digest for the office roster.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"whereabouts/internal/commontypes"
)

// ErrUnavailable means the channel history could not be fetched. It is
// distinct from an empty Digest, which means nobody checked in today.
var ErrUnavailable = errors.New("check-in history unavailable")

// MessageSource fetches the most recent messages of a channel.
type MessageSource interface {
	Recent(ctx context.Context, channelID string) ([]commontypes.Message, error)
}

// Digest is the ordered list of rendered check-in lines.
type Digest struct {
	Lines []string
}

// String joins the lines with newlines, without a trailing newline.
func (d Digest) String() string {
	return strings.Join(d.Lines, "\n")
}

// Empty reports whether no message qualified.
func (d Digest) Empty() bool {
	return len(d.Lines) == 0
}

// Builder builds digests from a MessageSource.
type Builder struct {
	source   MessageSource
	users    commontypes.UserDirectory
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLocation sets the zone used for "today" and for HH:MM rendering.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

func NewBuilder(source MessageSource, users commontypes.UserDirectory, logger *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		source:   source,
		users:    users,
		location: time.Local,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches the channel once and renders today's check-ins from known
// users as "[HH:MM] Name: text", oldest first.
func (b *Builder) Build(ctx context.Context, channelID string) (Digest, error) {
	messages, err := b.source.Recent(ctx, channelID)
	if err != nil {
		b.logger.Error("Failed to fetch check-in messages",
			zap.String("channel_id", channelID),
			zap.Error(err))
		return Digest{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	digest := b.Render(messages)
	b.logger.Info("Built check-in digest",
		zap.String("channel_id", channelID),
		zap.Int("fetched", len(messages)),
		zap.Int("included", len(digest.Lines)))
	return digest, nil
}

// Render filters, sorts and formats an already fetched message set.
//
// "Today" compares only the day of the month, so a message from the same
// day of a previous month still qualifies.
func (b *Builder) Render(messages []commontypes.Message) Digest {
	today := b.now().In(b.location).Day()

	type entry struct {
		at   time.Time
		name string
		text string
	}
	var entries []entry
	for _, msg := range messages {
		if msg.PostedAt.In(b.location).Day() != today {
			continue
		}
		name, ok := b.users.Lookup(msg.User)
		if !ok {
			continue
		}
		entries = append(entries, entry{at: msg.PostedAt, name: name, text: msg.Text})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})

	var digest Digest
	for _, e := range entries {
		digest.Lines = append(digest.Lines, fmt.Sprintf("[%s] %s: %s", e.at.In(b.location).Format("15:04"), e.name, e.text))
	}
	return digest
}
