package slack

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"whereabouts/internal/commontypes"
)

// HistoryLimit is how many recent messages a single fetch asks for.
const HistoryLimit = 20

// HistoryClient is the part of *slack.Client the reader needs.
type HistoryClient interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// HistoryReader fetches recent channel messages.
type HistoryReader struct {
	api    HistoryClient
	logger *zap.Logger
}

func NewHistoryReader(api HistoryClient, logger *zap.Logger) *HistoryReader {
	return &HistoryReader{api: api, logger: logger}
}

// Recent returns up to HistoryLimit of the newest messages in a channel,
// in the order Slack returned them.
func (r *HistoryReader) Recent(ctx context.Context, channelID string) ([]commontypes.Message, error) {
	r.logger.Info("Fetching messages from Slack",
		zap.String("channel_id", channelID),
		zap.Int("limit", HistoryLimit))

	history, err := r.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     HistoryLimit,
	})
	if err != nil {
		if strings.Contains(err.Error(), "channel_not_found") {
			return nil, fmt.Errorf("slack channel %s not found or bot lacks permission: %w", channelID, err)
		}
		return nil, fmt.Errorf("failed to get Slack conversation history for %s: %w", channelID, err)
	}

	messages := make([]commontypes.Message, 0, len(history.Messages))
	for _, msg := range history.Messages {
		postedAt, err := ParseTimestamp(msg.Timestamp)
		if err != nil {
			r.logger.Warn("Skipping message with unparseable timestamp",
				zap.String("channel_id", channelID),
				zap.String("timestamp", msg.Timestamp),
				zap.Error(err))
			continue
		}
		messages = append(messages, commontypes.Message{
			ID:        msg.ClientMsgID,
			User:      msg.User,
			Timestamp: msg.Timestamp,
			PostedAt:  postedAt,
			Text:      msg.Text,
		})
	}

	r.logger.Debug("Received message batch",
		zap.String("channel_id", channelID),
		zap.Int("count", len(history.Messages)),
		zap.Int("parsed", len(messages)))
	return messages, nil
}

// ParseTimestamp parses a Slack ts ("seconds.micros") into a time.Time.
func ParseTimestamp(ts string) (time.Time, error) {
	secStr, fracStr, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid seconds in timestamp %q: %w", ts, err)
	}
	if fracStr == "" {
		return time.Unix(sec, 0), nil
	}
	if len(fracStr) > 6 {
		fracStr = fracStr[:6]
	}
	for len(fracStr) < 6 {
		fracStr += "0"
	}
	micros, err := strconv.ParseUint(fracStr, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid fraction in timestamp %q: %w", ts, err)
	}
	return time.Unix(sec, int64(micros)*1000), nil
}
