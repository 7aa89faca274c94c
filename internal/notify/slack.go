package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackAlerter posts internal alerts (failed calls, reaped sessions) to an
// ops channel.
type SlackAlerter struct {
	client  *slack.Client
	channel string
}

func NewSlackAlerter(token, channel string) *SlackAlerter {
	return &SlackAlerter{client: slack.New(token), channel: channel}
}

func (s *SlackAlerter) Alert(ctx context.Context, message string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(message, false),
	)
	if err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}
