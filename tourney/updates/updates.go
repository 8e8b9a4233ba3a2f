/* updates.go
 * The match update channel: a multi-producer single-consumer queue between
 * command handling (which mutates rounds under the tournament lock) and the
 * background reconciliation loop (which owns round resources and display
 * messages). Carried over watermill's in-process gochannel transport with
 * JSON payloads.
 */

package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const matchUpdatesTopic = "tourney.match.updates"

// Kind is the variant of a match update.
type Kind string

const (
	KindNewMatch      Kind = "new_match"
	KindTimeExtension Kind = "time_extension"
	KindResult        Kind = "result_recorded"
	KindConfirmation  Kind = "confirmation_recorded"
	KindForceConfirm  Kind = "force_confirmed"
	KindPlayerDropped Kind = "player_dropped"
	KindCancelled     Kind = "match_cancelled"
)

// MatchUpdate tells the reconciliation loop that a round changed. The
// consumer must tolerate the round having been torn down already; a cancel
// can race an in-flight update and that is benign.
type MatchUpdate struct {
	Tournament uuid.UUID `json:"tournament"`
	Round      uuid.UUID `json:"round"`
	Kind       Kind      `json:"kind"`
}

// Channel is the pub/sub pipe for match updates. Any number of goroutines
// may publish; exactly one consumer should subscribe.
type Channel struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

func NewChannel(logger *slog.Logger) *Channel {
	return &Channel{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
	}
}

// Publish enqueues an update. Safe for concurrent use.
func (c *Channel) Publish(update MatchUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode match update: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := c.pubsub.Publish(matchUpdatesTopic, msg); err != nil {
		return fmt.Errorf("failed to publish match update: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded updates, in publish order, until ctx
// is cancelled. Undecodable payloads are logged and skipped.
func (c *Channel) Subscribe(ctx context.Context) (<-chan MatchUpdate, error) {
	msgs, err := c.pubsub.Subscribe(ctx, matchUpdatesTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to match updates: %w", err)
	}

	out := make(chan MatchUpdate)
	go func() {
		defer close(out)
		for msg := range msgs {
			var update MatchUpdate
			if err := json.Unmarshal(msg.Payload, &update); err != nil {
				c.logger.Error("dropping malformed match update", slog.Any("error", err))
				msg.Ack()
				continue
			}
			select {
			case out <- update:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the underlying pub/sub down, closing subscriber channels.
func (c *Channel) Close() error {
	return c.pubsub.Close()
}
