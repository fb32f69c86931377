package notify

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "notification:"

// Bus bridges notifications onto per-recipient Redis pub/sub channels.
// Publishing is best-effort: a broken bus must never fail the request
// that triggered the event, so callers are free to ignore the error.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus { return &Bus{rdb: rdb} }

// ChannelFor derives the pub/sub channel name for a recipient.
func ChannelFor(userID uint64) string {
	return channelPrefix + strconv.FormatUint(userID, 10)
}

// Publish serializes n and publishes it to the recipient's channel.
func (b *Bus) Publish(ctx context.Context, recipientID uint64, n Notification) error {
	payload, err := n.Encode()
	if err != nil {
		log.Printf("notify: encode event failed: %v", err)
		return err
	}
	if err := b.rdb.Publish(ctx, ChannelFor(recipientID), payload).Err(); err != nil {
		log.Printf("notify: publish to %s failed: %v", ChannelFor(recipientID), err)
		return err
	}
	return nil
}

// Subscribe opens a subscription on the user's channel. The caller owns
// the returned subscription and must Close it when the consuming
// connection goes away.
func (b *Bus) Subscribe(ctx context.Context, userID uint64) *redis.PubSub {
	return b.rdb.Subscribe(ctx, ChannelFor(userID))
}
