package realtime

import (
	"fmt"

	"github.com/google/uuid"

	"pairchatAPI/internal/types/friendship"
)

const channelPrefix = "conversation/"

// uuid.UUID strings are fixed-width, which keeps the channel name parseable
// even though the separator also appears inside the ids.
const uuidStringLen = 36

// ChannelFor maps an unordered pair of user ids to the one channel both
// participants subscribe to. Symmetric: ChannelFor(a, b) == ChannelFor(b, a).
// Distinct pairs never collide because ids are unique and the encoding is
// fixed-width.
func ChannelFor(a, b uuid.UUID) string {
	lo, hi := friendship.CanonicalPair(a, b)
	return fmt.Sprintf("%s%s-%s", channelPrefix, lo, hi)
}

// ParseChannel recovers the two participant ids from a conversation channel
// name. The hub uses this to route a published event to the right local
// connections.
func ParseChannel(channel string) (uuid.UUID, uuid.UUID, error) {
	if len(channel) != len(channelPrefix)+uuidStringLen*2+1 {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed conversation channel: %q", channel)
	}
	body := channel[len(channelPrefix):]
	if channel[:len(channelPrefix)] != channelPrefix || body[uuidStringLen] != '-' {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed conversation channel: %q", channel)
	}

	lo, err := uuid.Parse(body[:uuidStringLen])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed conversation channel %q: %w", channel, err)
	}
	hi, err := uuid.Parse(body[uuidStringLen+1:])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed conversation channel %q: %w", channel, err)
	}
	return lo, hi, nil
}
