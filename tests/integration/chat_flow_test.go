package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"pairchatAPI/realtime"
	"pairchatAPI/services"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func createTestUser(t *testing.T, db *pgxpool.Pool, username string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	clerkID := fmt.Sprintf("test_%s_%d", username, time.Now().UnixNano())
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (clerk_id, email, username, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, '', NOW(), NOW())
		RETURNING id
	`, clerkID, username+"@example.com", username).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		db.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1 OR recipient_id = $1`, id)
		db.Exec(ctx, `DELETE FROM friendships WHERE user_a = $1 OR user_b = $1`, id)
		db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestFriendshipSymmetryAndIdempotence(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	friends := services.NewFriendshipService(db)

	isFriend, err := friends.IsFriend(ctx, alice, bob)
	req.NoError(err)
	req.False(isFriend)

	// Add once, check both directions.
	req.NoError(friends.AddFriend(ctx, alice, bob))
	ab, err := friends.IsFriend(ctx, alice, bob)
	req.NoError(err)
	ba, err := friends.IsFriend(ctx, bob, alice)
	req.NoError(err)
	req.True(ab)
	req.True(ba)

	// Re-adding (either direction) is a no-op, not an error.
	req.NoError(friends.AddFriend(ctx, alice, bob))
	req.NoError(friends.AddFriend(ctx, bob, alice))

	var edges int
	err = db.QueryRow(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
	`, alice, bob).Scan(&edges)
	req.NoError(err)
	req.Equal(1, edges)

	// Remove once, both directions go false; removing again is a no-op.
	req.NoError(friends.RemoveFriend(ctx, bob, alice))
	ab, err = friends.IsFriend(ctx, alice, bob)
	req.NoError(err)
	req.False(ab)
	req.NoError(friends.RemoveFriend(ctx, alice, bob))

	// Self-friend is rejected either way.
	req.ErrorIs(friends.AddFriend(ctx, alice, alice), services.ErrSelfFriend)
	req.ErrorIs(friends.RemoveFriend(ctx, alice, alice), services.ErrSelfFriend)
}

func TestConversationOrdering(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	store := services.NewConversationStore(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		_, err := store.Append(ctx, alice, bob, text, base.Add(time.Duration(i)*time.Minute))
		req.NoError(err)
	}

	// Ascending regardless of which side asks.
	messages, err := store.RecentBetween(ctx, bob, alice, 50)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	req.Equal("third", messages[2].Content)

	// The cap keeps the newest slice.
	messages, err = store.RecentBetween(ctx, alice, bob, 2)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("second", messages[0].Content)
	req.Equal("third", messages[1].Content)

	messages, err = store.RecentBetween(ctx, alice, bob, 0)
	req.NoError(err)
	req.Empty(messages)
}

func TestEndToEndSendAndReceive(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	rdb := setupTestRedis(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	friends := services.NewFriendshipService(db)
	store := services.NewConversationStore(db)
	users := services.NewUserService(db)
	bus := realtime.NewRedisBroadcaster(rdb)
	chatSvc := services.NewChatService(friends, store, users, bus)

	// Not friends yet: the gate holds.
	_, err := chatSvc.Send(ctx, alice, bob, "hello")
	req.ErrorIs(err, services.ErrNotFriends)

	req.NoError(friends.AddFriend(ctx, alice, bob))

	// Subscribe to the conversation channel before sending.
	channel := realtime.ChannelFor(alice, bob)
	pubsub := rdb.Subscribe(ctx, channel)
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err = pubsub.Receive(ctx)
	req.NoError(err)

	msg, err := chatSvc.Send(ctx, alice, bob, "hello")
	req.NoError(err)
	req.Equal(alice, msg.SenderID)
	req.Equal(bob, msg.RecipientID)
	req.Equal("hello", msg.Content)

	// The event arrives on the shared channel.
	select {
	case m := <-pubsub.Channel():
		req.Equal(channel, m.Channel)
		req.Contains(m.Payload, `"type":"chat.message"`)
		req.Contains(m.Payload, `"content":"hello"`)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}

	// Bob sees the conversation; history survives unfriending.
	messages, err := chatSvc.GetConversation(ctx, bob, alice, 50)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(msg.ID, messages[0].ID)

	req.NoError(friends.RemoveFriend(ctx, alice, bob))
	_, err = chatSvc.GetConversation(ctx, bob, alice, 50)
	req.ErrorIs(err, services.ErrNotFriends)

	stored, err := store.RecentBetween(ctx, alice, bob, 50)
	req.NoError(err)
	req.Len(stored, 1)
}
