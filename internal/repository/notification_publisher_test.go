package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-help-api/internal/models"
)

func TestNotificationPublisherPublishUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, UserChannel("mhs-001"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewNotificationPublisher(client)
	sent := models.Notification{ID: "notif-1", UserID: "mhs-001", Title: "Update Status Pengajuan", Type: models.NotificationInfo}
	require.NoError(t, publisher.PublishUser(ctx, sent))

	select {
	case msg := <-sub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "notif-1", got.ID)
		assert.Equal(t, "notifications:user:mhs-001", msg.Channel)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotificationPublisherWithoutClient(t *testing.T) {
	assert.NoError(t, NewNotificationPublisher(nil).PublishUser(context.Background(), models.Notification{ID: "n"}))
}
