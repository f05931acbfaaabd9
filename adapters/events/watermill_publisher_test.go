package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, pubSub *gochannel.GoChannel, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubSub.Subscribe(ctx, topic)
	require.NoError(t, err)
	return messages
}

func receive(t *testing.T, messages <-chan *message.Message) LifecycleEvent {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		var event LifecycleEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		require.Equal(t, event.Challenge, msg.Metadata.Get("challenge"))
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
		return LifecycleEvent{}
	}
}

func TestWatermillPublisher(t *testing.T) {
	require := require.New(t)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	created := subscribe(t, pubSub, "ctf."+TopicPlayground)
	deployed := subscribe(t, pubSub, "ctf."+TopicDeployment)
	captured := subscribe(t, pubSub, "ctf."+TopicCapture)

	pub := NewWatermillPublisher(pubSub, "ctf.")
	ctx := context.Background()

	go func() {
		_ = pub.PublishPlayground(ctx, "ctf-01", "0xa")
		_ = pub.PublishDeployment(ctx, "ctf-01", "0xa", "0xc", "H1")
		_ = pub.PublishCapture(ctx, "ctf-01", "0xa", "0xc", "H2")
	}()

	event := receive(t, created)
	require.Equal("ctf-01", event.Challenge)
	require.Equal("0xa", event.Address)
	require.Empty(event.Contract)
	require.False(event.Time.IsZero())

	event = receive(t, deployed)
	require.Equal("0xc", event.Contract)
	require.Equal("H1", event.TxHash)

	event = receive(t, captured)
	require.Equal("0xc", event.Contract)
	require.Equal("H2", event.TxHash)
}

func TestWatermillPublisherClosed(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	require.NoError(t, pubSub.Close())

	pub := NewWatermillPublisher(pubSub, "")
	err := pub.PublishPlayground(context.Background(), "ctf-01", "0xa")
	require.ErrorContains(t, err, "failed to publish event")
}
