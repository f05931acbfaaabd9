package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/playground/ports"
)

const (
	TopicPlayground = "playground.created"
	TopicDeployment = "playground.deployed"
	TopicCapture    = "playground.captured"
)

// LifecycleEvent is the payload of every lifecycle message
type LifecycleEvent struct {
	Challenge string    `json:"challenge"`
	Address   string    `json:"address"`
	Contract  string    `json:"contract,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Time      time.Time `json:"time"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher. prefix is prepended to
// every topic name.
func NewWatermillPublisher(publisher message.Publisher, prefix string) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		prefix:    prefix,
		now:       time.Now,
	}
}

// PublishPlayground publishes the issue of a new playground account
func (p *WatermillPublisher) PublishPlayground(ctx context.Context, challenge, address string) error {
	return p.publish(ctx, TopicPlayground, LifecycleEvent{
		Challenge: challenge,
		Address:   address,
	})
}

// PublishDeployment publishes a successful contract deployment
func (p *WatermillPublisher) PublishDeployment(ctx context.Context, challenge, address, contract, txHash string) error {
	return p.publish(ctx, TopicDeployment, LifecycleEvent{
		Challenge: challenge,
		Address:   address,
		Contract:  contract,
		TxHash:    txHash,
	})
}

// PublishCapture publishes a released flag
func (p *WatermillPublisher) PublishCapture(ctx context.Context, challenge, address, contract, txHash string) error {
	return p.publish(ctx, TopicCapture, LifecycleEvent{
		Challenge: challenge,
		Address:   address,
		Contract:  contract,
		TxHash:    txHash,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event LifecycleEvent) error {
	event.Time = p.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("challenge", event.Challenge)

	if err := p.publisher.Publish(p.prefix+topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Nop is an EventPublisher that drops every event
type Nop struct{}

func (Nop) PublishPlayground(context.Context, string, string) error { return nil }

func (Nop) PublishDeployment(context.Context, string, string, string, string) error { return nil }

func (Nop) PublishCapture(context.Context, string, string, string, string) error { return nil }
