package ports

import "context"

// EventPublisher publishes lifecycle events to notify other services
type EventPublisher interface {
	PublishPlayground(ctx context.Context, challenge, address string) error
	PublishDeployment(ctx context.Context, challenge, address, contract, txHash string) error
	PublishCapture(ctx context.Context, challenge, address, contract, txHash string) error
}
