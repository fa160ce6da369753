package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AccountEventPayload struct {
	AccountID      string           `json:"accountId"`
	CustomerID     string           `json:"customerId"`
	AccountType    string           `json:"accountType"`
	Balance        decimal.Decimal  `json:"balance"`
	WithdrawalDate *time.Time       `json:"withdrawalDate,omitempty"`
	MaintenanceFee *decimal.Decimal `json:"maintenanceFee,omitempty"`
}

type AccountCreatedEvent struct {
	Timestamp time.Time           `json:"timestamp"`
	Payload   AccountEventPayload `json:"payload"`
}

type AccountDeletedEvent struct {
	Timestamp time.Time           `json:"timestamp"`
	Payload   AccountEventPayload `json:"payload"`
}

type AccountMaturedEvent struct {
	Timestamp time.Time           `json:"timestamp"`
	Payload   AccountEventPayload `json:"payload"`
}

func (p *RabbitMQEventPublisher) PublishAccountCreated(ctx context.Context, event AccountCreatedEvent) error {
	return p.publish(ctx, routingKeyAccountCreated, event)
}

func (p *RabbitMQEventPublisher) PublishAccountDeleted(ctx context.Context, event AccountDeletedEvent) error {
	return p.publish(ctx, routingKeyAccountDeleted, event)
}

func (p *RabbitMQEventPublisher) PublishAccountMatured(ctx context.Context, event AccountMaturedEvent) error {
	return p.publish(ctx, routingKeyAccountMatured, event)
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)
