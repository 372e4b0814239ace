package pub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
)

const (
	TransactionEventsChannel = "transaction_events"
	StatusEventsChannel      = "status_events"
)

// LedgerEventPublisher fans ledger events out to redis pub/sub (for live
// subscribers) and kafka (for durable consumers). Publishing is best-effort:
// a failed publish is logged, never surfaced to the caller, because the
// ledger write already committed.
type LedgerEventPublisher struct {
	rdb         *redis.Client
	kafkaWriter *kafka.Writer
	logger      *zap.Logger
}

// NewLedgerEventPublisher creates a new event publisher. Either sink may be
// nil, in which case it is skipped.
func NewLedgerEventPublisher(rdb *redis.Client, kafkaWriter *kafka.Writer, logger *zap.Logger) *LedgerEventPublisher {
	return &LedgerEventPublisher{rdb: rdb, kafkaWriter: kafkaWriter, logger: logger}
}

// TransactionEvent describes a committed balance mutation.
type TransactionEvent struct {
	EventType    string    `json:"event_type"` // transaction.completed
	Reference    string    `json:"reference"`
	Type         string    `json:"type"`
	AccountID    int64     `json:"account_id"`
	TargetUserID int64     `json:"target_user_id"`
	SourceUserID *int64    `json:"source_user_id,omitempty"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// StatusEvent describes a committed status cascade.
type StatusEvent struct {
	EventType string    `json:"event_type"` // user.status_changed | account.status_changed
	EntityID  int64     `json:"entity_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishTransactionCompleted publishes a committed transaction to both sinks.
func (p *LedgerEventPublisher) PublishTransactionCompleted(ctx context.Context, txn *domain.Transaction, balanceAfter decimal.Decimal) {
	event := &TransactionEvent{
		EventType:    "transaction.completed",
		Reference:    txn.Reference,
		Type:         string(txn.Type),
		AccountID:    txn.AccountID,
		TargetUserID: txn.TargetUserID,
		SourceUserID: txn.SourceUserID,
		Amount:       txn.Amount.StringFixed(2),
		BalanceAfter: balanceAfter.StringFixed(2),
		Timestamp:    time.Now(),
	}
	p.publish(ctx, TransactionEventsChannel, txn.Reference, event)
}

// PublishUserStatusChanged publishes a committed user status transition.
func (p *LedgerEventPublisher) PublishUserStatusChanged(ctx context.Context, userID int64, oldStatus, newStatus domain.UserStatus, reason string) {
	event := &StatusEvent{
		EventType: "user.status_changed",
		EntityID:  userID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Reason:    reason,
		Timestamp: time.Now(),
	}
	p.publish(ctx, StatusEventsChannel, fmt.Sprintf("user-%d", userID), event)
}

// PublishAccountStatusChanged publishes a committed account status transition.
func (p *LedgerEventPublisher) PublishAccountStatusChanged(ctx context.Context, accountID int64, oldStatus, newStatus domain.AccountStatus) {
	event := &StatusEvent{
		EventType: "account.status_changed",
		EntityID:  accountID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Timestamp: time.Now(),
	}
	p.publish(ctx, StatusEventsChannel, fmt.Sprintf("account-%d", accountID), event)
}

func (p *LedgerEventPublisher) publish(ctx context.Context, channel, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("channel", channel), zap.Error(err))
		return
	}

	if p.rdb != nil {
		if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			p.logger.Error("failed to publish event to redis",
				zap.String("channel", channel), zap.Error(err))
		}
	}

	if p.kafkaWriter != nil {
		msg := kafka.Message{
			Topic: channel,
			Key:   []byte(key),
			Value: payload,
		}
		if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
			p.logger.Error("failed to publish event to kafka",
				zap.String("topic", channel), zap.Error(err))
		}
	}
}
