package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/FinanceGo/internal/domain"
	pkgkafka "github.com/utafrali/FinanceGo/pkg/kafka"
)

// Kafka topics for finance domain events.
var (
	TopicUserRegistered     = pkgkafka.Topic("user", "registered")
	TopicUserLoggedOut      = pkgkafka.Topic("user", "logged_out")
	TopicTransactionCreated = pkgkafka.Topic("transaction", "created")
)

// Aggregate type constants.
const (
	AggregateTypeUser        = "user"
	AggregateTypeTransaction = "transaction"
)

// Source identifier for events originating from this service.
const SourceFinanceAPI = "finance-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserLoggedOutData is the payload for a user.logged_out event.
type UserLoggedOutData struct {
	UserID string `json:"user_id"`
}

// TransactionCreatedData is the payload for a transaction.created event.
type TransactionCreatedData struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

// Producer publishes finance domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the finance API.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceFinanceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserLoggedOut publishes a user.logged_out event.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, userID string) error {
	data := UserLoggedOutData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicUserLoggedOut, userID, AggregateTypeUser, SourceFinanceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.logged_out event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedOut, event); err != nil {
		return fmt.Errorf("publish user.logged_out event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.logged_out event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishTransactionCreated publishes a transaction.created event.
func (p *Producer) PublishTransactionCreated(ctx context.Context, tx *domain.Transaction) error {
	data := TransactionCreatedData{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        string(tx.Type),
		AmountCents: tx.AmountCents,
		Category:    tx.Category,
		Date:        tx.Date.Format("2006-01-02"),
	}

	event, err := pkgkafka.NewEvent(TopicTransactionCreated, tx.ID, AggregateTypeTransaction, SourceFinanceAPI, data)
	if err != nil {
		return fmt.Errorf("create transaction.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTransactionCreated, event); err != nil {
		return fmt.Errorf("publish transaction.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published transaction.created event",
		slog.String("transaction_id", tx.ID),
		slog.String("user_id", tx.UserID),
	)

	return nil
}
