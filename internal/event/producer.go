// Package event publishes domain events to Kafka. Publishing is best
// effort: a broker outage must never fail a login or a report submission,
// so errors are logged and swallowed here.
package event

import (
	"context"
	"log/slog"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/pkg/logger"

	pkgkafka "github.com/oakrobotics/scoutbase/pkg/kafka"
)

// Kafka topic constants for scoutbase domain events.
const (
	TopicUserRegistered = "scoutbase.user.registered"
	TopicUserDeleted    = "scoutbase.user.deleted"
	TopicReportCreated  = "scoutbase.report.created"
)

// Aggregate type constants.
const (
	AggregateTypeUser   = "user"
	AggregateTypeReport = "report"
)

// Source identifier for events originating from this backend.
const Source = "scoutbase"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
}

// ReportCreatedData is the payload for a report.created event.
type ReportCreatedData struct {
	UserID     string `json:"user_id"`
	TeamNumber int    `json:"team_number"`
	Count      int    `json:"count"`
}

// Producer publishes scoutbase domain events to Kafka.
type Producer struct {
	kafka *pkgkafka.Producer
	log   *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, log *slog.Logger) *Producer {
	return &Producer{kafka: kafka, log: log}
}

// UserRegistered publishes a user.registered event.
func (p *Producer) UserRegistered(ctx context.Context, user *domain.User) {
	data := UserRegisteredData{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// UserDeleted publishes a user.deleted event.
func (p *Producer) UserDeleted(ctx context.Context, userID string) {
	p.publish(ctx, TopicUserDeleted, userID, AggregateTypeUser, UserDeletedData{ID: userID})
}

// ReportCreated publishes a report.created event covering one or more
// reports submitted together.
func (p *Producer) ReportCreated(ctx context.Context, reportUserID string, teamNumber, count int) {
	data := ReportCreatedData{
		UserID:     reportUserID,
		TeamNumber: teamNumber,
		Count:      count,
	}
	p.publish(ctx, TopicReportCreated, reportUserID, AggregateTypeReport, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		p.log.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}
