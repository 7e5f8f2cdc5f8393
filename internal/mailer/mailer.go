package mailer

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
)

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender queues applicant-facing email for the notification worker.
type Sender interface {
	Send(ctx context.Context, payload EmailPayload) error
}

type amqpSender struct {
	channel *amqp091.Channel
	queue   string
}

// NewAMQPSender declares the notification queue and returns a sender that
// publishes to it.
func NewAMQPSender(conn *amqp091.Connection, queue string) (Sender, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	_, err = channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &amqpSender{
		channel: channel,
		queue:   queue,
	}, nil
}

func (s *amqpSender) Send(ctx context.Context, payload EmailPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	message := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	}

	if err := s.channel.PublishWithContext(ctx, "", s.queue, false, false, message); err != nil {
		return fmt.Errorf("publish email message: %w", err)
	}

	return nil
}

// DecisionEmail builds the applicant notification for an admin decision.
func DecisionEmail(to, entityType string, approved bool, reason string) EmailPayload {
	if approved {
		return EmailPayload{
			To:      to,
			Subject: "Your registration has been approved",
			Body:    fmt.Sprintf("Your %s registration has been approved. You can now sign in.", entityType),
		}
	}
	return EmailPayload{
		To:      to,
		Subject: "Your registration was not approved",
		Body:    fmt.Sprintf("Your %s registration was rejected. Reason: %s", entityType, reason),
	}
}
