package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/pkg/database"

	"github.com/streadway/amqp"
)

// EmailSender hands an email job to the external notification service.
// A Skipped result means the per-user rate limit suppressed the send; callers
// must not treat it as an error.
type EmailSender interface {
	Send(ctx context.Context, req domain.EmailRequest) (domain.EmailResult, error)
}

type rabbitEmailSender struct {
	rabbit     database.RabbitRepo
	limiter    database.RedisRepository[string]
	queue      string
	rateWindow time.Duration
}

// NewRabbitEmailSender publishes email jobs onto the notifier queue, rate
// limited per (recipient, notification kind) through redis.
func NewRabbitEmailSender(rabbit database.RabbitRepo, limiter database.RedisRepository[string], queue string, rateWindow time.Duration) EmailSender {
	if rateWindow <= 0 {
		rateWindow = time.Hour
	}
	return &rabbitEmailSender{
		rabbit:     rabbit,
		limiter:    limiter,
		queue:      queue,
		rateWindow: rateWindow,
	}
}

func (s *rabbitEmailSender) Send(ctx context.Context, req domain.EmailRequest) (domain.EmailResult, error) {
	key := fmt.Sprintf("email_rl:%s:%s", req.RecipientUserID, req.NotificationType)
	set, err := s.limiter.SetNX(ctx, key, req.EventID, s.rateWindow)
	if err != nil {
		return domain.EmailResult{}, fmt.Errorf("email rate-limit check failed: %w", err)
	}
	if !set {
		return domain.EmailResult{Skipped: true, Reason: "rate limited"}, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.EmailResult{}, err
	}

	err = s.rabbit.Publish("", s.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return domain.EmailResult{}, fmt.Errorf("email publish failed: %w", err)
	}

	return domain.EmailResult{}, nil
}
