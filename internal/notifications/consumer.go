package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
	"github.com/wovenlane/wovenlane-backend/pkg/money"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox/idempotency"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches order events and turns payment confirmations into in-app notifications.
type Consumer struct {
	repo         notificationWriter
	subscription *pubsub.Subscriber
	idempotency  idempotencyGuard
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo notificationWriter, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != string(enums.EventOrderPaid) {
		c.logg.Info(logCtx, "skipping non-payment event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.OrderPaidEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":     payload.OrderID.String(),
		"order_number": payload.OrderNumber,
	})

	if err := c.createPaidNotification(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) createPaidNotification(ctx context.Context, payload payloads.OrderPaidEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	amount := money.PaiseToRupees(payload.TotalPaise)
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeOrderUpdate,
		Title:   "Payment confirmed",
		Message: fmt.Sprintf("Payment of %s %s for order %s was received. We are preparing your items.", payload.Currency, amount.StringFixed(2), payload.OrderNumber),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "customer notified of payment")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
