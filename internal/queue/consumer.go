// Package queue contains the AMQP consumer through which external channels
// report completed sales and cancellations asynchronously. Delivery is
// at-least-once; the gateway treats the channel's reference as an
// idempotency key, so redelivered reports are harmless.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/showsewa/seat-inventory/internal/inventory"
)

const (
	reportQueueName = "channel.reports"

	// pacing for redelivery of transiently failing reports, so a message
	// that keeps failing does not spin against the broker
	defaultRequeueDelay = time.Second
)

// ChannelReport is the wire format external channels publish.
type ChannelReport struct {
	Channel   domain.Channel `json:"channel"`
	ShowingID int64          `json:"showingId"`
	Seats     []string       `json:"seats"`
	Reference string         `json:"reference"`
	Cancelled bool           `json:"cancelled"`
}

// Consumer drains the channel.reports queue into the channel gateway.
type Consumer struct {
	url          string
	gateway      *inventory.ChannelGateway
	logger       *slog.Logger
	requeueDelay time.Duration
}

func NewConsumer(url string, gateway *inventory.ChannelGateway, logger *slog.Logger) *Consumer {
	return &Consumer{
		url:          url,
		gateway:      gateway,
		logger:       logger,
		requeueDelay: defaultRequeueDelay,
	}
}

// Run connects to the broker and consumes until the context is cancelled,
// reconnecting with backoff on broker failures.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("starting channel report consumer", "queue", reportQueueName)

	backoff := time.Second

	for {
		if ctx.Err() != nil {
			c.logger.Info("stopping channel report consumer")
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Error("failed to dial broker", "error", err, "retry_in", backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		backoff = time.Second

		if err := c.consume(ctx, conn); err != nil {
			c.logger.Error("consume loop ended", "error", err)
		}

		conn.Close()
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(reportQueueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(reportQueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}

			c.handle(ctx, delivery)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var report ChannelReport

	if err := json.Unmarshal(delivery.Body, &report); err != nil {
		c.logger.Error("rejecting malformed channel report", "error", err)
		delivery.Reject(false)
		return
	}

	err := c.apply(ctx, report)
	if err != nil {
		// Configuration rejections, seat disagreements and reports naming
		// unknown records are final for this message: requeueing cannot fix
		// them, and the booking trail plus the reconciliation job carry the
		// follow-up.
		if isFinal(err) {
			c.logger.Warn(
				"channel report not applied",
				"channel", report.Channel,
				"reference", report.Reference,
				"error", err,
			)
			delivery.Reject(false)
			return
		}

		c.logger.Error(
			"failed to apply channel report, requeueing",
			"channel", report.Channel,
			"reference", report.Reference,
			"error", err,
		)

		select {
		case <-ctx.Done():
		case <-time.After(c.requeueDelay):
		}

		delivery.Nack(false, true)
		return
	}

	delivery.Ack(false)
}

func (c *Consumer) apply(ctx context.Context, report ChannelReport) error {
	if report.Cancelled {
		_, err := c.gateway.CancelClaim(ctx, report.Channel, report.Reference)
		return err
	}

	_, err := c.gateway.Claim(ctx, inventory.ChannelClaim{
		Channel:   report.Channel,
		ShowingID: report.ShowingID,
		SeatIDs:   report.Seats,
		Reference: report.Reference,
	})

	return err
}

func isFinal(err error) bool {
	var unavailable *domain.SeatUnavailableError

	return errors.As(err, &unavailable) ||
		errors.Is(err, domain.ErrEditConflict) ||
		errors.Is(err, domain.ErrChannelDisabled) ||
		errors.Is(err, domain.ErrRecordNotFound)
}
