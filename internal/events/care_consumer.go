package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pawhaven/service-booking/internal/pkg/kafka"
)

// BookingCompleter marks a confirmed booking as completed. Satisfied by the
// booking application service.
type BookingCompleter interface {
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) error
}

// CareEventConsumer listens to the care scheduler's events and completes
// bookings whose service has been delivered.
type CareEventConsumer struct {
	consumer *kafka.Consumer
	service  BookingCompleter
	logger   *zap.Logger
}

// NewCareEventConsumer creates a new CareEventConsumer.
func NewCareEventConsumer(
	brokers []string,
	groupID string,
	service BookingCompleter,
	logger *zap.Logger,
) *CareEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicCareEvents, logger)
	return &CareEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming care events. This blocks until the context is cancelled.
func (c *CareEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CareEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CareEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from care topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case CareVisitCompleted:
		return c.handleVisitCompleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled care event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *CareEventConsumer) handleVisitCompleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt CareVisitCompletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse CareVisitCompletedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing care visit completed event",
		zap.String("booking_id", evt.BookingID.String()),
	)

	if err := c.service.CompleteBooking(ctx, evt.BookingID); err != nil {
		c.logger.Error("failed to complete booking after care visit",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking completed after care visit",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
