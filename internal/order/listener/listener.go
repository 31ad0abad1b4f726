package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/broker"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// PaymentListener consumes payment processor events and applies the resulting
// payment status to orders. Payment state is an external input here.
type PaymentListener struct {
	consumer *broker.KafkaConsumer
	uc       order.UseCase
	logger   logger.ZapLogger
}

func NewPaymentListener(consumer *broker.KafkaConsumer, uc order.UseCase, logger logger.ZapLogger) *PaymentListener {
	return &PaymentListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *PaymentListener) Start(ctx context.Context) {
	l.logger.Info("Starting Payment Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Payment Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *PaymentListener) processMessage(ctx context.Context, value []byte) {
	var event order.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal payment event", zap.Error(err))
		return
	}

	var status model.PaymentStatus
	switch event.Type {
	case order.PaymentEventCompleted:
		status = model.PaymentStatusPaid
	case order.PaymentEventFailed:
		status = model.PaymentStatusFailed
	case order.PaymentEventRefunded:
		status = model.PaymentStatusRefunded
	default:
		return
	}

	l.logger.Info("Processing payment event",
		zap.String("order_id", event.OrderID),
		zap.String("type", event.Type),
	)

	if err := l.uc.ApplyPaymentEvent(ctx, event.OrderID, status); err != nil {
		l.logger.Error("Failed to apply payment event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
