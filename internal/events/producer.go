package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	orderTopic   = "order-events"
	paymentTopic = "payment-events"
)

type Producer struct {
	orders   *kafka.Writer
	payments *kafka.Writer
	logger   *zap.Logger
}

// NewProducer returns nil when no brokers are configured; callers treat a nil
// producer as "events disabled".
func NewProducer(brokers string, logger *zap.Logger) *Producer {
	if brokers == "" {
		return nil
	}
	return &Producer{
		orders: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    orderTopic,
			Balancer: &kafka.LeastBytes{},
		},
		payments: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    paymentTopic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (p *Producer) publish(writer *kafka.Writer, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

func (p *Producer) PublishOrderCreated(event OrderCreatedEvent) error {
	if err := p.publish(p.orders, event.MerchantUID, event); err != nil {
		p.logger.Error("Failed to publish order created event",
			zap.String("merchant_uid", event.MerchantUID),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) PublishPaymentSettled(event PaymentSettledEvent) error {
	if err := p.publish(p.payments, event.MerchantUID, event); err != nil {
		p.logger.Error("Failed to publish payment settled event",
			zap.String("merchant_uid", event.MerchantUID),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) PublishPaymentCancelled(event PaymentCancelledEvent) error {
	if err := p.publish(p.payments, event.MerchantUID, event); err != nil {
		p.logger.Error("Failed to publish payment cancelled event",
			zap.String("merchant_uid", event.MerchantUID),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.orders.Close(); err != nil {
		return err
	}
	return p.payments.Close()
}
