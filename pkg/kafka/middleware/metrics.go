package kafka_middleware

import (
	"context"
	"roomly/pkg/kafka"
	"roomly/pkg/metrics"
	"time"
)

const (
	directionPublish = "publish"
	directionConsume = "consume"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return observed(directionPublish)
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return kafka.ConsumerMiddleware(observed(directionConsume))
}

// observed records one sample per booking event, labelled by its event type
// so approvals and cancellations can be told apart on the dashboards.
func observed(direction string) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		eventType := msg.GetEventType()
		if eventType == "" {
			eventType = "unknown"
		}
		metrics.ObserveKafkaMessage(msg.Topic, direction, eventType, metrics.Result(err), time.Since(start))
		return err
	}
}
