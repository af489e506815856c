package notify

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/google/uuid"

	"github.com/Suzzal26/Your-IT-Center/pkg/contracts"
	"github.com/Suzzal26/Your-IT-Center/pkg/kafka"
)

// KafkaNotifier publishes one event per transition; the mail worker that
// consumes the topic renders and sends the actual email.
type KafkaNotifier struct {
	writer *kafkago.Writer
}

func NewKafkaNotifier(client *kafka.Client, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: client.NewWriter(topic)}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	evt := contracts.Event{
		EventID:   uuid.NewString(),
		OrderID:   string(n.OrderID),
		CreatedAt: time.Now().UTC(),
		Type:      n.EventType(),
		Payload: map[string]any{
			"email": n.UserEmail,
			"name":  n.UserName,
		},
	}
	return kafka.PublishJSON(ctx, k.writer, evt.OrderID, evt)
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
