package publisher

import (
	"context"
	"encoding/json"
	"time"

	"product-catalog/internal/model"

	"github.com/go-faster/errors"
)

const ProductEventsQueue = "product.events"

// Broker is the subset of messaging.RabbitMQ used here.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

type ProductPublisher struct {
	mq  Broker
	now func() time.Time
}

func NewProductPublisher(mq Broker) (*ProductPublisher, error) {
	if err := mq.DeclareQueue(ProductEventsQueue); err != nil {
		return nil, err
	}
	return &ProductPublisher{mq: mq, now: time.Now}, nil
}

// PublishProductEvent publishes one event describing p.
func (p *ProductPublisher) PublishProductEvent(ctx context.Context, eventType model.ProductEventType, product *model.Product) error {
	event := model.ProductEvent{
		Type:       eventType,
		ProductID:  product.ID.Hex(),
		Title:      product.Title,
		Category:   product.Category,
		Image:      product.Image,
		OccurredAt: p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal product event")
	}
	return p.mq.Publish(ctx, ProductEventsQueue, data)
}
