package model

import "time"

type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent is published after a successful write.
type ProductEvent struct {
	Type       ProductEventType `json:"type"`
	ProductID  string           `json:"productId"`
	Title      string           `json:"title"`
	Category   string           `json:"category"`
	Image      string           `json:"image,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
