package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Domain event types published to the events topic.
const (
	EventPaymentRecorded    = "payment.recorded"
	EventTenantNotified     = "tenant.notified"
	EventMaintenanceUpdated = "maintenance.updated"
)

const eventsTopic = "rentcare-events"

// DomainEvent is the message published for every significant aggregate change.
type DomainEvent struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	PropertyID string                 `json:"propertyId"`
	FlatNo     string                 `json:"flatNo,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventProducer publishes domain events through a buffered worker pool so
// handlers never block on the broker. A nil producer is valid and drops
// everything, which is how the server runs when KAFKA_BROKER is unset.
type EventProducer struct {
	writer       *kafka.Writer
	eventChan    chan DomainEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewEventProducer creates the producer and starts its workers.
func NewEventProducer(broker string) *EventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	ep := &EventProducer{
		writer:       writer,
		eventChan:    make(chan DomainEvent, 256),
		workerCount:  4,
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < ep.workerCount; i++ {
		ep.wg.Add(1)
		go ep.eventWorker(i)
	}

	logrus.Infof("Event producer started with %d workers", ep.workerCount)
	return ep
}

func (ep *EventProducer) eventWorker(id int) {
	defer ep.wg.Done()

	for {
		select {
		case event := <-ep.eventChan:
			if err := ep.send(event); err != nil {
				logrus.WithError(err).Warnf("Event worker %d failed to publish %s", id, event.Type)
			}
		case <-ep.shutdownChan:
			return
		}
	}
}

// Publish queues an event without blocking. Events are best-effort: a full
// queue or an unavailable broker never fails the request that produced them.
func (ep *EventProducer) Publish(eventType, propertyID, flatNo string, payload map[string]interface{}) {
	if ep == nil {
		return
	}

	event := DomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		PropertyID: propertyID,
		FlatNo:     flatNo,
		OccurredAt: time.Now(),
		Payload:    payload,
	}

	select {
	case ep.eventChan <- event:
	default:
		logrus.Warnf("Event queue full, dropped %s for property %s", eventType, propertyID)
	}
}

func (ep *EventProducer) send(event DomainEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: eventsTopic,
		Key:   []byte(event.PropertyID),
		Value: message,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "property_id", Value: []byte(event.PropertyID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return ep.writer.WriteMessages(ctx, msg)
}

// Close drains the workers and shuts the writer down.
func (ep *EventProducer) Close() error {
	if ep == nil {
		return nil
	}

	close(ep.shutdownChan)
	ep.wg.Wait()
	close(ep.eventChan)

	return ep.writer.Close()
}
