// Package events announces appointment lifecycle changes to other systems
// (notifications, reporting). Delivery is best effort: callers log a failed
// publish and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"healthcare-portal-api/internal/config"
)

type Type string

const (
	AppointmentBooked        Type = "appointment.booked"
	AppointmentStatusUpdated Type = "appointment.status_updated"
	AppointmentCancelled     Type = "appointment.cancelled"
)

type Event struct {
	Type            Type      `json:"type"`
	AppointmentID   string    `json:"appointmentId"`
	DoctorID        string    `json:"doctorId"`
	PatientID       string    `json:"patientId"`
	Status          string    `json:"status,omitempty"`
	AppointmentTime time.Time `json:"appointmentTime"`
	OccurredAt      time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes events keyed by appointment id, so all events for one
// appointment land on the same partition in order. A breaker stops hammering
// an unreachable broker.
type Kafka struct {
	w       messageWriter
	cb      *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newKafka(w, cfg.WriteTimeout)
}

func newKafka(w messageWriter, timeout time.Duration) *Kafka {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-appointments",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Kafka{w: w, cb: cb, timeout: timeout}
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.AppointmentID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
		Time: ev.OccurredAt,
	}

	_, err = k.cb.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, k.timeout)
		defer cancel()
		return struct{}{}, k.w.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
