package client

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Transfer events land on <subjectPrefix>.client_transferred; the
// notifications service fans them out to the target worker's channels.
const transferEventType = "client_transferred"

// NotificationPublisher publishes dispatch events to NATS.
//
// All publish operations are non-fatal. Errors are logged but never
// propagated to the caller, so a notification failure never rolls a
// transfer back.
type NotificationPublisher struct {
	nc            *nats.Conn
	subjectPrefix string
	log           zerolog.Logger
}

// TransferEvent is the JSON schema published on a client transfer.
type TransferEvent struct {
	EventType   string    `json:"event_type"`
	ClientID    string    `json:"client_id"`
	ClientLabel string    `json:"client_label,omitempty"`
	FromWorker  string    `json:"from_worker_id"`
	ToWorker    string    `json:"to_worker_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS
// connection. A nil connection yields a publisher that drops everything,
// which keeps local runs without a broker working.
func NewNotificationPublisher(nc *nats.Conn, subjectPrefix string, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nc: nc, subjectPrefix: subjectPrefix, log: log}
}

// PublishTransfer publishes a client transfer event toward the target
// worker.
func (p *NotificationPublisher) PublishTransfer(ctx context.Context, clientID, fromWorkerID, toWorkerID int64, clientLabel string) {
	if p.nc == nil {
		return
	}

	event := &TransferEvent{
		EventType:   transferEventType,
		ClientID:    strconv.FormatInt(clientID, 10),
		ClientLabel: clientLabel,
		FromWorker:  strconv.FormatInt(fromWorkerID, 10),
		ToWorker:    strconv.FormatInt(toWorkerID, 10),
		OccurredAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Msg("notification: failed to marshal transfer event")
		return
	}

	subject := p.subjectPrefix + "." + transferEventType
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Int64("client_id", clientID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Int64("client_id", clientID).
		Int64("to_worker_id", toWorkerID).
		Msg("notification: transfer event published")
}
