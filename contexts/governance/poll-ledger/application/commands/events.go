package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/ports"
)

// Transition events are partitioned by poll address so poll-scoped consumers
// observe a stable order.
func newLedgerEnvelope(
	eventID string,
	eventType string,
	poll address.Address,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "poll-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_address",
		PartitionKey:     poll.String(),
		Data:             payload,
	}, nil
}

// appendEvent records a committed transition in the outbox. Event emission is
// observational plumbing: a failure here is logged, not surfaced, because the
// ledger transition has already committed.
func (uc TransitionUseCase) appendEvent(
	ctx context.Context,
	logger *slog.Logger,
	eventType string,
	poll address.Address,
	data map[string]any,
) {
	if uc.Outbox == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err == nil {
		var envelope ports.EventEnvelope
		envelope, err = newLedgerEnvelope(eventID, eventType, poll, uc.Clock.Now(), data)
		if err == nil {
			err = uc.Outbox.AppendOutbox(ctx, envelope)
		}
	}
	if err != nil {
		logger.Error("outbox append failed",
			"event", "ledger_outbox_append_failed",
			"module", "governance/poll-ledger",
			"layer", "application",
			"event_type", eventType,
			"poll_address", poll.String(),
			"error", err.Error(),
		)
	}
}
