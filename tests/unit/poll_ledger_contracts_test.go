package unit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	pollledger "pollchain/contexts/governance/poll-ledger"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"
)

func TestPollLedgerEmittedEventEnvelopeConsistency(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	poll, err := module.Handler.CreatePollHandler(ctx, "creator-contract-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Contract check",
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := module.Handler.AddCandidateHandler(ctx, "creator-contract-1", 1, httptransport.AddCandidateRequest{
		Name: "Alice",
	}); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-contract-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	pendingOutbox, err := module.Store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list pending outbox failed: %v", err)
	}

	expectedTypes := map[string]bool{
		"poll.created":    false,
		"candidate.added": false,
		"vote.cast":       false,
	}

	for _, message := range pendingOutbox {
		var envelope map[string]any
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox envelope failed: %v", err)
		}
		eventType, _ := envelope["event_type"].(string)
		if _, tracked := expectedTypes[eventType]; !tracked {
			t.Fatalf("unexpected event type in outbox: %s", eventType)
		}
		expectedTypes[eventType] = true

		if sourceService, _ := envelope["source_service"].(string); sourceService != "poll-ledger" {
			t.Fatalf("event %s has invalid source_service %q", eventType, sourceService)
		}
		if eventID, _ := envelope["event_id"].(string); strings.TrimSpace(eventID) == "" {
			t.Fatalf("event %s missing event_id", eventType)
		}
		if traceID, _ := envelope["trace_id"].(string); strings.TrimSpace(traceID) == "" {
			t.Fatalf("event %s missing trace_id", eventType)
		}
		if schemaVersion, _ := envelope["schema_version"].(float64); schemaVersion != 1 {
			t.Fatalf("event %s has schema_version %v, want 1", eventType, schemaVersion)
		}
		if partitionPath, _ := envelope["partition_key_path"].(string); partitionPath != "poll_address" {
			t.Fatalf("event %s has invalid partition_key_path %q", eventType, partitionPath)
		}
		if partitionKey, _ := envelope["partition_key"].(string); partitionKey != poll.Address {
			t.Fatalf("event %s partitioned by %q, want the poll address %q", eventType, partitionKey, poll.Address)
		}
	}

	for eventType, seen := range expectedTypes {
		if !seen {
			t.Fatalf("expected emitted event type not found in outbox: %s", eventType)
		}
	}
}
