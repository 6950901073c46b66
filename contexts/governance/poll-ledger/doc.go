// Package pollledger implements the poll ledger inside the governance
// context.
//
// The module owns the deterministic account addressing scheme and the three
// serialized transitions over it (create poll, add candidate, cast vote),
// plus read-side tally aggregation and outbox-backed event production. All
// uniqueness and double-vote guarantees come from create-if-absent on
// derived addresses; the execution environment behind the ledger port
// serializes conflicting transitions, so the module never locks.
package pollledger
