// Package lamp implements the lamp device domain: the persistent lamp
// registry and the control service that orchestrates a state-change
// request end to end.
//
// A lamp is addressed by its (gateway id, node id) pair; node ids are
// additionally unique across all gateways, so one physical device can
// never have two records.
//
// The control flow for one request is strictly sequential:
//
//  1. validate identifiers
//  2. look up the existing record
//  3. create with defaults, or apply the supplied fields
//  4. persist (upsert, refreshing updated_at)
//  5. publish the persisted state to lamp/control/<node_id> (QoS 0)
//  6. append an activity log entry (regardless of publish outcome)
//
// There is no transaction spanning these steps. A publish failure is
// surfaced to the caller but never rolls back the store write, and two
// concurrent requests for the same node may interleave their read and
// write — last write wins, by design of the upstream system this
// service fronts.
package lamp
