// Package pairing matches waiting users into conversations.
//
// The Queue holds the FIFO waiting line and per-user cooldowns; the Pairer
// drives the protocol over it: atomic matching through the session table,
// topic and task assignment from the catalog, the AI fallback for a lone
// waiter, and the separation flows (reassignment, disconnect, inactivity
// eviction). The Evictor sweeps idle pairings on a timer.
//
// # Lock order
//
// The queue lock and the table lock are never held together by this
// package; each call into a collaborator completes before the next begins.
// Matching is nevertheless race-free because the table's pair operation is
// the single commit point: if it fails, the requester simply requeues.
//
// # Cooldowns
//
// After any separation a user re-enters the queue behind a cooldown (when
// enabled). Cooldown users keep their queue position but are skipped by the
// matcher; a timer re-attempts their pairing once the cooldown lapses.
package pairing
