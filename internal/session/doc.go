/*
Package session tracks live websocket sessions and their pairing state.

The Table is the single source of truth for who is connected, who is paired
with whom, and which AI participants are attached to which humans. It holds
three maps under one lock: connections, human sessions and AI session
records.

# Identity

Users receive an opaque token on connect (user_ followed by 8 hex chars);
AI participants receive ai_ tokens from the same scheme. Tokens are never
reused across connections: reconnecting yields a fresh identity.

# Locking

State transitions take the table lock; socket writes never happen under it.
Send resolves the client under a read lock, releases it, then writes under
the per-connection write mutex (gorilla websockets allow only one concurrent
writer). The pairing layer acquires its queue lock before any table call, so
lock order is always queue -> table.

# Atomic pairing

PairUsers checks both sessions and flips them in one critical section. A
candidate that disconnected or got paired concurrently makes the whole
operation fail with no partial state, and the caller re-queues.
*/
package session
