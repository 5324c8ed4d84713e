/*
Package event provides a type-safe, pub/sub event system for the arena server.

The event system enables decoupled communication between different components of the
server by allowing publishers to emit events and subscribers to react to them without
direct dependencies.

# Architecture

The package is built on top of watermill's gochannel for infrastructure while maintaining
direct-call semantics to preserve type information. It provides both synchronous and
asynchronous event publishing patterns.

# Event Types

The system supports various event categories:

User Events:
  - user.connected: WebSocket connection accepted
  - user.disconnected: Connection closed
  - user.waiting: User entered the waiting queue
  - user.evicted: User kicked back to the consent gate for inactivity

Pairing Events:
  - pair.created: Two participants paired into a conversation
  - pair.broken: A pairing ended (reassign, disconnect or inactivity)

Message Events:
  - message.routed: A chat message was relayed to a partner

AI Events:
  - ai.spawned: AI participant created to fill an odd queue
  - ai.removed: AI participant dismantled

Conversation Events:
  - conversation.ended: Conversation log closed out

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{
		Type: event.PairCreated,
		Data: event.PairCreatedData{
			SessionID: sessionID,
			UserA:     a,
			UserB:     b,
		},
	})

	// Synchronous publishing (blocking until all subscribers complete)
	event.PublishSync(event.Event{
		Type: event.UserDisconnected,
		Data: event.UserDisconnectedData{UserID: userID},
	})

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.PairCreated, func(e event.Event) {
		data := e.Data.(event.PairCreatedData)
		log.Info("Paired", "session", data.SessionID)
	})
	defer unsubscribe()

Subscribing to all events:

	unsubscribe := event.SubscribeAll(func(e event.Event) {
		log.Debug("Event received", "type", e.Type)
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

When using PublishSync, subscribers are called synchronously in the publisher's
goroutine. To avoid blocking or deadlocks, subscribers MUST:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber (no re-entrant publishing)
  - Never acquire locks that the publisher might hold

Example of a safe subscriber:

	event.SubscribeAll(func(e event.Event) {
	    select {
	    case eventChan <- e:
	        // Event sent successfully
	    default:
	        // Channel full, drop event to avoid blocking
	        log.Warn("Event dropped due to full channel", "type", e.Type)
	    }
	})

# Custom Event Bus

For testing or isolation, you can create custom bus instances:

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.PairCreated, handler)
	bus.PublishSync(event.Event{Type: event.PairCreated, Data: data})

# Testing

The package provides utilities for testing:

	// Reset global bus state (use in test cleanup)
	event.Reset()

# Thread Safety

The event bus is thread-safe and can be used concurrently from multiple goroutines.
Both publishing and subscribing operations are protected by internal synchronization.

# Performance Considerations

- Asynchronous publishing (Publish) creates a goroutine per subscriber per event
- Synchronous publishing (PublishSync) calls all subscribers in the current goroutine
- Use PublishSync for critical events where ordering matters
- Use Publish for fire-and-forget notifications
- Consider subscriber performance impact on PublishSync calls

# Integration with Watermill

The package uses watermill's gochannel internally, providing access to the underlying
pubsub infrastructure for advanced use cases:

	pubsub := event.PubSub()
	// Use watermill features like middleware, routing, etc.

This allows future migration to distributed message brokers if needed while maintaining
the current API.
*/
package event
