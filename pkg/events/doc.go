/*
Package events provides an in-memory event broker for plot and record store
lifecycle notifications.

The events package implements a lightweight event bus for broadcasting
commitment and record store state changes to interested subscribers. It
supports asynchronous event delivery via buffered channels, enabling loose
coupling between the plot engine, the metrics collector, and any other
in-process observer.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Topic-agnostic (all events broadcast)    │          │
	│  │  - Buffered publish (blocks when full)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │  Commitment Events:                         │          │
	│  │    - commitment.started                     │          │
	│  │    - commitment.created                     │          │
	│  │    - commitment.aborted                     │          │
	│  │    - commitment.removed                     │          │
	│  │                                              │          │
	│  │  Plot Events:                               │          │
	│  │    - plot.extended                          │          │
	│  │    - plot.closed                            │          │
	│  │                                              │          │
	│  │  Record Store Events:                       │          │
	│  │    - record.stored, record.evicted          │          │
	│  │    - provider.registered                    │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Buffered publish (blocks only while the 100-event buffer is full)
  - Graceful shutdown via stop channel

Event:
  - ID: Unique event identifier
  - Type: Event type (commitment.created, plot.extended, etc.)
  - Timestamp: When event occurred
  - Message: Human-readable description
  - Metadata: Key-value pairs for additional context (salt, piece count, ...)

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Event Flow

Publish Flow:
 1. Publisher calls broker.Publish(event)
 2. Event added to main event channel (waits while it is full, until Stop)
 3. Broadcast loop receives event
 4. Event sent to all subscriber channels
 5. Subscribers receive event asynchronously
 6. Full subscriber buffers skip (no blocking)

Subscribe Flow:
 1. Subscriber calls broker.Subscribe()
 2. New buffered channel created
 3. Channel registered in subscriber map
 4. Subscriber receives events via channel

Unsubscribe Flow:
 1. Subscriber calls broker.Unsubscribe(channel)
 2. Channel removed from subscriber map and closed

# Usage

Creating and Starting Broker:

	import "github.com/cuemby/plotengine/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Subscribing to Events:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
		}
	}()

Publishing Events:

	broker.Publish(&events.Event{
		Type:    events.EventCommitmentCreated,
		Message: "commitment created",
		Metadata: map[string]string{
			"salt": fmt.Sprintf("%x", salt),
		},
	})

# Event Types Catalog

EventCommitmentStarted:
  - Published when: a batched tag-index build begins for a salt
  - Metadata: salt

EventCommitmentCreated:
  - Published when: the tag index for a salt finishes and is renamed durable
  - Metadata: salt, piece_count

EventCommitmentAborted:
  - Published when: a commitment transitions to Aborted mid-build
  - Metadata: salt

EventCommitmentRemoved:
  - Published when: a finished commitment's tag index is removed
  - Metadata: salt

EventPlotExtended:
  - Published when: WriteMany appends new pieces to the plot
  - Metadata: piece_count

EventPlotClosed:
  - Published when: the plot engine shuts down

EventRecordStored / EventRecordEvicted / EventProviderRegistered:
  - Published by the record store stack on mutation

# Design Patterns

Buffered Publish:
  - Publish sends to a 100-event buffered channel and returns once queued;
    it blocks while that buffer is full, until the broker is stopped
  - Events may be dropped if the subscriber buffer is full

Fan-Out Pattern:
  - Single event broadcast to all subscribers
  - Full buffers skip to prevent blocking

Fire-and-Forget:
  - No acknowledgment from subscribers, no retry

# Limitations

  - In-memory only, no persistence or replay
  - No guaranteed delivery (best effort)
  - No topic-based filtering — subscribers filter by Event.Type themselves

# See Also

  - Pub/sub pattern: https://en.wikipedia.org/wiki/Publish%E2%80%93subscribe_pattern
*/
package events
