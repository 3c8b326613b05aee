package events

// EventCollector is embedded in aggregates to collect domain events during state transitions.
type EventCollector struct {
	pending []DomainEvent
}

// Record appends a domain event to the collector.
func (c *EventCollector) Record(event DomainEvent) {
	c.pending = append(c.pending, event)
}

// Pending returns a copy of the collected events without clearing them.
func (c *EventCollector) Pending() []DomainEvent {
	return append([]DomainEvent(nil), c.pending...)
}

// Drain returns the collected events and resets the collector, so each event
// is handed to a publisher at most once.
func (c *EventCollector) Drain() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
