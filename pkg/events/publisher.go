package events

// Publisher exposes one typed method per notification spec.md's
// supplemented events section names: one PublishX per event type, each
// building its payload and routing it to a channel on the in-process Bus.
type Publisher struct {
	bus *Bus
}

// NewPublisher wraps a Bus.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{bus: bus}
}

// channelForAxis scopes GHAP/cluster/value notifications by axis, so a
// subscriber interested in only one falsification axis doesn't have to
// filter every event itself.
func channelForAxis(axis string) string {
	return "axis." + axis
}

// PublishGHAPResolved notifies that a GHAP entry reached a terminal
// outcome and was persisted.
func (p *Publisher) PublishGHAPResolved(entryID, axis, outcome string) {
	p.bus.Publish(Event{
		Type:    TypeGHAPResolved,
		Channel: channelForAxis(axis),
		Payload: map[string]any{
			"entry_id": entryID,
			"axis":     axis,
			"outcome":  outcome,
		},
	})
}

// PublishClusterCompleted notifies that a clustering run finished for an
// axis.
func (p *Publisher) PublishClusterCompleted(axis string, clusterCount, memberCount int) {
	p.bus.Publish(Event{
		Type:    TypeClusterCompleted,
		Channel: channelForAxis(axis),
		Payload: map[string]any{
			"axis":          axis,
			"cluster_count": clusterCount,
			"member_count":  memberCount,
		},
	})
}

// PublishValueStored notifies that a candidate value was validated and
// stored against a cluster.
func (p *Publisher) PublishValueStored(valueID, axis, clusterID string) {
	p.bus.Publish(Event{
		Type:    TypeValueStored,
		Channel: channelForAxis(axis),
		Payload: map[string]any{
			"value_id":   valueID,
			"axis":       axis,
			"cluster_id": clusterID,
		},
	})
}
