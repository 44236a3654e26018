package ifttt

// EventPrefix starts every IFTTT event name the bridge produces.
const EventPrefix = "hiome_"

// EventNames maps decoded telemetry to IFTTT event names, in forwarding order.
//
// Occupancy produces a state event (empty or occupied) followed by a count
// event carrying the count verbatim. Door produces a single event ending in
// the door state. Unknown variants produce nothing.
func EventNames(t Telemetry) []string {
	switch m := t.(type) {
	case Occupancy:
		base := EventPrefix + Sanitize(m.Name) + "_"
		state := base + "occupied"
		if m.Empty() {
			state = base + "empty"
		}
		return []string{state, base + "count" + m.Count.String()}

	case Door:
		return []string{
			EventPrefix + Sanitize(m.Labels[0]) + "_" + Sanitize(m.Labels[1]) + "_door_" + m.State,
		}

	default:
		return nil
	}
}
