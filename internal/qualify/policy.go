package qualify

// Policy configures the missing-slot scan.
type Policy struct {
	// Order is the priority in which gating slots are asked.
	Order []Slot
	// LocationOptional treats a state missing only location as complete;
	// location is then offered as a soft ask alongside the acknowledgment.
	LocationOptional bool
}

// DefaultPolicy asks every gating slot in DefaultOrder.
func DefaultPolicy() Policy {
	return Policy{Order: append([]Slot(nil), DefaultOrder...)}
}

// Decision is the outcome of the missing-slot scan.
type Decision struct {
	// Next is the slot to ask about; empty when Complete.
	Next     Slot
	Complete bool
	// SoftAsk is set when the policy skipped an optional slot to complete.
	SoftAsk Slot
}

// NextMissing returns the first unknown slot in priority order, or a
// complete decision when every required slot is known. It is pure.
func NextMissing(state SlotState, p Policy) Decision {
	order := p.order()
	var missing []Slot
	for _, slot := range order {
		if !state.Known(slot) {
			missing = append(missing, slot)
		}
	}
	switch {
	case len(missing) == 0:
		return Decision{Complete: true}
	case p.LocationOptional && len(missing) == 1 && missing[0] == SlotLocation:
		return Decision{Complete: true, SoftAsk: SlotLocation}
	default:
		return Decision{Next: missing[0]}
	}
}

func (p Policy) order() []Slot {
	if len(p.Order) == 0 {
		return DefaultOrder
	}
	seen := make(map[Slot]bool, len(p.Order))
	out := make([]Slot, 0, len(p.Order))
	for _, slot := range p.Order {
		if !slot.Gating() || seen[slot] {
			continue
		}
		seen[slot] = true
		out = append(out, slot)
	}
	// Gating slots left out of a custom order are still required.
	for _, slot := range DefaultOrder {
		if !seen[slot] {
			out = append(out, slot)
		}
	}
	return out
}
