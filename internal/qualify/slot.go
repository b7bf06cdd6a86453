package qualify

import (
	"strconv"
)

// Slot names one fact the qualification dialogue collects.
type Slot string

const (
	SlotVehicle      Slot = "vehicle"
	SlotPaymentMode  Slot = "payment_mode"
	SlotBudget       Slot = "budget_or_downpayment"
	SlotLocation     Slot = "location"
	SlotTimeline     Slot = "timeline"
	SlotTransmission Slot = "transmission"
)

// DefaultOrder is the fixed priority in which missing slots are asked.
var DefaultOrder = []Slot{SlotVehicle, SlotPaymentMode, SlotBudget, SlotLocation, SlotTimeline}

// AllSlots lists every slot the engine tracks, including the non-gating ones.
var AllSlots = []Slot{SlotVehicle, SlotPaymentMode, SlotBudget, SlotLocation, SlotTimeline, SlotTransmission}

// Gating reports whether the slot can block completion.
func (s Slot) Gating() bool {
	switch s {
	case SlotVehicle, SlotPaymentMode, SlotBudget, SlotLocation, SlotTimeline:
		return true
	default:
		return false
	}
}

// Payment modes.
const (
	PaymentCash      = "cash"
	PaymentFinancing = "financing"
)

// Tier ranks where a slot value came from. Higher tiers win during merge.
type Tier int

const (
	TierNone Tier = iota
	TierInferred
	TierExplicit
	TierMemory
)

func (t Tier) String() string {
	switch t {
	case TierInferred:
		return "inferred-this-turn"
	case TierExplicit:
		return "explicit-this-turn"
	case TierMemory:
		return "explicit-memory"
	default:
		return "none"
	}
}

// ExtractionResult is one extractor's candidate for a slot.
type ExtractionResult struct {
	Value string
	Tier  Tier
	// Evidence is the literal token that produced Value (e.g. "vios" for sedan).
	Evidence string
}

// Found reports whether the extractor produced a value.
func (r ExtractionResult) Found() bool {
	return r.Tier != TierNone && r.Value != ""
}

// SlotState holds the sanitized value for each slot. Missing keys are unknown.
type SlotState map[Slot]string

// Known reports whether the slot holds a usable value.
func (s SlotState) Known(slot Slot) bool {
	if s == nil {
		return false
	}
	return Clean(s[slot]) != ""
}

// Get returns the sanitized value of a slot, or "" when unknown.
func (s SlotState) Get(slot Slot) string {
	if s == nil {
		return ""
	}
	return Clean(s[slot])
}

// Budget returns the budget as a peso amount when it parses.
func (s SlotState) Budget() (int64, bool) {
	raw := s.Get(SlotBudget)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	return ParseAmount(Normalize(raw))
}

// Clone returns an independent copy holding only known slots.
func (s SlotState) Clone() SlotState {
	out := make(SlotState, len(s))
	for slot, v := range s {
		if v = Clean(v); v != "" {
			out[slot] = v
		}
	}
	return out
}

// Empty reports whether no slot is known.
func (s SlotState) Empty() bool {
	for _, slot := range AllSlots {
		if s.Known(slot) {
			return false
		}
	}
	return true
}
