package qualify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextMissingOrder(t *testing.T) {
	state := SlotState{}
	p := DefaultPolicy()
	for _, want := range DefaultOrder {
		d := NextMissing(state, p)
		assert.False(t, d.Complete)
		assert.Equal(t, want, d.Next)
		state[want] = "x"
	}
	d := NextMissing(state, p)
	assert.True(t, d.Complete)
	assert.Equal(t, Slot(""), d.Next)
	assert.Equal(t, Slot(""), d.SoftAsk)
}

func TestNextMissingIgnoresTransmission(t *testing.T) {
	d := NextMissing(fullState(), DefaultPolicy())
	assert.True(t, d.Complete, "transmission never gates completion")
}

func TestNextMissingLocationOptional(t *testing.T) {
	state := fullState()
	delete(state, SlotLocation)

	strict := NextMissing(state, DefaultPolicy())
	assert.Equal(t, Decision{Next: SlotLocation}, strict)

	relaxed := NextMissing(state, Policy{LocationOptional: true})
	assert.Equal(t, Decision{Complete: true, SoftAsk: SlotLocation}, relaxed)

	delete(state, SlotTimeline)
	relaxed = NextMissing(state, Policy{LocationOptional: true})
	assert.Equal(t, Decision{Next: SlotLocation}, relaxed, "location is only optional when it is the last missing slot")
}

func TestNextMissingCustomOrder(t *testing.T) {
	p := Policy{Order: []Slot{SlotTimeline, SlotTimeline, SlotTransmission, SlotVehicle}}

	assert.Equal(t, SlotTimeline, NextMissing(SlotState{}, p).Next)
	assert.Equal(t, SlotVehicle, NextMissing(SlotState{SlotTimeline: "soon"}, p).Next)

	// Slots omitted from a custom order are still required, in default order.
	state := SlotState{SlotTimeline: "soon", SlotVehicle: BodySUV}
	assert.Equal(t, SlotPaymentMode, NextMissing(state, p).Next)
}

func TestNextMissingIsPure(t *testing.T) {
	state := SlotState{SlotVehicle: BodySedan}
	before := state.Clone()
	first := NextMissing(state, DefaultPolicy())
	second := NextMissing(state, DefaultPolicy())
	assert.Equal(t, first, second)
	assert.Equal(t, before, state)
}
