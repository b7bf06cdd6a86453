package qualify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and collapses", "  Toyota   VIOS \n", "toyota vios"},
		{"template token", "{{contact.ai_model}}", ""},
		{"template token inside text", "{{greeting}} sedan po", "sedan po"},
		{"n/a", "N/A", ""},
		{"none", "None", ""},
		{"null", "null", ""},
		{"undefined", "UNDEFINED", ""},
		{"dash", " - ", ""},
		{"full-width digits", "６００ｋ", "600k"},
		{"empty", "", ""},
		{"keeps peso sign", "₱600,000", "₱600,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCleanPreservesCase(t *testing.T) {
	assert.Equal(t, "Toyota Vios", Clean("  Toyota   Vios "))
	assert.Equal(t, "", Clean("{{ai_location}}"))
}

type stringerValue struct{ s string }

func (v stringerValue) String() string { return v.s }

func TestSanitize(t *testing.T) {
	name := " Juan "
	var nilName *string
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "  Quezon   City ", "Quezon City"},
		{"placeholder string", "n/a", ""},
		{"string pointer", &name, "Juan"},
		{"nil string pointer", nilName, ""},
		{"int", 600000, "600000"},
		{"int64", int64(450000), "450000"},
		{"whole float", 600000.0, "600000"},
		{"fractional float", 1.5, "1.5"},
		{"json number", json.Number("250000"), "250000"},
		{"stringer", stringerValue{"sedan"}, "sedan"},
		{"slice", []int{1, 2}, ""},
		{"map", map[string]string{"a": "b"}, ""},
		{"bool", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeMemory(t *testing.T) {
	state := SanitizeMemory(map[Slot]any{
		SlotVehicle:     "Toyota Vios",
		SlotPaymentMode: "Cash",
		SlotBudget:      "₱600,000",
		SlotLocation:    "{{contact.ai_location}}",
		SlotTimeline:    nil,
	})

	assert.Equal(t, "Toyota Vios", state.Get(SlotVehicle))
	assert.Equal(t, PaymentCash, state.Get(SlotPaymentMode))
	assert.Equal(t, "600000", state.Get(SlotBudget))
	assert.False(t, state.Known(SlotLocation))
	assert.False(t, state.Known(SlotTimeline))
}

func TestSanitizeMemoryKeepsUnrecognizedValues(t *testing.T) {
	state := SanitizeMemory(map[Slot]any{
		SlotPaymentMode: "pag-iisipan pa",
		SlotBudget:      "depende",
	})
	assert.Equal(t, "pag-iisipan pa", state.Get(SlotPaymentMode))
	assert.Equal(t, "depende", state.Get(SlotBudget))

	_, ok := state.Budget()
	assert.False(t, ok)
}

func TestSlotStateHelpers(t *testing.T) {
	var nilState SlotState
	assert.False(t, nilState.Known(SlotVehicle))
	assert.Equal(t, "", nilState.Get(SlotVehicle))
	assert.True(t, nilState.Empty())

	state := SlotState{SlotVehicle: "sedan", SlotLocation: "none", SlotBudget: "600000"}
	assert.False(t, state.Empty())
	assert.False(t, state.Known(SlotLocation))

	budget, ok := state.Budget()
	assert.True(t, ok)
	assert.Equal(t, int64(600000), budget)

	clone := state.Clone()
	assert.NotContains(t, clone, SlotLocation)
	clone[SlotVehicle] = "suv"
	assert.Equal(t, "sedan", state[SlotVehicle])
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "explicit-memory", TierMemory.String())
	assert.Equal(t, "explicit-this-turn", TierExplicit.String())
	assert.Equal(t, "inferred-this-turn", TierInferred.String())
	assert.Equal(t, "none", TierNone.String())
	assert.True(t, TierMemory > TierExplicit && TierExplicit > TierInferred)
}
