package chat

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/bentacars/qualifier/internal/qualify"
)

// Reply strings shared with the chat widget.
const (
	ReplyMethodNotAllowed = "Method not allowed."
	ReplyMissingFields    = "Missing message or user."
	ReplyInvalidBody      = "Invalid request body."
	ReplyInternalError    = "Pasensya na, nagka-issue saglit. Paki-type ulit po yung message, tutulungan kita agad."
)

// FlexString accepts a JSON string, number, or null. Chat platforms send
// custom fields with whatever type the last writer used.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*f = FlexString(qualify.Sanitize(json.Number(data)))
	default:
		// Objects, arrays, and booleans carry no usable slot value.
		*f = ""
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// Request is the inbound turn record.
type Request struct {
	Message      FlexString `json:"message"`
	User         FlexString `json:"user"`
	Name         FlexString `json:"name,omitempty"`
	Model        FlexString `json:"ai_model,omitempty"`
	PaymentMode  FlexString `json:"ai_payment_mode,omitempty"`
	Budget       FlexString `json:"ai_budget,omitempty"`
	Location     FlexString `json:"ai_location,omitempty"`
	Timeline     FlexString `json:"ai_timeline,omitempty"`
	Transmission FlexString `json:"ai_transmission,omitempty"`
}

// Memory returns the slot fields the caller sent, keyed by slot.
func (r Request) Memory() map[qualify.Slot]any {
	fields := map[qualify.Slot]FlexString{
		qualify.SlotVehicle:      r.Model,
		qualify.SlotPaymentMode:  r.PaymentMode,
		qualify.SlotBudget:       r.Budget,
		qualify.SlotLocation:     r.Location,
		qualify.SlotTimeline:     r.Timeline,
		qualify.SlotTransmission: r.Transmission,
	}
	memory := make(map[qualify.Slot]any, len(fields))
	for slot, v := range fields {
		if clean := qualify.Clean(string(v)); clean != "" {
			memory[slot] = clean
		}
	}
	return memory
}

// Response is the outbound turn result. Slot fields are null when unknown so
// the caller's field mapping can clear them after a reset.
type Response struct {
	Reply        string  `json:"ai_reply"`
	Model        *string `json:"ai_model"`
	PaymentMode  *string `json:"ai_payment_mode"`
	Budget       any     `json:"ai_budget"`
	Location     *string `json:"ai_location"`
	Timeline     *string `json:"ai_timeline"`
	Transmission *string `json:"ai_transmission"`
	NextSlot     string  `json:"next_slot,omitempty"`
	Complete     bool    `json:"complete"`
}

// errorResponse carries only the reply, matching the widget's error shape.
type errorResponse struct {
	Reply string `json:"ai_reply"`
}

// NewResponse maps an engine result to the wire shape.
func NewResponse(res qualify.Result) Response {
	out := Response{
		Reply:        res.Reply,
		Model:        optional(res.State.Get(qualify.SlotVehicle)),
		PaymentMode:  optional(res.State.Get(qualify.SlotPaymentMode)),
		Location:     optional(res.State.Get(qualify.SlotLocation)),
		Timeline:     optional(res.State.Get(qualify.SlotTimeline)),
		Transmission: optional(res.State.Get(qualify.SlotTransmission)),
		NextSlot:     string(res.Next),
		Complete:     res.Complete,
	}
	if raw := res.State.Get(qualify.SlotBudget); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.Budget = n
		} else {
			out.Budget = raw
		}
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
