package qualify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return NewEngine(DefaultConfig(), opts...)
}

func fullMemory() map[Slot]any {
	return map[Slot]any{
		SlotVehicle:     "sedan",
		SlotPaymentMode: "cash",
		SlotBudget:      600000,
		SlotLocation:    "Quezon City",
		SlotTimeline:    "this week",
	}
}

func TestHandleMalformedTurn(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		turn Turn
	}{
		{"missing message", Turn{User: "u1"}},
		{"blank message", Turn{Message: "   ", User: "u1"}},
		{"template message", Turn{Message: "{{message}}", User: "u1"}},
		{"missing user", Turn{Message: "vios"}},
		{"placeholder user", Turn{Message: "vios", User: "null"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Handle(context.Background(), tt.turn)
			assert.True(t, errors.Is(err, ErrMalformedTurn))
		})
	}
}

func TestScenarioModelOnly(t *testing.T) {
	e := newTestEngine()

	res, err := e.Handle(context.Background(), Turn{Message: "vios", User: "u1"})
	require.NoError(t, err)

	assert.Equal(t, SlotState{SlotVehicle: BodySedan}, res.State)
	assert.Equal(t, SlotPaymentMode, res.Next)
	assert.False(t, res.Complete)
	assert.Equal(t, "Noted sa Vios. Cash or financing ang plano mo?", res.Reply)
	assert.Equal(t, SourceScript, res.Source)
}

func TestScenarioSeveralSlotsAtOnce(t *testing.T) {
	e := newTestEngine()

	res, err := e.Handle(context.Background(), Turn{
		Message: "600k cash, QC, this week",
		User:    "u1",
		Memory:  map[Slot]any{SlotVehicle: "sedan"},
	})
	require.NoError(t, err)

	assert.Equal(t, BodySedan, res.State.Get(SlotVehicle))
	assert.Equal(t, PaymentCash, res.State.Get(SlotPaymentMode))
	assert.Equal(t, "600000", res.State.Get(SlotBudget))
	assert.Equal(t, "this week", res.State.Get(SlotTimeline))
	assert.False(t, res.State.Known(SlotLocation), "location is not inferred from text")
	assert.Equal(t, SlotLocation, res.Next)
	assert.Contains(t, res.Reply, "Saang city")
}

func TestScenarioModelYearIsNotBudget(t *testing.T) {
	e := newTestEngine()

	res, err := e.Handle(context.Background(), Turn{Message: "vios 2020 model, cash", User: "u1"})
	require.NoError(t, err)

	assert.Equal(t, BodySedan, res.State.Get(SlotVehicle))
	assert.Equal(t, PaymentCash, res.State.Get(SlotPaymentMode))
	assert.False(t, res.State.Known(SlotBudget))
	assert.Equal(t, SlotBudget, res.Next)
	assert.Contains(t, res.Reply, "cash budget")

	memory := map[Slot]any{}
	for slot, v := range res.State {
		memory[slot] = v
	}
	res, err = e.Handle(context.Background(), Turn{Message: "mga 700k po", User: "u1", Memory: memory})
	require.NoError(t, err)
	assert.Equal(t, "700000", res.State.Get(SlotBudget))
	assert.Equal(t, SlotLocation, res.Next)
}

func TestScenarioReset(t *testing.T) {
	e := newTestEngine()

	for _, msg := range []string{"reset", "palit unit, fortuner na lang 800k cash"} {
		t.Run(msg, func(t *testing.T) {
			res, err := e.Handle(context.Background(), Turn{Message: msg, User: "u1", Memory: fullMemory()})
			require.NoError(t, err)

			assert.True(t, res.Reset)
			assert.True(t, res.State.Empty())
			assert.Equal(t, SlotVehicle, res.Next)
			assert.True(t, strings.HasPrefix(res.Reply, "Sige, simula ulit tayo!"))
			assert.Equal(t, 1, strings.Count(res.Reply, "?"))
		})
	}
}

func TestScenarioComplete(t *testing.T) {
	e := newTestEngine()
	turn := Turn{Message: "ok po", User: "u1", Name: "Juan", Memory: fullMemory()}

	first, err := e.Handle(context.Background(), turn)
	require.NoError(t, err)
	second, err := e.Handle(context.Background(), turn)
	require.NoError(t, err)

	assert.True(t, first.Complete)
	assert.Equal(t, Slot(""), first.Next)
	assert.Equal(t, first.Reply, second.Reply)
	assert.Equal(t, first.State, second.State)
	assert.NotContains(t, first.Reply, "?")
	assert.False(t, listingRE.MatchString(first.Reply))
	assert.Empty(t, e.extractor.ModelMentioned(Normalize(first.Reply)), "acknowledgment does not list units")
	assert.Contains(t, first.Reply, "Juan")
}

func TestHandleConversation(t *testing.T) {
	e := newTestEngine()
	memory := map[Slot]any{}
	steps := []struct {
		message string
		next    Slot
	}{
		{"hi po, naghahanap ako ng sasakyan", SlotVehicle},
		{"mga 7 seater sana", SlotPaymentMode},
		{"financing", SlotBudget},
		{"dp ko 150k", SlotLocation},
		{"next month siguro", SlotLocation},
	}
	for _, step := range steps {
		res, err := e.Handle(context.Background(), Turn{Message: step.message, User: "u1", Memory: memory})
		require.NoError(t, err)
		assert.Equal(t, step.next, res.Next, step.message)
		memory = map[Slot]any{}
		for slot, v := range res.State {
			memory[slot] = v
		}
	}
	assert.Equal(t, Body7Seater, memory[SlotVehicle])
	assert.Equal(t, PaymentFinancing, memory[SlotPaymentMode])
	assert.Equal(t, "150000", memory[SlotBudget])
	assert.Equal(t, "next month", memory[SlotTimeline])

	memory[SlotLocation] = "Pasig"
	res, err := e.Handle(context.Background(), Turn{Message: "pasig po", User: "u1", Memory: memory})
	require.NoError(t, err)
	assert.True(t, res.Complete)
}

func TestHandleBudgetQuestionFollowsPaymentMode(t *testing.T) {
	e := newTestEngine()

	res, err := e.Handle(context.Background(), Turn{Message: "financing", User: "u1", Memory: map[Slot]any{SlotVehicle: "suv"}})
	require.NoError(t, err)
	assert.Equal(t, SlotBudget, res.Next)
	assert.Contains(t, res.Reply, "downpayment")

	res, err = e.Handle(context.Background(), Turn{Message: "cash", User: "u1", Memory: map[Slot]any{SlotVehicle: "suv"}})
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "cash budget")
}

func TestHandlePaymentHintOnlyBiasesWording(t *testing.T) {
	e := newTestEngine()

	res, err := e.Handle(context.Background(), Turn{Message: "fortuner, magkano dp?", User: "u1"})
	require.NoError(t, err)

	assert.False(t, res.State.Known(SlotPaymentMode))
	assert.Equal(t, SlotPaymentMode, res.Next)
	assert.Contains(t, res.Reply, "Financing ba")
}

func TestHandleLocationFlags(t *testing.T) {
	memory := fullMemory()
	delete(memory, SlotLocation)

	cfg := DefaultConfig()
	cfg.LocationOptional = true
	e := NewEngine(cfg, WithLogger(discardLogger()))
	res, err := e.Handle(context.Background(), Turn{Message: "ok", User: "u1", Memory: memory})
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, SlotLocation, res.SoftAsk)
	assert.Equal(t, 1, strings.Count(res.Reply, "?"))

	cfg = DefaultConfig()
	cfg.InferLocation = true
	e = NewEngine(cfg, WithLogger(discardLogger()))
	res, err = e.Handle(context.Background(), Turn{Message: "taga qc ako", User: "u1", Memory: memory})
	require.NoError(t, err)
	assert.Equal(t, "Quezon City", res.State.Get(SlotLocation))
	assert.True(t, res.Complete)
}

func TestHandleForbiddenTermsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ForbiddenTerms = []string{"plano"}
	e := NewEngine(cfg, WithLogger(discardLogger()))

	res, err := e.Handle(context.Background(), Turn{Message: "sedan", User: "u1"})
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(res.Reply), "plano")
}

func TestHandleWithPhraser(t *testing.T) {
	var calls int
	var mu sync.Mutex
	p := phraserFunc(func(_ context.Context, req PhraseRequest) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		assert.Equal(t, SlotPaymentMode, req.Decision.Next)
		assert.Equal(t, BodySedan, req.State.Get(SlotVehicle))
		return "Ayos ang Vios! Cash or financing ba tayo?", nil
	})
	e := newTestEngine(WithPhraser(p))

	res, err := e.Handle(context.Background(), Turn{Message: "vios", User: "u1"})
	require.NoError(t, err)
	assert.Equal(t, SourcePhraser, res.Source)
	assert.Equal(t, "Ayos ang Vios! Cash or financing ba tayo?", res.Reply)
	assert.Equal(t, 1, calls)
}

func TestHandlePhraserTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhraseTimeout = 20 * time.Millisecond
	slow := phraserFunc(func(ctx context.Context, _ PhraseRequest) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "Cash or financing?", nil
		}
	})
	e := NewEngine(cfg, WithPhraser(slow), WithLogger(discardLogger()))

	res, err := e.Handle(context.Background(), Turn{Message: "vios", User: "u1"})
	require.NoError(t, err)
	assert.Equal(t, SourceScript, res.Source)
	assert.Equal(t, "timeout", res.FallbackReason)
	assert.Equal(t, "Noted sa Vios. Cash or financing ang plano mo?", res.Reply)
}

func TestHandleIsDeterministicAndConcurrent(t *testing.T) {
	e := newTestEngine()
	turn := Turn{Message: "innova, 1.2m cash", User: "u1", Memory: map[Slot]any{SlotLocation: "Cebu"}}
	want, err := e.Handle(context.Background(), turn)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Handle(context.Background(), turn)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, SlotTimeline, want.Next)
	assert.Equal(t, "1200000", want.State.Get(SlotBudget))
}
