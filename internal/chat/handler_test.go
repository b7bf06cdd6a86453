package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentacars/qualifier/internal/memory"
	"github.com/bentacars/qualifier/internal/observability/metrics"
	"github.com/bentacars/qualifier/internal/qualify"
	"github.com/bentacars/qualifier/pkg/logging"
)

func newTestHandler(t *testing.T, store memory.Store) *Handler {
	t.Helper()
	engine := qualify.NewEngine(qualify.DefaultConfig(), qualify.WithLogger(logging.Discard().Slog()))
	return NewHandler(engine, store, metrics.NewTurnMetrics(prometheus.NewRegistry()), logging.Discard())
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr, out
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	assert.JSONEq(t, `{"ai_reply":"Method not allowed."}`, rr.Body.String())
}

func TestHandlerMissingFields(t *testing.T) {
	h := newTestHandler(t, nil)
	for _, body := range []string{`{"user":"u1"}`, `{"message":"vios"}`, `{"message":"  ","user":"u1"}`, ``} {
		rr, out := post(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, ReplyMissingFields, out["ai_reply"], body)
	}
}

func TestHandlerInvalidBody(t *testing.T) {
	h := newTestHandler(t, nil)
	rr, out := post(t, h, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ReplyInvalidBody, out["ai_reply"])
}

func TestHandlerModelOnly(t *testing.T) {
	h := newTestHandler(t, nil)
	rr, out := post(t, h, `{"message":"vios","user":12345}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Noted sa Vios. Cash or financing ang plano mo?", out["ai_reply"])
	assert.Equal(t, "sedan", out["ai_model"])
	assert.Nil(t, out["ai_budget"])
	assert.Nil(t, out["ai_payment_mode"])
	assert.Equal(t, "payment_mode", out["next_slot"])
	assert.Equal(t, false, out["complete"])
}

func TestHandlerCarriesMemoryFields(t *testing.T) {
	h := newTestHandler(t, nil)
	body := `{
		"message": "this week",
		"user": "u1",
		"name": "Juan",
		"ai_model": "sedan",
		"ai_payment_mode": "{{cuf_payment}}",
		"ai_budget": 600000,
		"ai_location": "Quezon City"
	}`
	rr, out := post(t, h, body)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 600000.0, out["ai_budget"])
	assert.Equal(t, "this week", out["ai_timeline"])
	assert.Nil(t, out["ai_payment_mode"], "template placeholders are unknown")
	assert.Equal(t, "payment_mode", out["next_slot"])
}

func TestHandlerComplete(t *testing.T) {
	h := newTestHandler(t, nil)
	body := `{"message":"ok po","user":"u1","name":"Ana","ai_model":"suv","ai_payment_mode":"financing","ai_budget":"150k","ai_location":"Cebu","ai_timeline":"next month"}`
	rr, out := post(t, h, body)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, out["complete"])
	assert.NotContains(t, out, "next_slot")
	assert.Equal(t, 150000.0, out["ai_budget"])
	assert.Contains(t, out["ai_reply"], "Salamat, Ana!")
	assert.NotContains(t, out["ai_reply"], "?")
}

func TestHandlerNeverLeaksForbiddenTerms(t *testing.T) {
	h := newTestHandler(t, nil)
	for _, msg := range []string{"vios", "what segment po kayo?", "target monthly ko 10k", "reset"} {
		_, out := post(t, h, `{"message":"`+msg+`","user":"u1"}`)
		reply := strings.ToLower(out["ai_reply"].(string))
		assert.NotContains(t, reply, "segment")
		assert.NotContains(t, reply, "target monthly")
	}
}

type failingEngine struct{}

func (failingEngine) Handle(context.Context, qualify.Turn) (qualify.Result, error) {
	return qualify.Result{}, errors.New("unexpected")
}

func TestHandlerInternalError(t *testing.T) {
	h := NewHandler(failingEngine{}, nil, nil, logging.Discard())
	rr, out := post(t, h, `{"message":"vios","user":"u1"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ReplyInternalError, out["ai_reply"])
}

func TestHandlerHydratesAndSavesMemory(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.NewRedisStore(client, time.Hour, nil)
	h := newTestHandler(t, store)

	_, out := post(t, h, `{"message":"vios","user":"u1"}`)
	assert.Equal(t, "payment_mode", out["next_slot"])

	_, out = post(t, h, `{"message":"cash, 600k","user":"u1"}`)
	assert.Equal(t, "sedan", out["ai_model"], "vehicle comes back from stored memory")
	assert.Equal(t, "cash", out["ai_payment_mode"])
	assert.Equal(t, "location", out["next_slot"])

	state, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "600000", state.Get(qualify.SlotBudget))

	_, out = post(t, h, `{"message":"reset","user":"u1"}`)
	assert.Equal(t, "vehicle", out["next_slot"])
	assert.False(t, mr.Exists("slots:u1"))
}

func TestHandlerLayersStoredMemoryUnderSentFields(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.NewRedisStore(client, time.Hour, nil)
	require.NoError(t, store.Save(context.Background(), "u1", qualify.SlotState{
		qualify.SlotVehicle:     "sedan",
		qualify.SlotPaymentMode: "financing",
		qualify.SlotBudget:      "150000",
		qualify.SlotTimeline:    "next month",
	}))
	h := newTestHandler(t, store)

	_, out := post(t, h, `{"message":"hi","user":"u1","ai_model":"suv"}`)
	assert.Equal(t, "suv", out["ai_model"], "sent field wins over stored memory")
	assert.Equal(t, "financing", out["ai_payment_mode"])
	assert.Equal(t, "next month", out["ai_timeline"])
	assert.Equal(t, "location", out["next_slot"])

	state, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "suv", state.Get(qualify.SlotVehicle))
	assert.Equal(t, "financing", state.Get(qualify.SlotPaymentMode))
	assert.Equal(t, "150000", state.Get(qualify.SlotBudget))
	assert.Equal(t, "next month", state.Get(qualify.SlotTimeline))
}

func TestHandlerSurvivesStoreOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()
	h := newTestHandler(t, memory.NewRedisStore(client, time.Hour, nil))

	rr, out := post(t, h, `{"message":"vios","user":"u1"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "payment_mode", out["next_slot"])
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"vios"`, "vios"},
		{`600000`, "600000"},
		{`1.5`, "1.5"},
		{`null`, ""},
		{`true`, ""},
		{`{"a":1}`, ""},
		{`[1]`, ""},
	}
	for _, tt := range tests {
		var f FlexString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, f.String(), tt.in)
	}
}
