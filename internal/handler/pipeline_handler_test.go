package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"adstudio-backend/internal/logging"
	"adstudio-backend/internal/models"
	"adstudio-backend/internal/service"
	"adstudio-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webhook-secret"

type mockStore struct {
	updates   []models.PipelineUpdate
	pipelines map[uuid.UUID]*models.Pipeline
	err       error
}

func (m *mockStore) GetPipeline(_ context.Context, id uuid.UUID) (*models.Pipeline, error) {
	if p, ok := m.pipelines[id]; ok {
		return p, nil
	}
	return nil, storage.ErrPipelineNotFound
}

func (m *mockStore) UpdatePipeline(_ context.Context, _ uuid.UUID, u models.PipelineUpdate) error {
	m.updates = append(m.updates, u)
	return m.err
}

type mockLedger struct {
	userIDs []uuid.UUID
	amounts []float64
	descs   []string
}

func (m *mockLedger) Refund(_ context.Context, userID uuid.UUID, amount float64, desc string) error {
	m.userIDs = append(m.userIDs, userID)
	m.amounts = append(m.amounts, amount)
	m.descs = append(m.descs, desc)
	return nil
}

type mockGuard struct {
	seen     map[string]bool
	released []string
	err      error
}

func (g *mockGuard) Claim(_ context.Context, key string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *mockGuard) Release(_ context.Context, key string) error {
	delete(g.seen, key)
	g.released = append(g.released, key)
	return nil
}

type fixture struct {
	store  *mockStore
	ledger *mockLedger
	guard  *mockGuard
	router http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		store:  &mockStore{},
		ledger: &mockLedger{},
		guard:  &mockGuard{seen: map[string]bool{}},
	}
	log := logging.Discard()
	ph := &PipelineHandler{
		Service: service.NewPipelineService(f.store, f.ledger, log),
		Secret:  testSecret,
		Guard:   f.guard,
		Log:     log,
	}
	f.router = NewRouter(RouterConfig{
		Pipelines: ph,
		Voices:    &VoicesHandler{Voices: &mockVoices{}, Log: log},
	})
	return f
}

func (f *fixture) post(body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/update-pipeline-status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeWebhook(t *testing.T, rec *httptest.ResponseRecorder) webhookResponse {
	t.Helper()
	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var authed = map[string]string{WebhookSecretHeader: testSecret}

func TestWebhookUnauthorized(t *testing.T) {
	body := `{"pipeline_id":"` + uuid.NewString() + `","stage":"script","status":"completed"}`

	for name, headers := range map[string]map[string]string{
		"missing": nil,
		"wrong":   {WebhookSecretHeader: "nope"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			rec := f.post(body, headers)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, webhookResponse{Success: false, Error: "Unauthorized"}, decodeWebhook(t, rec))
			assert.Empty(t, f.store.updates)
		})
	}
}

func TestWebhookMissingFields(t *testing.T) {
	f := newFixture()
	rec := f.post(`{"pipeline_id":"`+uuid.NewString()+`","status":"completed"}`, authed)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWebhook(t, rec)
	assert.False(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Error, "Missing required fields"))
	assert.Empty(t, f.store.updates)
}

func TestWebhookInvalidJSON(t *testing.T) {
	f := newFixture()
	rec := f.post(`{not json`, authed)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.store.updates)
}

func TestWebhookCompletedScript(t *testing.T) {
	f := newFixture()
	rec := f.post(`{"pipeline_id":"`+uuid.NewString()+`","stage":"script","status":"completed","script_text":"hi"}`, authed)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, webhookResponse{Success: true}, decodeWebhook(t, rec))

	require.Len(t, f.store.updates, 1)
	u := f.store.updates[0]
	require.NotNil(t, u.ScriptOutput)
	assert.Equal(t, "hi", u.ScriptOutput.Text)
	assert.True(t, *u.ScriptComplete)
	assert.Equal(t, models.PipelineDraft, *u.Status)
}

func TestWebhookFailedRefunds(t *testing.T) {
	f := newFixture()
	user := uuid.New()
	body := `{"pipeline_id":"` + uuid.NewString() + `","stage":"voice","status":"failed",` +
		`"error_message":"quota exceeded","user_id":"` + user.String() + `","credits_cost":5}`

	rec := f.post(body, authed)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.ledger.userIDs, 1)
	assert.Equal(t, user, f.ledger.userIDs[0])
	assert.Equal(t, 5.0, f.ledger.amounts[0])
	assert.Contains(t, f.ledger.descs[0], "voice")
	assert.Contains(t, f.ledger.descs[0], "quota exceeded")

	require.Len(t, f.store.updates, 1)
	u := f.store.updates[0]
	assert.Equal(t, models.PipelineDraft, *u.Status)
	assert.Nil(t, u.VoiceOutput)
	assert.Nil(t, u.VoiceComplete)
	assert.Nil(t, u.ScriptComplete)
	assert.Nil(t, u.FirstFrameComplete)
}

func TestWebhookStoreFailure(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("db down")

	rec := f.post(`{"pipeline_id":"`+uuid.NewString()+`","stage":"voice","status":"processing"}`,
		map[string]string{WebhookSecretHeader: testSecret, IdempotencyKeyHeader: "evt-9"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, webhookResponse{Success: false, Error: "Internal server error"}, decodeWebhook(t, rec))
	assert.Equal(t, []string{"evt-9"}, f.guard.released)
}

func TestWebhookPipelineNotFoundIsSuccess(t *testing.T) {
	f := newFixture()
	f.store.err = storage.ErrPipelineNotFound

	rec := f.post(`{"pipeline_id":"`+uuid.NewString()+`","stage":"script","status":"completed","script_text":"hi"}`,
		map[string]string{WebhookSecretHeader: testSecret, IdempotencyKeyHeader: "evt-7"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, webhookResponse{Success: true}, decodeWebhook(t, rec))
	assert.Empty(t, f.guard.released)
}

func TestWebhookValidationMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing stage", `{"pipeline_id":"` + uuid.NewString() + `","status":"completed"}`, "Missing required fields: pipeline_id, stage, status"},
		{"bad status", `{"pipeline_id":"` + uuid.NewString() + `","stage":"voice","status":"queued"}`, "Invalid status: must be one of processing, completed, failed"},
		{"bad id", `{"pipeline_id":"abc","stage":"voice","status":"failed"}`, "Invalid pipeline_id: must be a UUID"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture()
			rec := f.post(c.body, authed)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, webhookResponse{Success: false, Error: c.want}, decodeWebhook(t, rec))
			assert.Empty(t, f.store.updates)
		})
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	f := newFixture()
	body := `{"pipeline_id":"` + uuid.NewString() + `","stage":"first_frame","status":"completed","output_url":"https://cdn.example.com/a.png"}`
	headers := map[string]string{WebhookSecretHeader: testSecret, IdempotencyKeyHeader: "evt-1"}

	assert.Equal(t, http.StatusOK, f.post(body, headers).Code)
	assert.Equal(t, http.StatusOK, f.post(body, headers).Code)
	assert.Len(t, f.store.updates, 1)

	// Without a key duplicates overwrite the same fields again.
	assert.Equal(t, http.StatusOK, f.post(body, authed).Code)
	assert.Equal(t, http.StatusOK, f.post(body, authed).Code)
	assert.Len(t, f.store.updates, 3)
}

func TestWebhookGuardErrorStillApplies(t *testing.T) {
	f := newFixture()
	f.guard.err = errors.New("redis down")

	rec := f.post(`{"pipeline_id":"`+uuid.NewString()+`","stage":"script","status":"processing"}`,
		map[string]string{WebhookSecretHeader: testSecret, IdempotencyKeyHeader: "evt-2"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.store.updates, 1)
}

func TestWebhookPreflight(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/update-pipeline-status", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type, x-webhook-secret")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Webhook-Secret")
}

func TestGetPipeline(t *testing.T) {
	f := newFixture()
	id, owner := uuid.New(), uuid.New()
	f.store.pipelines = map[uuid.UUID]*models.Pipeline{
		id: {ID: id, UserID: owner, Status: models.PipelineProcessing, CurrentStage: models.StageVoice},
	}

	get := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pipelines/"+id.String(), nil)
		if userID != "" {
			req.Header.Set(UserIDHeader, userID)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	rec := get(owner.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Pipeline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.PipelineProcessing, p.Status)

	assert.Equal(t, http.StatusNotFound, get(uuid.NewString()).Code)
	assert.Equal(t, http.StatusUnauthorized, get("").Code)
}
