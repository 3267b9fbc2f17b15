package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence/file"
	"github.com/dukex/atelier/pkg/services"
	"github.com/dukex/atelier/pkg/sessions"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	persistence := file.NewPersistence(t.TempDir())
	workflowService := services.NewWorkflow(persistence, nil, logger)
	editorService := services.NewEditor(sessions.NewStore(time.Minute), workflowService, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	app := fiber.New()
	web.NewAPIHandlers(workflowService, editorService, validate).Register(app)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(data, &value), string(data))

	return value
}

func openSession(t *testing.T, app *fiber.App, body any) services.Snapshot {
	t.Helper()

	status, data := doRequest(t, app, http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, status, string(data))

	return decode[services.Snapshot](t, data)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, data := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, data)["status"])
}

func TestAPIHandlers_Catalog(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, data := doRequest(t, app, http.MethodGet, "/step-types", nil)
	require.Equal(t, http.StatusOK, status)

	components := decode[[]models.RegisteredComponent](t, data)
	require.Len(t, components, 7)
	assert.Equal(t, "approval", components[0].Type)

	status, data = doRequest(t, app, http.MethodGet, "/step-types/delay", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"duration": float64(1), "unit": "days"},
		decode[models.RegisteredComponent](t, data).DefaultConfig)

	status, _ = doRequest(t, app, http.MethodGet, "/step-types/teleport", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, data = doRequest(t, app, http.MethodGet, "/trigger-types", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.RegisteredComponent](t, data), 5)

	status, data = doRequest(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, data), 3)
}

func TestAPIHandlers_OpenSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           any
		expectedStatus int
		steps          int
	}{
		{name: "blank without body", body: nil, expectedStatus: http.StatusCreated},
		{name: "blank", body: web.OpenSessionRequest{CreatedBy: "marie"}, expectedStatus: http.StatusCreated},
		{name: "template", body: web.OpenSessionRequest{Template: "validation-devis"}, expectedStatus: http.StatusCreated, steps: 3},
		{name: "unknown template", body: web.OpenSessionRequest{Template: "inconnu"}, expectedStatus: http.StatusNotFound},
		{name: "unknown workflow", body: web.OpenSessionRequest{WorkflowID: "missing"}, expectedStatus: http.StatusNotFound},
		{name: "both sources", body: web.OpenSessionRequest{WorkflowID: "a", Template: "b"}, expectedStatus: http.StatusBadRequest},
		{name: "invalid JSON", body: "{", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			status, data := doRequest(t, app, http.MethodPost, "/sessions", tt.body)
			require.Equal(t, tt.expectedStatus, status, string(data))

			if status == http.StatusCreated {
				snap := decode[services.Snapshot](t, data)
				assert.NotEmpty(t, snap.SessionID)
				assert.Len(t, snap.Steps, tt.steps)
				assert.NotEmpty(t, snap.Triggers)
			}
		})
	}
}

func TestAPIHandlers_BuildAndSaveWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	snap := openSession(t, app, web.OpenSessionRequest{CreatedBy: "marie"})
	base := "/sessions/" + snap.SessionID

	// An empty workflow is rejected with the violation list.
	status, data := doRequest(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := decode[map[string]any](t, data)
	assert.Equal(t, "structural_violation", problem["type"])
	assert.EqualValues(t, http.StatusUnprocessableEntity, problem["status"])
	assert.Equal(t, "Le workflow ne peut pas être enregistré", problem["detail"])
	assert.Len(t, problem["violations"], 3)

	status, _ = doRequest(t, app, http.MethodPatch, base, map[string]string{
		"name":     "Onboarding salarié",
		"category": "hr",
	})
	require.Equal(t, http.StatusOK, status)

	status, data = doRequest(t, app, http.MethodPost, base+"/steps", web.AddStepRequest{Type: "task"})
	require.Equal(t, http.StatusCreated, status)

	task := decode[models.Step](t, data)
	assert.Equal(t, "New step 1", task.Name)
	assert.Equal(t, models.Position{X: 100, Y: 100}, task.Position)

	status, data = doRequest(t, app, http.MethodPost, base+"/steps", web.AddStepRequest{Type: "approval"})
	require.Equal(t, http.StatusCreated, status)

	approval := decode[models.Step](t, data)

	status, data = doRequest(t, app, http.MethodGet, base+"/validation", nil)
	require.Equal(t, http.StatusOK, status)

	report := decode[web.ValidationResponse](t, data)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"1 étape(s) orpheline(s) : aucune connexion entrante"}, report.Messages)

	status, data = doRequest(t, app, http.MethodPost, base+"/connections", web.ConnectionRequest{Source: task.ID, Target: approval.ID})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, decode[web.ConnectionResponse](t, data).Changed)

	status, data = doRequest(t, app, http.MethodPost, base+"/connections", web.ConnectionRequest{Source: task.ID, Target: approval.ID})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[web.ConnectionResponse](t, data).Changed)
	assert.Len(t, decode[web.ConnectionResponse](t, data).Connections, 1)

	status, data = doRequest(t, app, http.MethodPatch, base+"/steps/"+approval.ID, map[string]any{
		"name":   "Validation manager",
		"config": map[string]any{"approvers": []string{"manager"}},
	})
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, models.ApprovalConfig{Approvers: []string{"manager"}, TimeoutDays: 3}, decode[models.Step](t, data).Config)

	status, data = doRequest(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusCreated, status, string(data))

	saved := decode[web.SaveResponse](t, data)
	assert.True(t, saved.Created)
	assert.NotEmpty(t, saved.Workflow.ID)
	assert.Equal(t, "marie", saved.Workflow.CreatedBy)
	assert.Equal(t, saved.Workflow.ID, saved.Session.ID)

	status, data = doRequest(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, saved.Workflow.ID, decode[web.SaveResponse](t, data).Workflow.ID)

	status, data = doRequest(t, app, http.MethodGet, "/workflows/"+saved.Workflow.ID, nil)
	require.Equal(t, http.StatusOK, status)

	stored := decode[models.WorkflowRecord](t, data)
	assert.Equal(t, []string{approval.ID}, stored.Steps[0].NextSteps)

	status, data = doRequest(t, app, http.MethodGet, "/workflows?category=hr", nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 1, decode[map[string]any](t, data)["totalCount"], 0)
}

func TestAPIHandlers_SessionEdits(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	snap := openSession(t, app, web.OpenSessionRequest{Template: "onboarding-salarie"})
	base := "/sessions/" + snap.SessionID
	first, second := snap.Steps[0].ID, snap.Steps[1].ID

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"unknown step type", http.MethodPost, base + "/steps", web.AddStepRequest{Type: "teleport"}, http.StatusBadRequest},
		{"invalid step config", http.MethodPatch, base + "/steps/" + first, map[string]any{"config": map[string]any{"outputFormat": "odt"}}, http.StatusBadRequest},
		{"unknown config field", http.MethodPatch, base + "/steps/" + first, map[string]any{"config": map[string]any{"colour": "red"}}, http.StatusBadRequest},
		{"missing step", http.MethodPatch, base + "/steps/missing", map[string]any{"name": "x"}, http.StatusNotFound},
		{"missing connection target", http.MethodPost, base + "/connections", map[string]string{"source": first}, http.StatusBadRequest},
		{"remove connection", http.MethodDelete, base + "/connections/" + first + "/" + second, nil, http.StatusOK},
		{"remove absent connection", http.MethodDelete, base + "/connections/" + first + "/" + second, nil, http.StatusOK},
		{"remove step", http.MethodDelete, base + "/steps/" + second, nil, http.StatusNoContent},
		{"remove missing step", http.MethodDelete, base + "/steps/missing", nil, http.StatusNoContent},
		{"add trigger", http.MethodPost, base + "/triggers", web.AddTriggerRequest{Type: "scheduled"}, http.StatusCreated},
		{"add unknown trigger", http.MethodPost, base + "/triggers", web.AddTriggerRequest{Type: "webhook"}, http.StatusBadRequest},
		{"replace triggers", http.MethodPut, base + "/triggers", []web.TriggerRequest{{Type: "api"}}, http.StatusOK},
		{"replace with invalid cron", http.MethodPut, base + "/triggers", []web.TriggerRequest{{Type: "scheduled", Config: map[string]any{"schedule": "jamais"}}}, http.StatusBadRequest},
		{"missing trigger", http.MethodPatch, base + "/triggers/missing", map[string]any{"config": map[string]any{}}, http.StatusNotFound},
		{"unknown session", http.MethodGet, "/sessions/missing", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		status, data := doRequest(t, app, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.expectedStatus, status, "%s: %s", tt.name, string(data))
	}

	status, data := doRequest(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)

	current := decode[services.Snapshot](t, data)
	assert.Len(t, current.Steps, 3)
	require.Len(t, current.Triggers, 1)
	assert.Equal(t, models.TriggerTypeAPI, current.Triggers[0].Type)

	status, _ = doRequest(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_WorkflowStatus(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	snap := openSession(t, app, web.OpenSessionRequest{Template: "relance-facture"})

	status, data := doRequest(t, app, http.MethodPost, "/sessions/"+snap.SessionID+"/save", nil)
	require.Equal(t, http.StatusCreated, status)

	id := decode[web.SaveResponse](t, data).Workflow.ID

	tests := []struct {
		status         string
		expectedStatus int
	}{
		{"active", http.StatusOK},
		{"running", http.StatusBadRequest},
		{"archived", http.StatusOK},
		{"draft", http.StatusConflict},
	}

	for _, tt := range tests {
		status, data := doRequest(t, app, http.MethodPatch, "/workflows/"+id+"/status", web.ChangeStatusRequest{Status: tt.status})
		assert.Equal(t, tt.expectedStatus, status, "%s: %s", tt.status, string(data))
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/workflows/missing/status", web.ChangeStatusRequest{Status: "active"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_ValidateWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	document := `{
		"name": "Relance",
		"category": "finance",
		"status": "draft",
		"steps": [
			{"id": "a", "name": "Attente", "type": "delay", "config": {"duration": 2, "unit": "days"}, "nextSteps": []},
			{"id": "b", "name": "Relance", "type": "notification", "config": {"channel": "email"}, "nextSteps": []}
		],
		"triggers": [{"id": "t", "type": "manual", "config": {"roles": []}}]
	}`

	status, data := doRequest(t, app, http.MethodPost, "/workflows/validate", document)
	require.Equal(t, http.StatusOK, status, string(data))

	report := decode[web.ValidationResponse](t, data)
	assert.False(t, report.Valid)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, validation.CodeOrphanSteps, report.Violations[0].Code)
	assert.Equal(t, 1, report.Violations[0].Count)

	status, data = doRequest(t, app, http.MethodGet, "/workflows?sort_by=owner", nil)
	assert.Equal(t, http.StatusBadRequest, status, string(data))

	status, _ = doRequest(t, app, http.MethodGet, "/workflows?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
