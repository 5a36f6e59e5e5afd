package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/usecase"
)

type memoryRosterRepo struct {
	saved *domain.Roster
}

func (m *memoryRosterRepo) Load(ctx context.Context) (*domain.Roster, error) {
	if m.saved == nil {
		return domain.NewRoster(), nil
	}
	return m.saved.Clone(), nil
}

func (m *memoryRosterRepo) Save(ctx context.Context, roster *domain.Roster) error {
	m.saved = roster.Clone()
	return nil
}

func (m *memoryRosterRepo) Close() error { return nil }

type recordingMessageRepo struct {
	mu      sync.Mutex
	sent    map[string][]string
	failFor map[string]bool
}

func (m *recordingMessageRepo) SendText(ctx context.Context, recipientID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[recipientID] {
		return errors.New("delivery failed")
	}
	m.sent[recipientID] = append(m.sent[recipientID], text)
	return nil
}

func (m *recordingMessageRepo) GetFileReference(ctx context.Context, msgID, fileKey string) (string, error) {
	return "", errors.New("not used here")
}

func newTestServer(t *testing.T) (*Server, *usecase.RosterUsecase, *recordingMessageRepo) {
	t.Helper()
	rosterUC := usecase.NewRosterUsecase(&memoryRosterRepo{})
	require.NoError(t, rosterUC.Load(context.Background()))

	msgRepo := &recordingMessageRepo{sent: make(map[string][]string), failFor: make(map[string]bool)}
	broadcastUC := usecase.NewBroadcastUsecase(rosterUC, msgRepo)
	return NewServer(rosterUC, broadcastUC, 0), rosterUC, msgRepo
}

func TestHandleHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleStudents_GroupedInRegistrationOrder(t *testing.T) {
	s, rosterUC, _ := newTestServer(t)
	ctx := context.Background()
	_, _ = rosterUC.Register(ctx, "ou_a", "Ann", "Ames", "Beginners")
	_, _ = rosterUC.Register(ctx, "ou_b", "Bob", "Bray", "Advanced")
	_, _ = rosterUC.Register(ctx, "ou_c", "Cid", "Carr", "Beginners")

	rec := httptest.NewRecorder()
	s.handleStudents(rec, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Groups []struct {
			Group    string `json:"group"`
			Students []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"students"`
		} `json:"groups"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	require.Equal(t, 3, resp.Total)
	require.Len(t, resp.Groups, 2)
	require.Equal(t, "Beginners", resp.Groups[0].Group)
	require.Len(t, resp.Groups[0].Students, 2)
	require.Equal(t, "Ann", resp.Groups[0].Students[0].Name)
	require.Equal(t, "Advanced", resp.Groups[1].Group)
}

func TestHandleSend(t *testing.T) {
	s, rosterUC, msgRepo := newTestServer(t)
	_, _ = rosterUC.Register(context.Background(), "ou_a", "Ann", "Ames", "Beginners")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{"student_id":1,"text":"hello"}`))
	s.handleSend(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"hello"}, msgRepo.sent["ou_a"])
}

func TestHandleSend_UnknownStudent(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{"student_id":42,"text":"hello"}`))
	s.handleSend(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSend_DeliveryFailure(t *testing.T) {
	s, rosterUC, msgRepo := newTestServer(t)
	_, _ = rosterUC.Register(context.Background(), "ou_a", "Ann", "Ames", "Beginners")
	msgRepo.failFor["ou_a"] = true

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{"student_id":1,"text":"hello"}`))
	s.handleSend(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSendGroup(t *testing.T) {
	s, rosterUC, msgRepo := newTestServer(t)
	ctx := context.Background()
	_, _ = rosterUC.Register(ctx, "ou_a", "Ann", "Ames", "Beginners")
	_, _ = rosterUC.Register(ctx, "ou_b", "Bob", "Bray", "Advanced")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send_group", strings.NewReader(`{"group":"Beginners","text":"hi"}`))
	s.handleSendGroup(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sent":1,"failed":0}`, rec.Body.String())
	require.Empty(t, msgRepo.sent["ou_b"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/send_group", strings.NewReader(`{"group":"Nope","text":"hi"}`))
	s.handleSendGroup(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSendAll(t *testing.T) {
	s, rosterUC, msgRepo := newTestServer(t)
	ctx := context.Background()
	_, _ = rosterUC.Register(ctx, "ou_a", "Ann", "Ames", "Beginners")
	_, _ = rosterUC.Register(ctx, "ou_b", "Bob", "Bray", "Advanced")
	msgRepo.failFor["ou_b"] = true

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send_all", strings.NewReader(`{"text":"hi"}`))
	s.handleSendAll(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sent":1,"failed":1}`, rec.Body.String())
}

func TestMethodAndValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleStudents(rec, httptest.NewRequest(http.MethodPost, "/api/students", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	s.handleSendAll(rec, httptest.NewRequest(http.MethodPost, "/api/send_all", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.handleSend(rec, httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{"text":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
