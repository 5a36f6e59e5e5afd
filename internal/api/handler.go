package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/usecase"
)

// Server provides the ops HTTP API: roster inspection and broadcasts without
// going through the chat transport. Consumed by the relay-mcp sidecar.
type Server struct {
	rosterUC    *usecase.RosterUsecase
	broadcastUC *usecase.BroadcastUsecase

	server *http.Server
	port   int
}

// NewServer creates a new API server.
func NewServer(rosterUC *usecase.RosterUsecase, broadcastUC *usecase.BroadcastUsecase, port int) *Server {
	return &Server{
		rosterUC:    rosterUC,
		broadcastUC: broadcastUC,
		port:        port,
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/students", s.handleStudents)
	mux.HandleFunc("/api/send_all", s.handleSendAll)
	mux.HandleFunc("/api/send_group", s.handleSendGroup)
	mux.HandleFunc("/api/send", s.handleSend)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// studentView is the API shape of a participant.
type studentView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Group   string `json:"group"`
}

// handleStudents returns the roster grouped by group, groups in
// first-registration order.
func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	participants := s.rosterUC.Snapshot()
	byGroup := lo.GroupBy(participants, func(p domain.Participant) string { return p.Group })
	groupOrder := lo.Uniq(lo.Map(participants, func(p domain.Participant, _ int) string { return p.Group }))

	type groupView struct {
		Group    string        `json:"group"`
		Students []studentView `json:"students"`
	}

	groups := make([]groupView, 0, len(groupOrder))
	for _, g := range groupOrder {
		groups = append(groups, groupView{
			Group: g,
			Students: lo.Map(byGroup[g], func(p domain.Participant, _ int) studentView {
				return studentView{ID: p.ID, Name: p.Name, Surname: p.Surname, Group: p.Group}
			}),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "total": len(participants)})
}

type sendAllRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req sendAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	sent, failed := s.broadcastUC.SendToAll(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}

type sendRequest struct {
	StudentID int64  `json:"student_id"`
	Text      string `json:"text"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" || req.StudentID == 0 {
		writeError(w, http.StatusBadRequest, "student_id and text are required")
		return
	}

	err := s.broadcastUC.SendToOne(r.Context(), req.StudentID, req.Text)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown student id")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "delivery failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": 1, "failed": 0})
}

type sendGroupRequest struct {
	Group string `json:"group"`
	Text  string `json:"text"`
}

func (s *Server) handleSendGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req sendGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" || req.Group == "" {
		writeError(w, http.StatusBadRequest, "group and text are required")
		return
	}

	sent, failed, err := s.broadcastUC.SendToGroup(r.Context(), req.Group, req.Text)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown group")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
