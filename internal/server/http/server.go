package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/plancheck/plancheck/internal/app"
	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/persist"
	"github.com/plancheck/plancheck/internal/schedule"
	"github.com/plancheck/plancheck/internal/voice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

// Server exposes the schedule store mutations over HTTP; it stands where
// the original UI layer stood.
type Server struct {
	srv    *http.Server
	addr   string
	app    *app.App
	bridge *voice.Bridge
}

func NewServer(config Config, a *app.App, bridge *voice.Bridge) *Server {
	return &Server{
		addr:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		srv:    &http.Server{Addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port))},
		app:    a,
		bridge: bridge,
	}
}

func (s *Server) Start(_ context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /schedules", s.handleList)
	mux.HandleFunc("GET /schedules/scheduled", s.handleScheduled)
	mux.HandleFunc("GET /schedules/undecided", s.handleUndecided)
	mux.HandleFunc("POST /schedules", s.handleCreate)
	mux.HandleFunc("GET /schedules/{id}", s.handleGet)
	mux.HandleFunc("PUT /schedules/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /schedules/{id}", s.handleRemove)
	mux.HandleFunc("DELETE /schedules", s.handleClear)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handlePutSettings)
	mux.HandleFunc("GET /reminders", s.handleReminders)
	mux.HandleFunc("POST /voice", s.handleVoice)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv.Handler = loggingMiddleware(mux)

	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": s.app.ListSchedules(r.Context())})
}

func (s *Server) handleScheduled(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": s.app.ScheduledSchedules(r.Context())})
}

func (s *Server) handleUndecided(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": s.app.UndecidedSchedules(r.Context())})
}

// handleCreate adds a schedule; an empty body creates the dialog default
// (next full hour, one hour long).
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	if len(body) == 0 {
		created, err := s.app.CreateDefault(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"schedule": created})
		return
	}

	var e schedule.Schedule
	if err := json.Unmarshal(body, &e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.app.CreateSchedule(r.Context(), e)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.app.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"schedule": created})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.app.GetSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedule": e})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var e schedule.Schedule
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.app.UpdateSchedule(r.Context(), r.PathValue("id"), e); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.app.RemoveSchedule(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text, err := s.app.ExportText(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(text))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.app.ImportText(r.Context(), string(body)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type settingsResponse struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	Permission           string `json:"permission"`
}

type settingsRequest struct {
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	Permission           *string `json:"permission"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		NotificationsEnabled: s.app.Settings(r.Context()).NotificationsEnabled,
		Permission:           string(s.app.Permission()),
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Permission != nil {
		switch p := notify.Permission(*req.Permission); p {
		case notify.PermissionGranted, notify.PermissionDenied, notify.PermissionDefault:
			s.app.SetPermission(r.Context(), p)
		default:
			http.Error(w, fmt.Sprintf("unknown permission %q", *req.Permission), http.StatusBadRequest)
			return
		}
	}
	if req.NotificationsEnabled != nil {
		if err := s.app.SetNotificationsEnabled(r.Context(), *req.NotificationsEnabled); err != nil {
			writeError(w, err)
			return
		}
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"pending": s.app.PendingReminders()})
}

type voiceRequest struct {
	Utterance string `json:"utterance"`
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		http.Error(w, "voice commands are not configured", http.StatusServiceUnavailable)
		return
	}
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.bridge.Handle(r.Context(), req.Utterance)
	if errors.Is(err, voice.ErrNoCommand) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"intent": "None"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Schedule != nil {
		id, err := s.app.CreateSchedule(r.Context(), *result.Schedule)
		if err != nil {
			writeError(w, err)
			return
		}
		created, err := s.app.GetSchedule(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		result.Schedule = &created
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFoundSchedule):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, schedule.ErrIncorrectScheduleTime),
		errors.Is(err, schedule.ErrHeldReminder),
		errors.Is(err, schedule.ErrIncorrectRemindLead),
		errors.Is(err, schedule.ErrDuplicateScheduleID),
		errors.Is(err, persist.ErrBadFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
