package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/player"
)

// Controller is the part of the player exposed to operators.
type Controller interface {
	HandleMessage(ctx context.Context, m player.Message) error
	Status() player.Status
	Elements() []player.ElementStatus
}

var controller Controller

// SetController sets the player used by the status and operator endpoints.
func SetController(c Controller) {
	controller = c
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "scenario-player",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventsHandler returns the in-memory event buffer, or the persisted
// history when called with ?source=db.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("source") != "db" {
		writeJSON(w, http.StatusOK, events.Snapshot())
		return
	}

	client := events.GetPostgresClient()
	if client == nil {
		writeJSON(w, http.StatusServiceUnavailable, OperatorResponse{OK: false, Error: "persistence disabled"})
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "invalid limit"})
			return
		}
		limit = n
	}

	rows, err := client.Query(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, OperatorResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	if controller == nil {
		writeJSON(w, http.StatusServiceUnavailable, OperatorResponse{OK: false, Error: "player not running"})
		return
	}
	writeJSON(w, http.StatusOK, controller.Status())
}

func elementsHandler(w http.ResponseWriter, r *http.Request) {
	if controller == nil {
		writeJSON(w, http.StatusServiceUnavailable, OperatorResponse{OK: false, Error: "player not running"})
		return
	}
	writeJSON(w, http.StatusOK, controller.Elements())
}

type ControlRequest struct {
	Command string  `json:"command"`
	DT      float64 `json:"dt,omitempty"`
}

type OperatorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func operatorControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, OperatorResponse{OK: false, Error: "method not allowed"})
		return
	}

	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "invalid JSON"})
		return
	}

	switch req.Command {
	case player.MsgPlay, player.MsgPause, player.MsgStep, player.MsgStepDT, player.MsgQuit, player.MsgRestart:
	case "":
		writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "command required"})
		return
	default:
		writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "unknown command: " + req.Command})
		return
	}

	msg := player.Message{Type: req.Command, DT: req.DT}
	if !dispatch(w, r, msg) {
		return
	}

	events.Emit("info", "operator.control", "", map[string]interface{}{
		"command": req.Command,
	})
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func operatorInjectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, OperatorResponse{OK: false, Error: "method not allowed"})
		return
	}

	var msg player.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "invalid JSON"})
		return
	}

	switch msg.Type {
	case player.MsgSpeed, player.MsgLaneChange, player.MsgLaneOffset:
	default:
		writeJSON(w, http.StatusBadRequest, OperatorResponse{OK: false, Error: "not an injectable action: " + msg.Type})
		return
	}

	if !dispatch(w, r, msg) {
		return
	}

	events.Emit("info", "operator.inject", "", map[string]interface{}{
		"type":      msg.Type,
		"entity_id": msg.EntityID,
	})
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

// dispatch hands msg to the player and writes the error response on failure.
func dispatch(w http.ResponseWriter, r *http.Request, msg player.Message) bool {
	if controller == nil {
		writeJSON(w, http.StatusServiceUnavailable, OperatorResponse{OK: false, Error: "player not running"})
		return false
	}
	if err := controller.HandleMessage(r.Context(), msg); err != nil {
		writeJSON(w, errorStatus(err), OperatorResponse{OK: false, Error: err.Error()})
		return false
	}
	return true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, player.ErrDuplicateAction):
		return http.StatusConflict
	case errors.Is(err, player.ErrUnknownEntity):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewMux builds the HTTP routes. Read-only endpoints stay open; the event
// history and operator endpoints require credentials when auth is enabled.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/status", statusHandler)
	mux.HandleFunc("/elements", elementsHandler)
	mux.HandleFunc("/events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("/ws/events", RequireAnyRole(wsEventsHandler))
	mux.HandleFunc("/operator/control", RequireAnyRole(operatorControlHandler))
	mux.HandleFunc("/operator/inject", RequireAnyRole(operatorInjectHandler))
	return mux
}

// ListenAndServe starts the API server on the given port.
// It blocks until the server exits.
func ListenAndServe(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if tc := LoadTLSConfig(); tc != nil {
		srv.TLSConfig = tc
		log.Printf("API listening on %s (tls)\n", srv.Addr)
		return srv.ListenAndServeTLS("", "")
	}

	log.Printf("API listening on %s\n", srv.Addr)
	return srv.ListenAndServe()
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func Start(port int) {
	go func() {
		if err := ListenAndServe(port); err != nil {
			log.Printf("api server error: %v", err)
		}
	}()
}
