package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/gridrunner/game/config"
	"github.com/wricardo/mcp-training/gridrunner/game/engine"
	"github.com/wricardo/mcp-training/gridrunner/game/program"
	"github.com/wricardo/mcp-training/gridrunner/game/service"
	"github.com/wricardo/mcp-training/gridrunner/game/session"
	"github.com/wricardo/mcp-training/gridrunner/transport/websocket"
)

// maxProgramBody caps the size of an uploaded program
const maxProgramBody = 64 << 10

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Levels
	api.HandleFunc("/sessions/{id}/difficulty", s.handleSelectDifficulty).Methods("POST")
	api.HandleFunc("/sessions/{id}/next-level", s.handleNextLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/level", s.handleLoadLevel).Methods("POST")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/rotate", s.handleRotate).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/program", s.handleRunProgram).Methods("POST")
	api.HandleFunc("/sessions/{id}/hint", s.handleHint).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Level packs
	api.HandleFunc("/packs", s.handleListPacks).Methods("GET")
	api.HandleFunc("/packs", s.handleCreatePack).Methods("POST")
	api.HandleFunc("/packs/{name}", s.handleGetPack).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, config.ErrPackNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidLevel),
		errors.Is(err, engine.ErrEmptyPack),
		errors.Is(err, program.ErrInvalidProgram),
		errors.Is(err, config.ErrInvalidPack):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNoLevel),
		errors.Is(err, program.ErrAlreadyRunning),
		errors.Is(err, config.ErrNoLevelsDir):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownDifficulty),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session ids are case-insensitive; hub rooms use the lower-cased id.
func (s *Server) broadcast(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(strings.ToLower(sessionID), state)
	}
}

func (s *Server) event(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(strings.ToLower(sessionID), event, data)
	}
}

// respondAction broadcasts the new state and writes the action result
func (s *Server) respondAction(w http.ResponseWriter, tag, sessionID string, result *service.ActionResult) {
	s.broadcast(sessionID, result.GameState)

	status := "FAIL"
	if result.Success {
		status = "OK"
	}
	log.Printf("[%s] session=%s status=%s msg=%q", tag, sessionID, status, result.Message)

	respondJSON(w, http.StatusOK, result)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), req.Difficulty)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SESSION] created session=%s difficulty=%s", info.ID, info.Difficulty)
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Level Handlers

func (s *Server) handleSelectDifficulty(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SelectDifficulty(r.Context(), sessionID, req.Difficulty)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "LEVEL", sessionID, result)
}

func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.NextLevel(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "LEVEL", sessionID, result)
}

func (s *Server) handleLoadLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Line string `json:"line"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Line) == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain a level line")
		return
	}

	result, err := s.service.LoadLevel(r.Context(), sessionID, req.Line)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "LEVEL", sessionID, result)
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Cell string `json:"cell"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Select(r.Context(), sessionID, req.Cell)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "SELECT", sessionID, result)
}

type actionRequest struct {
	Cell      string `json:"cell,omitempty"`
	Direction string `json:"direction"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req actionRequest
	if err := decodeBody(r, &req); err != nil || req.Direction == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain a direction")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.Cell, req.Direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "MOVE", sessionID, result)
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req actionRequest
	if err := decodeBody(r, &req); err != nil || req.Direction == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain a direction")
		return
	}

	result, err := s.service.Rotate(r.Context(), sessionID, req.Cell, req.Direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "ROTATE", sessionID, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Restart bool `json:"restart,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Reset(r.Context(), sessionID, req.Restart)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.respondAction(w, "RESET", sessionID, result)
}

func (s *Server) handleRunProgram(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	data, err := io.ReadAll(io.LimitReader(r.Body, maxProgramBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	prog, err := program.ParseProgram(data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// The session stays locked for the whole run, so steps go out without state.
	onStep := func(step program.Step) {
		s.event(sessionID, websocket.EventProgramStep, step)
	}

	result, err := s.service.RunProgram(r.Context(), sessionID, prog, onStep)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.event(sessionID, websocket.EventProgramDone, result.Result)
	s.broadcast(sessionID, result.GameState)

	log.Printf("[PROGRAM] session=%s run=%s steps=%d won=%t canceled=%t",
		sessionID, result.RunID, result.Steps, result.Won, result.Canceled)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	allowRotation, _ := strconv.ParseBool(r.URL.Query().Get("rotation"))

	hint, err := s.service.Hint(r.Context(), sessionID, allowRotation)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[HINT] session=%s solvable=%t moves_left=%d explored=%d",
		sessionID, hint.Solvable, hint.MovesLeft, hint.StatesExplored)

	respondJSON(w, http.StatusOK, hint)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Level Pack Handlers

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.service.ListPacks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, packs)
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	pack, err := s.service.LoadPack(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pack)
}

func (s *Server) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var pack engine.LevelPack
	if err := json.NewDecoder(r.Body).Decode(&pack); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(pack.Name) == "" {
		respondError(w, http.StatusBadRequest, "Pack name is required")
		return
	}

	if err := s.service.SavePack(r.Context(), pack.Name, &pack); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[PACK] saved pack=%s difficulty=%s levels=%d", pack.Name, pack.Difficulty, len(pack.Levels))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Level pack saved successfully",
		"pack_id": pack.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	// GetSession would wait for a running program to release the session
	if err := s.service.SessionExists(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, strings.ToLower(sessionID))
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
