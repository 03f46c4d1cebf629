package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/world"
)

// GenerateRequest is the client's single message on the generate socket.
type GenerateRequest struct {
	Seed   int64  `json:"seed"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Goal   string `json:"goal,omitempty"`

	// Archive stores the world on success and reports its id.
	Archive bool `json:"archive,omitempty"`
}

// Event is one server-to-client progress message.
type Event struct {
	Type    string `json:"type"` // attempt_failed | world | error
	Attempt int    `json:"attempt,omitempty"`
	Error   string `json:"error,omitempty"`

	World   *WorldPayload `json:"world,omitempty"`
	WorldID int64         `json:"world_id,omitempty"`
}

// handleGenerate upgrades to a websocket, reads one request, and streams
// attempt progress followed by the final world or a terminal error.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.cfg.Server.WebSocket.IsOriginAllowed(r.Header.Get("Origin"), r.Host)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warning("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if max := s.cfg.Server.WebSocket.MaxMessageSize; max > 0 {
		conn.SetReadLimit(max)
	}

	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(Event{Type: "error", Error: "bad request: " + err.Error()})
		return
	}

	params, err := s.requestParams(req)
	if err != nil {
		conn.WriteJSON(Event{Type: "error", Error: err.Error()})
		return
	}

	// Shallow copy so the progress callback stays request-local.
	gen := *s.gen
	gen.OnAttempt = func(attempt int, attemptErr error) {
		conn.WriteJSON(Event{Type: "attempt_failed", Attempt: attempt, Error: attemptErr.Error()})
	}

	ws, err := gen.Generate(params)
	if err != nil {
		conn.WriteJSON(Event{Type: "error", Error: err.Error()})
		return
	}

	event := Event{Type: "world"}
	payload := worldResponse(ws)
	event.World = &payload
	event.Attempt = ws.Attempt

	if req.Archive && s.archive != nil {
		id, err := s.archive.SaveWorld(ws)
		if err != nil {
			logger.Error("failed to archive world", "seed", ws.Params.Seed, "error", err)
		} else {
			event.WorldID = id
		}
	}

	conn.WriteJSON(event)
}

// requestParams validates a request against the configured defaults.
func (s *Server) requestParams(req GenerateRequest) (world.Params, error) {
	params := world.Params{
		Seed:   req.Seed,
		Width:  req.Width,
		Height: req.Height,
		Genre:  req.Genre,
	}
	if params.Width == 0 {
		params.Width = s.cfg.Generation.Width
	}
	if params.Height == 0 {
		params.Height = s.cfg.Generation.Height
	}
	if params.Genre == "" {
		params.Genre = s.cfg.Generation.Genre
	}
	if params.Width < 1 || params.Height < 1 || params.Width > 256 || params.Height > 256 {
		return params, errors.New("grid dimensions out of range")
	}

	if req.Goal != "" {
		goal, err := plot.ParseFunction(req.Goal)
		if err != nil {
			return params, err
		}
		params.Goal = goal
	} else {
		params.Goal = plot.Victory
	}
	return params, nil
}
