package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"quadsim/internal/config"
	"quadsim/internal/logging"
	"quadsim/internal/queue"
	"quadsim/internal/sim"
	"quadsim/internal/telemetry"
)

// Flight is the part of the simulator the admin server drives.
type Flight interface {
	Status() sim.Status
	GetConfig() *config.FlightConfig
	TelemetrySnapshot(n int) []telemetry.TelemetryRow
	Events() []sim.Event
	Enqueue(kind queue.Kind, speedFactor float64, d time.Duration) (bool, error)
	Stop() error
	Subscribe() (<-chan telemetry.TelemetryRow, func())
}

type Server struct {
	Sim      Flight
	tpl      *template.Template
	upgrader websocket.Upgrader
}

//go:embed templates/index.html
var content embed.FS

const (
	writeWait       = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

func NewServer(f Flight) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		Sim: f,
		tpl: tpl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the admin routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/enqueue", s.handleEnqueue)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.FromContext(ctx).Warn("admin shutdown", "err", err)
		}
	}()
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Status  sim.Status
		Profile string
		Kinds   []queue.Kind
		Events  []sim.Event
	}{
		Status:  s.Sim.Status(),
		Profile: s.Sim.GetConfig().Profile,
		Kinds:   queue.Kinds,
		Events:  s.Sim.Events(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.tpl.Execute(w, data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Status())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, errors.New("n must be a non-negative integer"))
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, s.Sim.TelemetrySnapshot(n))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Events())
}

type enqueueRequest struct {
	Kind     string  `json:"kind"`
	Speed    float64 `json:"speed"`
	Duration string  `json:"duration"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := queue.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Speed == 0 {
		req.Speed = 1
	}
	ok, err := s.Sim.Enqueue(kind, req.Speed, d)
	if errors.Is(err, sim.ErrNotScripted) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": ok})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	if err := s.Sim.Stop(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWS streams every telemetry row to the client as JSON until either
// side goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	rows, cancel := s.Sim.Subscribe()
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	// The read loop only notices the client closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for row := range rows {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(row); err != nil {
			return
		}
	}
}
