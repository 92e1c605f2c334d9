package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whisperkit/internal/domain"
)

// Server is an in-memory relay: registered bundles plus per-user envelope
// queues. Envelopes stay queued until acked, so a crashed client can fetch
// them again.
type Server struct {
	log *zap.Logger

	mu      sync.RWMutex
	bundles map[domain.Username]domain.PreKeyBundle
	queues  map[domain.Username][]domain.Envelope
}

// NewServer returns an empty relay server logging through log.
func NewServer(log *zap.Logger) *Server {
	return &Server{
		log:     log,
		bundles: make(map[domain.Username]domain.PreKeyBundle),
		queues:  make(map[domain.Username][]domain.Envelope),
	}
}

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /prekey/{username}", s.handleFetchBundle)
	mux.HandleFunc("POST /msg/{username}", s.handleSend)
	mux.HandleFunc("GET /msg/{username}", s.handleFetch)
	mux.HandleFunc("POST /msg/{username}/ack", s.handleAck)
	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var b domain.PreKeyBundle
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(b.Username.String()) == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.bundles[b.Username] = b
	s.mu.Unlock()

	s.log.Info("registered bundle",
		zap.String("username", b.Username.String()),
		zap.Int("one_time_prekeys", len(b.OneTimePreKeys)))
	w.WriteHeader(http.StatusOK)
}

// handleFetchBundle hands out the bundle with at most one one-time pre-key,
// consuming it. When the supply runs dry the bundle still serves; the
// last-resort KEM pre-key keeps handshakes possible.
func (s *Server) handleFetchBundle(w http.ResponseWriter, r *http.Request) {
	username := domain.Username(r.PathValue("username"))

	s.mu.Lock()
	b, ok := s.bundles[username]
	if ok && len(b.OneTimePreKeys) > 0 {
		out := b
		out.OneTimePreKeys = []domain.OneTimePreKeyPublic{b.OneTimePreKeys[0]}
		b.OneTimePreKeys = b.OneTimePreKeys[1:]
		s.bundles[username] = b
		b = out
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.log.Info("served bundle", zap.String("username", username.String()))
	writeJSON(w, b)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	to := domain.Username(r.PathValue("username"))

	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env.To = to
	env.ID = uuid.NewString()
	if env.Timestamp == 0 {
		env.Timestamp = time.Now().Unix()
	}

	s.mu.Lock()
	s.queues[to] = append(s.queues[to], env)
	depth := len(s.queues[to])
	s.mu.Unlock()

	s.log.Info("queued envelope",
		zap.String("id", env.ID),
		zap.String("from", env.From.String()),
		zap.String("to", to.String()),
		zap.Int("type", env.Type),
		zap.Int("queue_depth", depth))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	username := domain.Username(r.PathValue("username"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.RLock()
	q := s.queues[username]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := append([]domain.Envelope(nil), q...)
	s.mu.RUnlock()

	writeJSON(w, out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	username := domain.Username(r.PathValue("username"))

	var req ackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Count < 0 {
		http.Error(w, "bad count", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	q := s.queues[username]
	n := req.Count
	if n > len(q) {
		n = len(q)
	}
	s.queues[username] = q[n:]
	s.mu.Unlock()

	s.log.Info("acked envelopes",
		zap.String("username", username.String()),
		zap.Int("count", n))
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
