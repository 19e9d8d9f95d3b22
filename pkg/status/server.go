package status

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Handler simulates the unit's status resource. GET returns the current
// message, PUT replaces it. Mount it at <base>/status.
type Handler struct {
	log *zap.Logger

	mu      sync.Mutex
	message string
}

// NewHandler builds a Handler holding the given initial message.
func NewHandler(initial string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{log: logger.Named("status"), message: initial}
}

// Message returns the current message.
func (h *Handler) Message() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w, h.Message())

	case http.MethodPut:
		var st Status
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			h.log.Warn("rejecting malformed status body", zap.Error(err))
			http.Error(w, "malformed JSON body", http.StatusBadRequest)
			return
		}
		h.mu.Lock()
		h.message = st.Message
		h.mu.Unlock()
		h.log.Info("status updated", zap.String("message", st.Message))
		h.respond(w, st.Message)

	default:
		w.Header().Set("Allow", "GET, PUT")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) respond(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Status{Message: message}); err != nil {
		h.log.Warn("write status response failed", zap.Error(err))
	}
}
