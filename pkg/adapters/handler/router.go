package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/linkvault/pkg/config"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// EndpointPath is where the CRUD endpoint is mounted.
const EndpointPath = "/api/mylinks.php"

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService) http.Handler {
	h := NewHTTPHandler(service)
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	// CORS sits outside auth so preflights never need a token.
	mux.Handle(EndpointPath, CORS(mw.AuthMiddleware(http.HandlerFunc(h.Links))))

	return Recover(Logging(mw.RateLimit(mux)))
}
