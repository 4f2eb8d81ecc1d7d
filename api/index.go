package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/linkvault/pkg/adapters/handler"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkvault/pkg/config"
	"github.com/wadjakorntonsri/linkvault/pkg/core/services"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)

	// Serverless filesystems are ephemeral; point DATABASE_URL at libsql:// to keep links.
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	service := services.NewLinkService(repo)
	mux = handler.NewRouter(cfg, service)
}

// Handler serves the link endpoint as a Vercel function.
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
