package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"raffle/internal/auth"
	"raffle/internal/config"
	"raffle/internal/draw"
	"raffle/internal/drawdates"
	"raffle/internal/handlers"
	"raffle/internal/ledger"
	"raffle/internal/pool"
	"raffle/internal/raffle"
	"raffle/internal/store"
)

func main() {
	// 1. Load configuration (optional YAML file, env overrides)
	cfg, err := config.Load(os.Getenv("RAFFLE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defer logger.Init("raffle", cfg.Verbose, false, os.Stdout).Close()

	// 2. Open the persistent store and the winner ledger
	st, err := store.OpenFileStore(cfg.DataFile)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	winners, err := ledger.Open(st)
	if err != nil {
		logger.Fatalf("Failed to open winner ledger: %v", err)
	}

	// 3. Load the embedded per-week contestant pools
	pools, err := pool.Load()
	if err != nil {
		logger.Fatalf("Failed to load contestant pools: %v", err)
	}

	// 4. Draw-date source: remote table when configured, fallbacks otherwise
	dates := drawdates.New(cfg.DrawDates.ServiceURL, cfg.DrawDates.ServiceKey)
	if dates.Available() {
		logger.Infof("Remote draw-date table enabled at %s", cfg.DrawDates.ServiceURL)
	} else {
		logger.Infof("No draw-date service configured, using fallback dates")
	}

	// 5. Admin gate and the draw engine with production timings
	gate := auth.NewGate(st)
	engine := draw.New(draw.DefaultTimings())

	// 6. The orchestrating raffle service
	service := raffle.NewService(pools, winners, dates, engine, gate)

	// 7. HTTP surface
	httpHandler := handlers.NewHTTPHandler(service, gate, dates)
	r := gin.Default()
	r.Use(handlers.CORSMiddleware())
	httpHandler.RegisterRoutes(r)

	// 8. Run the server
	logger.Infof("Server starting on http://localhost%s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		logger.Fatalf("Failed to run server: %v", err)
	}
}
