package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"indoor-nav-server/events"
	"indoor-nav-server/graph"
	"indoor-nav-server/guidance"
	"indoor-nav-server/handlers"
	"indoor-nav-server/logstream"
	"indoor-nav-server/services"
)

type config struct {
	MonitorAddr    string
	IngestAddr     string
	TopologyPath   string
	DebounceWindow time.Duration
	MaxSpeedKMH    float64
	ScanTimeout    time.Duration
	SpeechQueue    int
	TranscriptMax  int
}

func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using default environment variables")
	}

	return config{
		MonitorAddr:    getEnv("MONITOR_ADDR", ":8080"),
		IngestAddr:     getEnv("INGEST_ADDR", ":8081"),
		TopologyPath:   getEnv("TOPOLOGY_PATH", ""),
		DebounceWindow: getEnvDuration("DEBOUNCE_WINDOW", 3*time.Second),
		MaxSpeedKMH:    getEnvFloat("MAX_SPEED_KMH", 12),
		ScanTimeout:    getEnvDuration("SCAN_TIMEOUT", 45*time.Second),
		SpeechQueue:    getEnvInt("SPEECH_QUEUE", 16),
		TranscriptMax:  getEnvInt("TRANSCRIPT_MAX", 500),
	}
}

func main() {
	cfg := loadConfig()

	var (
		g   *graph.Graph
		err error
	)
	if cfg.TopologyPath != "" {
		log.Infof("Loading topology from %s", cfg.TopologyPath)
		g, err = graph.LoadTopologyFromFile(cfg.TopologyPath)
		if err != nil {
			log.Fatalf("Failed to load topology: %v", err)
		}
	} else {
		log.Info("TOPOLOGY_PATH not set, using the built-in floor plan")
		g = graph.DefaultTopology()
	}
	log.Infof("Topology loaded: %d waypoints, %d edges", g.NumWaypoints(), g.NumEdges())

	transcript := logstream.New(cfg.TranscriptMax)
	speaker := guidance.NewTranscriptSpeaker(transcript)
	emitter := guidance.NewEmitter(speaker, cfg.SpeechQueue)
	defer emitter.Close()

	nav := services.NewNavigationService(g, emitter, events.Config{
		DebounceWindow: cfg.DebounceWindow,
		MaxSpeedKMH:    cfg.MaxSpeedKMH,
		ScanTimeout:    cfg.ScanTimeout,
	}, transcript)
	defer nav.Shutdown()

	// Sensor ingest server: camera, GPS and voice adapters push here.
	ingest := mux.NewRouter()
	handlers.NewIngestHandler(nav).RegisterRoutes(ingest)
	go func() {
		log.Infof("Sensor ingest server listening on %s", cfg.IngestAddr)
		if err := http.ListenAndServe(cfg.IngestAddr, ingest); err != nil {
			log.Fatalf("Ingest server failed: %v", err)
		}
	}()

	// Monitoring server: read-only dashboard surface, CORS wide open like
	// the original so the page can be served from anywhere on the LAN.
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"*"}
	r.Use(cors.New(corsConfig))
	handlers.NewMonitorHandler(nav, transcript).RegisterRoutes(r)

	transcript.Append("[System] Navigation server started.")
	log.Infof("Monitoring server listening on %s", cfg.MonitorAddr)
	if err := r.Run(cfg.MonitorAddr); err != nil {
		log.Fatalf("Monitoring server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warnf("Invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warnf("Invalid %s=%q, using %v", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warnf("Invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
