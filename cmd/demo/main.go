package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/pacer/api"
	"github.com/yourusername/pacer/cmd/demo/handlers"
	"github.com/yourusername/pacer/metrics"
	"github.com/yourusername/pacer/pkg/pacer"
)

func main() {
	// Command-line flags
	port := flag.String("port", "8080", "Port to run the server on")
	configFile := flag.String("config", "cmd/demo/config.yaml", "Path to configuration file")
	flag.Parse()

	printBanner()

	// Initialize rate limiter with Prometheus instrumentation
	log.Println("Loading configuration from:", *configFile)
	collector := metrics.NewCollector("demo")
	limiter, err := pacer.NewRateLimiter(
		pacer.WithConfigFile(*configFile),
		pacer.WithListener(collector),
	)
	if err != nil {
		log.Fatalf("Failed to create rate limiter: %v", err)
	}

	// Start background cleanup
	stopCleanup := limiter.StartBackgroundCleanup()
	defer stopCleanup()

	log.Println("Rate limiter initialized successfully")
	log.Println("Background cleanup started")

	// Create HTTP mux
	mux := http.NewServeMux()

	// Health check and metrics endpoints (no rate limiting)
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", api.MetricsHandler(prometheus.DefaultGatherer))

	// Check endpoint for out-of-band rate limit queries
	checkHandler := api.NewHandler(limiter)
	mux.HandleFunc("/check", checkHandler.CheckRateLimit)

	// API endpoints with rate limiting
	mux.Handle("/api/search", limiter.Middleware(http.HandlerFunc(handlers.Search)))
	mux.Handle("/api/create", limiter.Middleware(http.HandlerFunc(handlers.Create)))
	mux.Handle("/api/login", limiter.Middleware(http.HandlerFunc(handlers.Login)))

	// Root endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, `Pacer Demo Server

Available endpoints:
  GET  /health      - health check (not rate limited)
  GET  /metrics     - Prometheus metrics (not rate limited)
  POST /check       - rate limit check API
  GET  /api/search  - rate limited
  POST /api/create  - rate limited
  POST /api/login   - rate limited
`)
	})

	addr := ":" + *port
	log.Printf("Demo server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func printBanner() {
	fmt.Println("=====================================")
	fmt.Println("  Pacer - Token Bucket Rate Limiter")
	fmt.Println("=====================================")
}
