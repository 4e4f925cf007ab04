package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

type metrics struct {
	CPUUsage      float64 `json:"cpuUsage"`
	MemoryUsage   float64 `json:"memoryUsage"`
	PodCount      int     `json:"podCount"`
	NodeCount     int     `json:"nodeCount"`
	HealthyPods   int     `json:"healthyPods"`
	UnhealthyPods int     `json:"unhealthyPods"`
}

type alert struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Severity     string  `json:"severity"`
	Message      string  `json:"message"`
	AnomalyScore float64 `json:"anomalyScore"`
}

type compliance struct {
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Warning int    `json:"warning"`
	LastRun string `json:"lastRun"`
}

type historyPoint struct {
	Period          string  `json:"period"`
	Incidents       int     `json:"incidents"`
	ComplianceScore float64 `json:"complianceScore"`
}

type snapshot struct {
	Metrics    metrics        `json:"metrics"`
	Alerts     []alert        `json:"alerts"`
	Compliance compliance     `json:"compliance"`
	History    []historyPoint `json:"history"`
}

var messages = []struct {
	severity string
	message  string
	score    float64
}{
	{"high", "Unusual pod activity detected", 0.89},
	{"medium", "Potential privilege escalation", 0.72},
	{"low", "Uncommon API access pattern", 0.62},
	{"high", "Container escape attempt blocked", 0.94},
	{"medium", "Secret mounted into unexpected namespace", 0.67},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("component", "feed-mock"))
	var served atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/v1/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, buildSnapshot(int(served.Add(1)), time.Now().UTC()))
	})

	addr := ":8090"
	if v := os.Getenv("FEED_MOCK_ADDRESS"); v != "" {
		addr = v
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

// buildSnapshot rotates alerts and compliance so each poll shows a change.
func buildSnapshot(n int, now time.Time) snapshot {
	alerts := make([]alert, 0, 3)
	for i := 0; i < 3; i++ {
		m := messages[(n+i)%len(messages)]
		alerts = append(alerts, alert{
			ID:           fmt.Sprintf("mock-%d-%d", n, i),
			Timestamp:    now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			Severity:     m.severity,
			Message:      m.message,
			AnomalyScore: m.score,
		})
	}

	failed := n % 6
	return snapshot{
		Metrics: metrics{
			CPUUsage:      float64(30 + n%50),
			MemoryUsage:   float64(25 + (n*3)%60),
			PodCount:      24,
			NodeCount:     3,
			HealthyPods:   24 - failed%3,
			UnhealthyPods: failed % 3,
		},
		Alerts: alerts,
		Compliance: compliance{
			Passed:  45 - failed,
			Failed:  failed,
			Warning: 4,
			LastRun: now.Add(-30 * time.Minute).Format(time.RFC3339),
		},
		History: []historyPoint{
			{Period: "Jan", Incidents: 12, ComplianceScore: 92},
			{Period: "Feb", Incidents: 8, ComplianceScore: 94},
			{Period: "Mar", Incidents: 5 + failed, ComplianceScore: 96 - float64(failed)},
		},
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode error", slog.Any("error", err))
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
