// Copyright 2025 QueryGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"querygate/platform/audit"
	"querygate/platform/connectors/base"
	"querygate/platform/connectors/sqldb"
	"querygate/platform/shared/logger"
)

// Run is the process entry point: load configuration, connect the
// database collaborator, select the audit sink, and serve HTTP until
// SIGINT/SIGTERM.
func Run() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	opLog := logger.New("gateway")
	opLog.Info("", "", "QueryGate starting", map[string]interface{}{
		"project_id":    cfg.ProjectID,
		"instance_id":   cfg.InstanceID,
		"database_id":   cfg.DatabaseID,
		"read_only":     cfg.ReadOnly,
		"max_rows":      cfg.MaxRows,
		"query_timeout": cfg.QueryTimeoutSeconds,
		"audit_enabled": cfg.AuditEnabled,
	})

	ctx := context.Background()

	connector := sqldb.New()
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = connector.Connect(connectCtx, &base.ConnectorConfig{
		Name:          cfg.DatabaseID,
		ConnectionURL: cfg.DatabaseURL,
	})
	cancel()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer func() { _ = connector.Close() }()

	sink := selectSink(cfg, opLog)
	if closer, ok := sink.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	svc := NewService(cfg, connector, sink)

	var limiter *RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = NewRateLimiter(cfg.RedisURL, cfg.RateLimitPerMinute)
		if err != nil {
			// Degrade to the in-memory window rather than refuse to start.
			opLog.Warn("", "", "Redis unavailable, using in-memory rate limiting", map[string]interface{}{
				"error": err.Error(),
			})
			limiter, _ = NewRateLimiter("", cfg.RateLimitPerMinute)
		}
		defer func() { _ = limiter.Close() }()
	}

	server := NewServer(svc, limiter)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsMiddleware.Handler(server.Router()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("QueryGate listening on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("QueryGate stopped")
}

// selectSink picks the audit sink from configuration: disabled audit
// gets the no-op sink, an audit DSN gets the batched Postgres sink, and
// everything else writes structured log lines.
func selectSink(cfg *Config, opLog *logger.Logger) audit.Sink {
	if !cfg.AuditEnabled {
		return audit.NopSink{}
	}
	if cfg.AuditDatabaseURL != "" {
		sink, err := audit.NewPostgresSink(cfg.AuditDatabaseURL)
		if err != nil {
			opLog.Warn("", "", "Audit database unavailable, falling back to log sink", map[string]interface{}{
				"error": err.Error(),
			})
			return audit.NewLogSink(logger.New("audit"))
		}
		return sink
	}
	return audit.NewLogSink(logger.New("audit"))
}
