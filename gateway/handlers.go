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
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"querygate/platform/policy"
)

// Server is the HTTP surface over the five tool operations. Failures of
// an operation are converted into error-shaped JSON values, mirroring
// tool-call semantics: the transport succeeds, the payload carries the
// error.
type Server struct {
	svc     *Service
	limiter *RateLimiter
}

// NewServer creates the HTTP surface. limiter may be nil to disable
// rate limiting.
func NewServer(svc *Service, limiter *RateLimiter) *Server {
	return &Server{svc: svc, limiter: limiter}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/query", s.handleQuery).Methods("POST")
	r.HandleFunc("/api/v1/schema", s.handleSchema).Methods("GET")
	r.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/analyze", s.handleAnalyze).Methods("POST")
	r.HandleFunc("/api/v1/tables/{table}/statistics", s.handleTableStats).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

// queryRequest is the body of a run-query call. Identity fields default
// to "default" when absent.
type queryRequest struct {
	SQL       string `json:"sql"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(r.Context(), req.UserID); err != nil {
			promRateLimited.Inc()
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
	}

	result, err := s.svc.ExecuteQuery(r.Context(), req.SQL, req.UserID, req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"sql":        req.SQL,
			"timestamp":  time.Now().UTC(),
			"user_id":    req.UserID,
			"session_id": req.SessionID,
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.GetSchemaInfo(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Health never fails; a broken database shows up in the payload.
	writeJSON(w, http.StatusOK, s.svc.GetDatabaseHealth(r.Context()))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, policy.AnalyzeQuery(req.SQL))
}

func (s *Server) handleTableStats(w http.ResponseWriter, r *http.Request) {
	tableName := mux.Vars(r)["table"]
	stats, err := s.svc.GetTableStatistics(r.Context(), tableName)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"error":      err.Error(),
			"table_name": tableName,
			"timestamp":  time.Now().UTC(),
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
