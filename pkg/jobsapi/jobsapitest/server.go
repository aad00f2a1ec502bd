// Package jobsapitest runs an in-process job store REST API backed by
// mock.MemoryStore, for exercising jobsapi.Client and its callers in tests.
package jobsapitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/garnizeh/jobtrail/pkg/repository"
	"github.com/garnizeh/jobtrail/pkg/repository/mock"
	"github.com/gorilla/mux"
)

// Route templates, usable with FailNext and Hits.
const (
	RouteHealth   = "/health"
	RouteJobs     = "/jobs"
	RouteJob      = "/jobs/{id}"
	RouteFollowUp = "/jobs/{id}/follow-up"
)

// Server is a running fake API. Close it when done.
type Server struct {
	*httptest.Server
	Store *mock.MemoryStore

	mu     sync.Mutex
	token  string
	faults map[string][]int
	hits   map[string]int
	delay  time.Duration
}

// NewServer starts a server seeded with jobs.
func NewServer(jobs ...models.Job) *Server {
	s := &Server{
		Store:  mock.NewMemoryStore(jobs...),
		faults: make(map[string][]int),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// RequireToken makes every route except /health demand "Bearer token".
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// FailNext queues status codes returned instead of handling the next requests
// to method+route, one code per request.
func (s *Server) FailNext(method, route string, codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(method, route)
	s.faults[k] = append(s.faults[k], codes...)
}

// Delay holds every response for d.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Hits returns how many requests reached method+route, failed ones included.
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key(method, route)]
}

func key(method, route string) string { return method + " " + route }

// Router builds the mux router. It is exported so callers can mount the
// fake API on their own listener.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(s.faultMiddleware)

	r.HandleFunc(RouteHealth, s.health).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc(RouteJobs, s.listJobs).Methods(http.MethodGet)
	api.HandleFunc(RouteJobs, s.createJob).Methods(http.MethodPost)
	api.HandleFunc(RouteJob, s.getJob).Methods(http.MethodGet)
	api.HandleFunc(RouteJob, s.updateJob).Methods(http.MethodPatch)
	api.HandleFunc(RouteJob, s.deleteJob).Methods(http.MethodDelete)
	api.HandleFunc(RouteFollowUp, s.followUp).Methods(http.MethodPost)
	return r
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("jobsapitest: panic", slog.Any("err", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		k := key(r.Method, route)

		s.mu.Lock()
		s.hits[k]++
		delay := s.delay
		code := 0
		if q := s.faults[k]; len(q) > 0 {
			code, s.faults[k] = q[0], q[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := s.token
		s.mu.Unlock()
		if want != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || got != want {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case models.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "service": "jobtrail"}, http.StatusOK)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Store.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, jobs, http.StatusOK)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var p models.JobPatch
	if !decode(w, r, &p) {
		return
	}
	job, err := s.Store.CreateJob(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job, http.StatusCreated)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	var p models.JobPatch
	if !decode(w, r, &p) {
		return
	}
	job, err := s.Store.UpdateJob(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteJob(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) followUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date time.Time `json:"date"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Date.IsZero() {
		http.Error(w, "date required", http.StatusBadRequest)
		return
	}
	entry, err := s.Store.ScheduleFollowUp(r.Context(), mux.Vars(r)["id"], body.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entry, http.StatusCreated)
}
