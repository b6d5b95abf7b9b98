// Package endpoints exposes the strategy service over HTTP: model status
// and training plus one prediction route per model family.
package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/cors"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/service"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/manager"
)

// Server wires the model manager and training service into HTTP handlers.
type Server struct {
	mgr      *manager.Manager
	training *service.TrainingService
	l        *log.Logger
}

func NewServer(mgr *manager.Manager, training *service.TrainingService) *Server {
	return &Server{
		mgr:      mgr,
		training: training,
		l:        log.Default().Named("web"),
	}
}

// Router builds the full route tree with CORS applied.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Route("/models", func(r chi.Router) {
			r.Get("/status", s.modelsStatus)
			r.Post("/train/{name}", s.trainModel)
			r.Post("/train-all", s.trainAll)
		})
		r.Route("/strategy", func(r chi.Router) {
			r.Post("/tire", s.predict(manager.TireStrategy))
			r.Post("/pitstop", s.predict(manager.PitStop))
			r.Post("/racepace", s.predict(manager.RacePace))
			r.Post("/position", s.predict(manager.Position))
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "f1-strategy-manager",
	})
}

type modelStatus struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Ready       bool   `json:"ready"`
}

func (s *Server) modelsStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.mgr.Status()
	models := make([]modelStatus, 0, len(manager.Names))
	for _, name := range manager.Names {
		st := status[name]
		models = append(models, modelStatus{
			Name:        name,
			Status:      string(st),
			Description: manager.Describe(name),
			Ready:       st != manager.StatusNotTrained,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

type trainRequest struct {
	SessionKeys []int `json:"session_keys"`
}

type trainResponse struct {
	Message string `json:"message"`
	service.TrainReport
}

func (s *Server) trainModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	report, err := s.training.TrainModel(r.Context(), name, req.SessionKeys)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, trainResponse{
		Message:     fmt.Sprintf("Model %s trained successfully", name),
		TrainReport: report,
	})
}

func (s *Server) trainAll(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	results := s.training.TrainAll(r.Context(), req.SessionKeys)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "All models trained",
		"results": results,
	})
}

func (s *Server) predict(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeInput(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		pred, err := s.mgr.Predict(name, input)
		if err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
		s.writeJSON(w, http.StatusOK, pred)
	}
}

// decodeInput reads a flat JSON object of optional numeric fields. Booleans
// are accepted for flag-like fields and coerced to 0/1.
func decodeInput(r *http.Request) (map[string]float64, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]float64{}, nil
		}
		return nil, fmt.Errorf("decode request: %w", err)
	}
	input := make(map[string]float64, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			input[k] = t
		case bool:
			if t {
				input[k] = 1
			} else {
				input[k] = 0
			}
		default:
			return nil, fmt.Errorf("field %s must be numeric", k)
		}
	}
	return input, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, manager.ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, strategy.ErrNotTrained):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.l.Error("encode response", log.ErrorField(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.l.Warn("request failed", log.Int("status", status), log.ErrorField(err))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
