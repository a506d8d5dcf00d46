package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/soaringjerry/psyscore/internal/middleware"
	"github.com/soaringjerry/psyscore/internal/models"
	"github.com/soaringjerry/psyscore/internal/services"
)

const maxBodyBytes = 1 << 20

// SurveyService is the survey workflow served over HTTP.
type SurveyService interface {
	ListMySurveys(ctx context.Context, userID string) ([]*models.Attempt, error)
	GetDetail(ctx context.Context, userID, attemptID string) (*services.AttemptDetail, error)
	StartSurvey(ctx context.Context, userID, categoryCode string) (*services.StartResult, error)
	SubmitSurvey(ctx context.Context, userID string, req services.SubmitRequest) (*services.SubmitResult, error)
}

type Router struct {
	svc    SurveyService
	logger *slog.Logger
}

func NewRouter(svc SurveyService, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{svc: svc, logger: logger}
}

// Register mounts the survey routes. All of them require an authenticated user.
func (rt *Router) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/surveys/mine", middleware.RequireAuth(http.HandlerFunc(rt.handleMine)))
	mux.Handle("GET /api/surveys/start", middleware.RequireAuth(http.HandlerFunc(rt.handleStart)))
	mux.Handle("POST /api/surveys/submit", middleware.RequireAuth(http.HandlerFunc(rt.handleSubmit)))
	mux.Handle("GET /api/surveys/{attemptId}", middleware.RequireAuth(http.HandlerFunc(rt.handleDetail)))
}

// GET /api/surveys/mine
func (rt *Router) handleMine(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	list, err := rt.svc.ListMySurveys(r.Context(), uid)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/surveys/{attemptId}
func (rt *Router) handleDetail(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	detail, err := rt.svc.GetDetail(r.Context(), uid, r.PathValue("attemptId"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GET /api/surveys/start?category=stress
func (rt *Router) handleStart(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	out, err := rt.svc.StartSurvey(r.Context(), uid, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/surveys/submit  {instrumentCode, answers}
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req services.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		rt.writeError(w, r, services.NewInvalidError(msg))
		return
	}
	out, err := rt.svc.SubmitSurvey(r.Context(), uid, req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
