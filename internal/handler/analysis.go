package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
	"github.com/suzuki-tomok/github-analyzer/internal/auth"
	"github.com/suzuki-tomok/github-analyzer/internal/model"
	"github.com/suzuki-tomok/github-analyzer/internal/service"
)

// AnalysisHandler exposes the analysis pipeline and the CRUD surface around
// stored analyses.
//
//	POST   /analyses      → run the pipeline, return the created analysis
//	GET    /analyses      → caller's analyses, newest first, without report
//	GET    /analyses/{id} → full analysis
//	PATCH  /analyses/{id} → update memo
//	DELETE /analyses/{id} → delete
//
// All five require bearer auth; ownership scoping happens in the store
// query, not here.
type AnalysisHandler struct {
	analyses *service.AnalysisService
	auth     *service.AuthService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler. The AuthService is needed
// to resolve the full user record (including the delegated GitHub
// credential) from the userID the middleware put in the context.
func NewAnalysisHandler(analyses *service.AnalysisService, authService *service.AuthService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyses: analyses,
		auth:     authService,
		logger:   logger,
	}
}

// analysisRequest is the POST /analyses body.
//
// WHY Limit *int?
// An absent limit means "default to 30"; an explicit limit of 0 is a
// validation error. With a plain int the two are indistinguishable after
// decoding, so the pointer keeps "absent" observable.
type analysisRequest struct {
	RepoURL string `json:"repo_url"`
	Branch  string `json:"branch"`
	Limit   *int   `json:"limit"`
}

// memoRequest is the PATCH /analyses/{id} body. Same pointer trick: a body
// without a memo field is a validation error, not an empty memo.
type memoRequest struct {
	Memo *string `json:"memo"`
}

// analysisListItem is one entry of GET /analyses — the full record minus
// the report, which is only returned from the detail endpoint.
type analysisListItem struct {
	ID        string       `json:"id"`
	RepoURL   string       `json:"repo_url"`
	Branch    string       `json:"branch"`
	Scores    model.Scores `json:"scores"`
	Memo      *string      `json:"memo"`
	CreatedAt time.Time    `json:"created_at"`
}

// HandleCreate runs one analysis.
//
// HTTP: POST /analyses
// BODY: {"repo_url": "https://github.com/user/repo", "branch": "main", "limit": 10}
func (h *AnalysisHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	limit := service.DefaultCommitLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	analysis, err := h.analyses.Run(r.Context(), user, req.RepoURL, req.Branch, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, analysis)
}

// HandleList returns the caller's analyses, newest first.
//
// HTTP: GET /analyses
func (h *AnalysisHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("valid authentication required"))
		return
	}

	analyses, err := h.analyses.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]analysisListItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, analysisListItem{
			ID:        a.ID,
			RepoURL:   a.RepoURL,
			Branch:    a.Branch,
			Scores:    a.Scores,
			Memo:      a.Memo,
			CreatedAt: a.CreatedAt,
		})
	}

	writeSuccess(w, http.StatusOK, items)
}

// HandleGet returns one analysis in full.
//
// HTTP: GET /analyses/{id}
func (h *AnalysisHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("valid authentication required"))
		return
	}

	analysis, err := h.analyses.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, analysis)
}

// HandleUpdateMemo overwrites the memo on an analysis.
//
// HTTP: PATCH /analyses/{id}
// BODY: {"memo": "up to 1000 characters"}
func (h *AnalysisHandler) HandleUpdateMemo(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("valid authentication required"))
		return
	}

	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Memo == nil {
		writeError(w, apperror.ValidationFailed("memo", "memo is required"))
		return
	}

	analysis, err := h.analyses.UpdateMemo(r.Context(), r.PathValue("id"), userID, *req.Memo)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, analysis)
}

// HandleDelete removes an analysis.
//
// HTTP: DELETE /analyses/{id}
func (h *AnalysisHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("valid authentication required"))
		return
	}

	if err := h.analyses.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// currentUser resolves the full user record for the authenticated request.
// The middleware guarantees a userID is present; the DB lookup can still
// fail with USER_NOT_FOUND if the account vanished after the token was
// minted, which is a 401.
func (h *AnalysisHandler) currentUser(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.InvalidToken("valid authentication required")
	}
	return h.auth.GetUserByID(r.Context(), userID)
}
