package reviewer

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/httputil"
)

// =============================================================================
// Routes
// =============================================================================

func (s *Service) registerRoutes() {
	router := s.Router()
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	v1.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	v1.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	v1.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)

	v1.HandleFunc("/me", s.handleGetMe).Methods(http.MethodGet)
	v1.HandleFunc("/me", s.handleUpdateMe).Methods(http.MethodPatch)
	v1.HandleFunc("/me/stats", s.handleMyStats).Methods(http.MethodGet)
	v1.HandleFunc("/me/stats/stream", s.handleStatsStream).Methods(http.MethodGet)
	v1.HandleFunc("/me/reviewed-fountains", s.handleReviewedFountains).Methods(http.MethodGet)

	v1.HandleFunc("/fountains", s.handleListFountains).Methods(http.MethodGet)
	v1.HandleFunc("/fountains/best", s.handleBestFountain).Methods(http.MethodGet)
	v1.HandleFunc("/fountains/{codi}", s.handleGetFountain).Methods(http.MethodGet)
	v1.HandleFunc("/fountains/{codi}/reviews", s.handleListReviews).Methods(http.MethodGet)
	v1.HandleFunc("/fountains/{codi}/reviews/mine", s.handleMyReview).Methods(http.MethodGet)
	v1.HandleFunc("/fountains/{codi}/reviews", s.handleSubmitReview).Methods(http.MethodPost)

	v1.HandleFunc("/reviews/{id}", s.handleUpdateReview).Methods(http.MethodPut)
	v1.HandleFunc("/reviews/{id}", s.handleDeleteReview).Methods(http.MethodDelete)

	v1.HandleFunc("/admin/fountains", s.handleAdminListFountains).Methods(http.MethodGet)
	v1.HandleFunc("/admin/fountains", s.handleCreateFountain).Methods(http.MethodPost)
	v1.HandleFunc("/admin/fountains/{codi}", s.handleDeleteFountain).Methods(http.MethodDelete)

	v1.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/stats/fountains", s.handleFountainStats).Methods(http.MethodGet)
}

// =============================================================================
// Auth
// =============================================================================

func (s *Service) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var input SignUpInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	resp, err := s.SignUp(r.Context(), input)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.ConfirmationRequired {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, resp)
}

func (s *Service) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var input SignInInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	resp, err := s.SignIn(r.Context(), input)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var input RefreshInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	sess, err := s.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

func (s *Service) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.SignOut(r.Context()); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Current user
// =============================================================================

func (s *Service) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.CurrentUser(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (s *Service) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var input UpdateNicknameInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	user, err := s.UpdateNickname(r.Context(), input.Nickname)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (s *Service) handleMyStats(w http.ResponseWriter, r *http.Request) {
	sess, err := s.requireSession(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	stats, err := s.UserStats(r.Context(), sess.UserID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Service) handleReviewedFountains(w http.ResponseWriter, r *http.Request) {
	sess, err := s.requireSession(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	ids, err := s.ReviewedFountainIDs(r.Context(), sess.UserID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReviewedFountainsResponse{FountainIDs: ids})
}

// =============================================================================
// Fountains
// =============================================================================

func (s *Service) handleListFountains(w http.ResponseWriter, r *http.Request) {
	s.writeFountains(w, r, false)
}

func (s *Service) handleAdminListFountains(w http.ResponseWriter, r *http.Request) {
	s.writeFountains(w, r, true)
}

func (s *Service) writeFountains(w http.ResponseWriter, r *http.Request, includeDeleted bool) {
	fountains, err := s.ListFountains(r.Context(), includeDeleted)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if fountains == nil {
		fountains = []domain.Fountain{}
	}
	httputil.WriteJSON(w, http.StatusOK, FountainsResponse{Fountains: fountains, Count: len(fountains)})
}

func (s *Service) handleBestFountain(w http.ResponseWriter, r *http.Request) {
	best, err := s.BestFountain(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if best == nil {
		httputil.WriteServiceError(w, r, svcerrors.New(svcerrors.ErrCodeNotFound, "No fountain has been reviewed yet", http.StatusNotFound))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, best)
}

func (s *Service) handleGetFountain(w http.ResponseWriter, r *http.Request) {
	f, err := s.GetFountain(r.Context(), mux.Vars(r)["codi"])
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

func (s *Service) handleCreateFountain(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateFountainRequest
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	f, err := s.CreateFountain(r.Context(), input)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, f)
}

func (s *Service) handleDeleteFountain(w http.ResponseWriter, r *http.Request) {
	if err := s.SoftDeleteFountain(r.Context(), mux.Vars(r)["codi"]); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Reviews
// =============================================================================

func (s *Service) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.ListReviews(r.Context(), mux.Vars(r)["codi"])
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

func (s *Service) handleMyReview(w http.ResponseWriter, r *http.Request) {
	codi := mux.Vars(r)["codi"]
	review, err := s.UserReview(r.Context(), codi)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if review == nil {
		httputil.WriteServiceError(w, r, database.NewNotFoundError("review", codi))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

func (s *Service) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var input SubmitReviewInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	review, err := s.SubmitReview(r.Context(), mux.Vars(r)["codi"], input)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

func (s *Service) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var input UpdateReviewInput
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	review, err := s.UpdateReview(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

func (s *Service) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteReview(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Stats
// =============================================================================

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteServiceError(w, r, svcerrors.Validation("limit must be a non-negative integer").WithDetails("field", "limit"))
			return
		}
		limit = n
	}
	entries, err := s.Leaderboard(r.Context(), limit)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries})
}

func (s *Service) handleFountainStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.FountainStats(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
