package reviewer

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/metrics"
	"github.com/watxaut/FontsReviewerApp/internal/session"
)

// memoryStore is an in-memory Store. nextErr makes the named method fail
// once.
type memoryStore struct {
	mu        sync.Mutex
	profiles  map[string]*domain.User
	fountains map[string]*domain.Fountain
	reviews   map[string]*domain.Review
	nextErr   map[string]error
	calls     map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		profiles:  map[string]*domain.User{},
		fountains: map[string]*domain.Fountain{},
		reviews:   map[string]*domain.Review{},
		nextErr:   map[string]error{},
		calls:     map[string]int{},
	}
}

func (m *memoryStore) fail(method string) error {
	m.calls[method]++
	if err, ok := m.nextErr[method]; ok {
		delete(m.nextErr, method)
		return err
	}
	return nil
}

func (m *memoryStore) addProfile(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.profiles[u.ID] = &cp
}

func (m *memoryStore) addFountain(f domain.Fountain) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := f
	m.fountains[f.Codi] = &cp
}

func (m *memoryStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memoryStore) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetProfile"); err != nil {
		return nil, err
	}
	u, ok := m.profiles[id]
	if !ok {
		return nil, database.NewNotFoundError("profile", id)
	}
	cp := *u
	return &cp, nil
}

func (m *memoryStore) FindProfileByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindProfileByNickname"); err != nil {
		return nil, err
	}
	for _, u := range m.profiles {
		if u.Nickname == nickname {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateProfile(ctx context.Context, id, nickname string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateProfile"); err != nil {
		return nil, err
	}
	for _, u := range m.profiles {
		if u.Nickname == nickname {
			return nil, svcerrors.NicknameTaken(nil)
		}
	}
	u := &domain.User{ID: id, Nickname: nickname, Role: domain.RoleOperator}
	m.profiles[id] = u
	cp := *u
	return &cp, nil
}

func (m *memoryStore) UpdateNickname(ctx context.Context, id, nickname string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateNickname"); err != nil {
		return nil, err
	}
	u, ok := m.profiles[id]
	if !ok {
		return nil, database.NewNotFoundError("profile", id)
	}
	u.Nickname = nickname
	cp := *u
	return &cp, nil
}

func (m *memoryStore) CreateReview(ctx context.Context, req domain.CreateReviewRequest, userID, nickname string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateReview"); err != nil {
		return nil, err
	}
	for _, r := range m.reviews {
		if r.UserID == userID && r.FountainID == req.FountainID {
			return nil, svcerrors.AlreadyReviewed(nil)
		}
	}
	r := &domain.Review{
		ID:             uuid.NewString(),
		FountainID:     req.FountainID,
		UserID:         userID,
		UserNickname:   nickname,
		Taste:          req.Taste,
		Freshness:      req.Freshness,
		LocationRating: req.LocationRating,
		Aesthetics:     req.Aesthetics,
		Splash:         req.Splash,
		Jet:            req.Jet,
		Overall:        req.Overall(),
		Comment:        req.Comment,
	}
	m.reviews[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *memoryStore) ListReviewsForFountain(ctx context.Context, fountainID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListReviewsForFountain"); err != nil {
		return nil, err
	}
	var out []domain.Review
	for _, r := range m.reviews {
		if r.FountainID == fountainID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) GetUserReview(ctx context.Context, userID, fountainID string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetUserReview"); err != nil {
		return nil, err
	}
	for _, r := range m.reviews {
		if r.UserID == userID && r.FountainID == fountainID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) UpdateReview(ctx context.Context, id string, ratings domain.Ratings, comment *string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateReview"); err != nil {
		return nil, err
	}
	r, ok := m.reviews[id]
	if !ok {
		return nil, database.NewNotFoundError("review", id)
	}
	r.Taste, r.Freshness, r.LocationRating = ratings.Taste, ratings.Freshness, ratings.LocationRating
	r.Aesthetics, r.Splash, r.Jet = ratings.Aesthetics, ratings.Splash, ratings.Jet
	r.Overall = ratings.Overall()
	if comment != nil {
		r.Comment = comment
	}
	cp := *r
	return &cp, nil
}

func (m *memoryStore) DeleteReview(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteReview"); err != nil {
		return err
	}
	if _, ok := m.reviews[id]; !ok {
		return database.NewNotFoundError("review", id)
	}
	delete(m.reviews, id)
	return nil
}

func (m *memoryStore) ListReviewedFountainIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListReviewedFountainIDs"); err != nil {
		return nil, err
	}
	var out []string
	for _, r := range m.reviews {
		if r.UserID == userID {
			out = append(out, r.FountainID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListFountainsWithStats"); err != nil {
		return nil, err
	}
	out := make([]domain.Fountain, 0, len(m.fountains))
	for _, f := range m.fountains {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codi < out[j].Codi })
	if !includeDeleted {
		out = domain.ActiveFountains(out)
	}
	return out, nil
}

func (m *memoryStore) GetFountainByCodi(ctx context.Context, codi string) (*domain.Fountain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetFountainByCodi"); err != nil {
		return nil, err
	}
	f, ok := m.fountains[codi]
	if !ok {
		return nil, database.NewNotFoundError("fountain", codi)
	}
	cp := *f
	return &cp, nil
}

func (m *memoryStore) CreateFountain(ctx context.Context, codi string, req domain.CreateFountainRequest) (*domain.Fountain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateFountain"); err != nil {
		return nil, err
	}
	if codi == "" {
		codi = uuid.NewString()
	}
	f := &domain.Fountain{
		Codi:         codi,
		Nom:          strings.TrimSpace(req.Nom),
		Carrer:       strings.TrimSpace(req.Carrer),
		NumeroCarrer: strings.TrimSpace(req.NumeroCarrer),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	m.fountains[codi] = f
	cp := *f
	return &cp, nil
}

func (m *memoryStore) SoftDeleteFountain(ctx context.Context, codi string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SoftDeleteFountain"); err != nil {
		return err
	}
	f, ok := m.fountains[codi]
	if !ok {
		return database.NewNotFoundError("fountain", codi)
	}
	f.IsDeleted = true
	return nil
}

func (m *memoryStore) ListFountainStats(ctx context.Context) ([]database.FountainStatsDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListFountainStats"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *memoryStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetLeaderboard:limit"] = limit
	if err := m.fail("GetLeaderboard"); err != nil {
		return nil, err
	}
	return []domain.LeaderboardEntry{{Nickname: "store", Rank: 1}}, nil
}

// fakeAuth is an AuthStore backed by the memoryStore. When trigger is set
// sign-up creates the profile the way the database trigger would.
type fakeAuth struct {
	store        *memoryStore
	trigger      bool
	needsConfirm bool
	users        map[string]string // email -> user id
	passwords    map[string]string
	signedOut    []string
	nextErr      error
}

func newFakeAuth(store *memoryStore) *fakeAuth {
	return &fakeAuth{
		store:     store,
		trigger:   true,
		users:     map[string]string{},
		passwords: map[string]string{},
	}
}

func (a *fakeAuth) takeErr() error {
	err := a.nextErr
	a.nextErr = nil
	return err
}

func (a *fakeAuth) SignUp(ctx context.Context, email, password, nickname string) (*database.AuthResult, error) {
	if err := a.takeErr(); err != nil {
		return nil, err
	}
	if _, ok := a.users[email]; ok {
		return nil, svcerrors.EmailTaken(nil)
	}
	id := uuid.NewString()
	a.users[email] = id
	a.passwords[email] = password
	if a.trigger {
		a.store.addProfile(domain.User{ID: id, Nickname: nickname, Role: domain.RoleOperator})
	}
	res := &database.AuthResult{UserID: id, Email: email}
	if !a.needsConfirm {
		res.Session = &session.Session{AccessToken: "token-" + id, RefreshToken: "refresh-" + id, UserID: id, Email: email}
	}
	return res, nil
}

func (a *fakeAuth) SignIn(ctx context.Context, email, password string) (*database.AuthResult, error) {
	if err := a.takeErr(); err != nil {
		return nil, err
	}
	id, ok := a.users[email]
	if !ok || a.passwords[email] != password {
		return nil, svcerrors.InvalidCredentials(nil)
	}
	return &database.AuthResult{
		UserID:  id,
		Email:   email,
		Session: &session.Session{AccessToken: "token-" + id, UserID: id, Email: email},
	}, nil
}

func (a *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	if err := a.takeErr(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(refreshToken, "refresh-") {
		return nil, svcerrors.InvalidToken(nil)
	}
	id := strings.TrimPrefix(refreshToken, "refresh-")
	return &session.Session{AccessToken: "token2-" + id, RefreshToken: refreshToken, UserID: id}, nil
}

func (a *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	if err := a.takeErr(); err != nil {
		return err
	}
	a.signedOut = append(a.signedOut, accessToken)
	return nil
}

type fakeReader struct {
	fountains []domain.Fountain
	entries   []domain.LeaderboardEntry
	err       error
	limit     int
}

func (r *fakeReader) ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error) {
	if r.err != nil {
		return nil, r.err
	}
	if includeDeleted {
		return r.fountains, nil
	}
	return domain.ActiveFountains(r.fountains), nil
}

func (r *fakeReader) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	r.limit = limit
	if r.err != nil {
		return nil, r.err
	}
	return r.entries, nil
}

type fakeConnectivity struct{ err error }

func (c fakeConnectivity) Check(context.Context) error { return c.err }

// fakeWatcher hands out subscriptions whose change callback the test fires.
type fakeWatcher struct {
	mu       sync.Mutex
	onChange func()
	subs     []*fakeSubscription
	err      error
	watching chan struct{}
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{watching: make(chan struct{}, 1)}
}

func (w *fakeWatcher) WatchProfile(ctx context.Context, userID, accessToken string, onChange func()) (Subscription, error) {
	if w.err != nil {
		return nil, w.err
	}
	sub := &fakeSubscription{done: make(chan struct{})}
	w.mu.Lock()
	w.onChange = onChange
	w.subs = append(w.subs, sub)
	w.mu.Unlock()
	select {
	case w.watching <- struct{}{}:
	default:
	}
	return sub, nil
}

func (w *fakeWatcher) fire() {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeSubscription struct {
	once   sync.Once
	done   chan struct{}
	closed bool
}

func (s *fakeSubscription) Done() <-chan struct{} { return s.done }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { s.closed = true })
	return nil
}

// testEnv bundles a service with its fakes.
type testEnv struct {
	svc     *Service
	store   *memoryStore
	auth    *fakeAuth
	watcher *fakeWatcher
	metrics *metrics.Metrics
}

func newTestEnv(opts ...func(*Config)) *testEnv {
	store := newMemoryStore()
	auth := newFakeAuth(store)
	watcher := newFakeWatcher()
	m := metrics.New("test")

	logger := logging.New("reviewer-test", "error", "json")
	logger.SetOutput(io.Discard)

	cfg := Config{
		Store:   store,
		Auth:    auth,
		Watcher: watcher,
		Metrics: m,
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	svc, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return &testEnv{svc: svc, store: store, auth: auth, watcher: watcher, metrics: m}
}

func userCtx(userID string) context.Context {
	return session.NewContext(context.Background(), &session.Session{AccessToken: "token-" + userID, UserID: userID})
}

// withTestSession stands in for the JWT middleware: "Bearer <user id>"
// becomes a session for that user.
func withTestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			id := strings.TrimPrefix(auth, "Bearer ")
			r = r.WithContext(session.NewContext(r.Context(), &session.Session{AccessToken: "token-" + id, UserID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

func ptr[T any](v T) *T { return &v }
