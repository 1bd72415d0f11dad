package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/http/middleware"
	"github.com/planora/planora-backend/internal/imagegen"
	"github.com/planora/planora-backend/internal/rating"
	"github.com/planora/planora-backend/internal/services"
)

//
// Stubs
//

// stubGate accepts "Bearer <id>:<role>".
type stubGate struct{}

func (stubGate) Authorize(header string) (auth.Identity, error) {
	if header == "" {
		return auth.Identity{}, auth.ErrMissingCredential
	}
	tok, found := strings.CutPrefix(header, "Bearer ")
	id, role, ok2 := strings.Cut(tok, ":")
	if !found || !ok2 {
		return auth.Identity{}, auth.ErrInvalidCredential
	}
	return auth.Identity{ID: id, Name: "N " + id, Email: id + "@x.io", Role: auth.Role(role)}, nil
}

type stubAccounts struct {
	register func(services.RegisterInput) (*services.Session, error)
	login    func(email, password, role string) (*services.Session, error)
	proIn    services.ProfessionalInput
	degree   string
	patch    services.ProfessionalPatch
	docs     map[string]string
	caller   auth.Identity
}

func (s *stubAccounts) Register(_ context.Context, in services.RegisterInput) (*services.Session, error) {
	return s.register(in)
}
func (s *stubAccounts) Login(_ context.Context, email, password, role string) (*services.Session, error) {
	return s.login(email, password, role)
}
func (s *stubAccounts) UpdateUser(_ context.Context, caller auth.Identity, userID string, in services.UserPatch) (*domain.User, string, error) {
	if err := auth.RequireOwner(caller, userID); err != nil {
		return nil, "", err
	}
	u := &domain.User{Name: in.Name, Email: caller.Email}
	u.ID = userID
	return u, "tok-2", nil
}
func (s *stubAccounts) RegisterProfessional(_ context.Context, in services.ProfessionalInput, degree *services.Upload) (string, error) {
	s.proIn = in
	if degree != nil {
		b, _ := io.ReadAll(degree.Body)
		s.degree = degree.Name + "=" + string(b)
	}
	return "pro-1", nil
}
func (s *stubAccounts) UpdateProfessional(_ context.Context, caller auth.Identity, id string, in services.ProfessionalPatch, docs map[string]services.Upload) (*domain.Professional, string, error) {
	s.caller, s.patch = caller, in
	s.docs = map[string]string{}
	for k, up := range docs {
		s.docs[k] = up.Name
	}
	p := &domain.Professional{Name: in.Name}
	p.ID = id
	return p, "tok-3", nil
}

type stubProfessionals struct{ filter services.ProfessionalFilter }

func (s *stubProfessionals) List(_ context.Context, f services.ProfessionalFilter) ([]domain.Professional, error) {
	s.filter = f
	return nil, nil
}
func (s *stubProfessionals) Profile(_ context.Context, id string) (*services.ProfessionalProfile, error) {
	if id != "p1" {
		return nil, services.ErrProfessionalNotFound
	}
	p := &domain.Professional{Name: "Ravi"}
	p.ID = id
	return &services.ProfessionalProfile{Professional: p}, nil
}

type stubProjects struct {
	images []string
	in     services.ProjectInput
	owner  string
}

func (s *stubProjects) List(context.Context, string, string) ([]domain.Project, error) {
	return nil, nil
}
func (s *stubProjects) Get(context.Context, string) (*services.ProjectDetail, error) {
	return nil, services.ErrProjectNotFound
}
func (s *stubProjects) Create(_ context.Context, caller auth.Identity, in services.ProjectInput, images []services.Upload) (string, error) {
	s.in, s.owner = in, caller.ID
	for _, im := range images {
		b, _ := io.ReadAll(im.Body)
		s.images = append(s.images, im.Name+"="+string(b))
	}
	return "proj-1", nil
}

type stubReviews struct {
	calls int
	last  services.ReviewInput
	// refreshErr is returned after the review has been stored.
	refreshErr error
}

func (s *stubReviews) Submit(_ context.Context, _ auth.Identity, in services.ReviewInput) (string, rating.Aggregate, error) {
	s.calls++
	s.last = in
	if in.Rating < 1 || in.Rating > 5 {
		return "", rating.Aggregate{}, services.ErrInvalidRating
	}
	if s.refreshErr != nil {
		return "rev-1", rating.Aggregate{}, s.refreshErr
	}
	return "rev-1", rating.Aggregate{Rating: in.Rating, TotalReviews: 1}, nil
}

type stubRequirements struct{ details map[string]any }

func (s *stubRequirements) Submit(_ context.Context, _ string, d map[string]any) (string, error) {
	s.details = d
	return "req-1", nil
}
func (s *stubRequirements) List(context.Context, string) ([]domain.Requirement, error) {
	return nil, nil
}

type stubEstimates struct{ in services.EstimateInput }

func (s *stubEstimates) Estimate(_ context.Context, _ string, in services.EstimateInput) (string, estimate.Breakdown, error) {
	s.in = in
	b, err := estimate.Compute(in.ProjectType, in.Area, in.QualityLevel)
	if err != nil {
		return "", estimate.Breakdown{}, err
	}
	return "est-1", b, nil
}
func (s *stubEstimates) List(context.Context, string) ([]domain.CostEstimate, error) {
	return nil, nil
}

type stubDesigns struct{ err error }

func (s *stubDesigns) Generate(_ context.Context, style string, img *services.Upload) (string, error) {
	if img == nil {
		return "", services.ErrMissingFile
	}
	if s.err != nil {
		return "", s.err
	}
	return "data:image/png;base64,QUJD#" + style, nil
}

type stubChat struct{}

func (stubChat) Send(_ context.Context, userID, message, ct string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{UserID: userID, Message: message, Response: "hi there", ContextType: ct}
	m.ID = "msg-1"
	return m, nil
}
func (stubChat) History(context.Context, string) ([]domain.ChatMessage, error) { return nil, nil }

type stubBookings struct{ calls int }

func (s *stubBookings) Create(context.Context, auth.Identity, services.BookingInput) (string, error) {
	s.calls++
	return "bk-1", nil
}
func (s *stubBookings) ListForUser(context.Context, string) ([]services.BookingView, error) {
	return nil, nil
}
func (s *stubBookings) ListForProfessional(_ context.Context, caller auth.Identity) ([]services.BookingView, error) {
	v := services.BookingView{UserName: "Asha"}
	v.ProfessionalID = caller.ID
	return []services.BookingView{v}, nil
}

type stubCollabs struct{}

func (stubCollabs) Upload(_ context.Context, _ auth.Identity, projectID, _ string, file *services.Upload) (string, error) {
	if file == nil {
		return "", services.ErrMissingFile
	}
	return "file-1", nil
}
func (stubCollabs) List(context.Context, string) ([]domain.Collaboration, error) { return nil, nil }

type remembered struct {
	user, scope, key, id string
	status               int
}

type stubIdem struct {
	stored map[string]string
	saved  []remembered
}

func (s *stubIdem) Lookup(_ context.Context, user, scope, key string) (string, bool, error) {
	id, ok := s.stored[user+"|"+scope+"|"+key]
	return id, ok, nil
}
func (s *stubIdem) Remember(_ context.Context, user, scope, key, id string, status int) error {
	s.saved = append(s.saved, remembered{user, scope, key, id, status})
	s.stored[user+"|"+scope+"|"+key] = id
	return nil
}

//
// Harness
//

type fixture struct {
	accounts *stubAccounts
	pros     *stubProfessionals
	projects *stubProjects
	reviews  *stubReviews
	reqs     *stubRequirements
	ests     *stubEstimates
	designs  *stubDesigns
	bookings *stubBookings
	idem     *stubIdem
	r        *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		accounts: &stubAccounts{},
		pros:     &stubProfessionals{},
		projects: &stubProjects{},
		reviews:  &stubReviews{},
		reqs:     &stubRequirements{},
		ests:     &stubEstimates{},
		designs:  &stubDesigns{},
		bookings: &stubBookings{},
		idem:     &stubIdem{stored: map[string]string{}},
	}
	h := New(Deps{
		Accounts:       f.accounts,
		Professionals:  f.pros,
		Projects:       f.projects,
		Reviews:        f.reviews,
		Requirements:   f.reqs,
		Estimates:      f.ests,
		Designs:        f.designs,
		Chat:           stubChat{},
		Bookings:       f.bookings,
		Collaborations: stubCollabs{},
		Idempotency:    f.idem,
	})

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/professional-register", h.RegisterProfessional)
	r.GET("/professionals", h.ListProfessionals)
	r.GET("/professionals/:id", h.GetProfessional)
	r.GET("/projects/:id", h.GetProject)
	r.POST("/generate-design", h.GenerateDesign)

	p := r.Group("", middleware.Authenticate(stubGate{}), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, f.idem.Lookup))
	p.PUT("/users/:id/update", h.UpdateUser)
	p.PUT("/professionals/:id/update", h.UpdateProfessional)
	p.POST("/projects", h.CreateProject)
	p.POST("/reviews", h.SubmitReview)
	p.POST("/requirements", h.SubmitRequirements)
	p.POST("/cost-estimate", h.CostEstimate)
	p.POST("/chat", h.Chat)
	p.POST("/bookings", h.CreateBooking)
	p.GET("/bookings/professional", middleware.RequireRole(auth.RoleProfessional), h.ListProfessionalBookings)
	p.POST("/collaborations", h.UploadCollaboration)
	f.r = r
	return f
}

func (f *fixture) do(method, path, token string, body io.Reader, contentType string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func (f *fixture) doJSON(method, path, token, body string, hdr ...string) *httptest.ResponseRecorder {
	return f.do(method, path, token, strings.NewReader(body), "application/json", hdr...)
}

type part struct{ field, name, content string }

func multipartBody(t *testing.T, fields map[string]string, files ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range files {
		fw, err := mw.CreateFormFile(p.field, p.name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(p.content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad json %q: %v", w.Body.String(), err)
	}
	return m
}

//
// Tests
//

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	f.accounts.register = func(in services.RegisterInput) (*services.Session, error) {
		if in.Email == "dup@x.io" {
			return nil, services.ErrAccountExists
		}
		return &services.Session{Token: "tok", User: services.AccountView{ID: "u1", Email: in.Email, Role: auth.RoleUser}}, nil
	}
	f.accounts.login = func(email, _, role string) (*services.Session, error) {
		if email == "ghost@x.io" {
			return nil, services.ErrAccountNotFound
		}
		r, err := auth.ParseRole(role)
		if err != nil {
			return nil, services.ErrInvalidInput
		}
		return &services.Session{Token: "tok", User: services.AccountView{ID: "p1", Role: r}}, nil
	}

	w := f.doJSON(http.MethodPost, "/register", "", `{"name":"A","email":"a@x.io","password":"pw"}`)
	if w.Code != http.StatusCreated || decode(t, w)["token"] != "tok" {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if w := f.doJSON(http.MethodPost, "/register", "", `{"name":"A","password":"pw"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing email: %d", w.Code)
	}
	if w := f.doJSON(http.MethodPost, "/register", "", `{"name":"A","email":"dup@x.io","password":"pw"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}

	w = f.doJSON(http.MethodPost, "/login", "", `{"email":"p@x.io","password":"pw","role":"professional"}`)
	if w.Code != http.StatusOK || decode(t, w)["message"] != "Professional login successful" {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	if w := f.doJSON(http.MethodPost, "/login", "", `{"email":"ghost@x.io","password":"pw"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown account: %d", w.Code)
	}
	if w := f.doJSON(http.MethodPost, "/login", "", `{"email":"p@x.io","password":"pw","role":"admin"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: %d", w.Code)
	}
}

func TestUpdateUser_OwnerOnlyAndAuth(t *testing.T) {
	f := newFixture(t)

	if w := f.doJSON(http.MethodPut, "/users/u1/update", "", `{}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w := f.doJSON(http.MethodPut, "/users/u1/update", "garbage", `{}`); w.Code != http.StatusForbidden || decode(t, w)["code"] != ErrCodeInvalidToken {
		t.Fatalf("bad token: %d %s", w.Code, w.Body.String())
	}
	if w := f.doJSON(http.MethodPut, "/users/u1/update", "u2:user", `{"name":"x"}`); w.Code != http.StatusForbidden || decode(t, w)["code"] != ErrCodeForbidden {
		t.Fatalf("other user: %d %s", w.Code, w.Body.String())
	}
	w := f.doJSON(http.MethodPut, "/users/u1/update", "u1:user", `{"name":"New"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("owner: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["token"] != "tok-2" || body["user"].(map[string]any)["name"] != "New" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegisterProfessional_Multipart(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string]string{
		"name": "Ravi", "email": "r@x.io", "password": "pw",
		"experience_years": "7", "hourly_rate": "45.5",
	}, part{"degree", "degree.pdf", "%PDF"})

	w := f.do(http.MethodPost, "/professional-register", "", body, ct)
	if w.Code != http.StatusCreated || decode(t, w)["professionalId"] != "pro-1" {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if f.accounts.proIn.ExperienceYears != 7 || f.accounts.proIn.HourlyRate != 45.5 || f.accounts.degree != "degree.pdf=%PDF" {
		t.Fatalf("service got %+v degree=%q", f.accounts.proIn, f.accounts.degree)
	}

	body, ct = multipartBody(t, map[string]string{"name": "R", "hourly_rate": "cheap"})
	if w := f.do(http.MethodPost, "/professional-register", "", body, ct); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric rate: %d", w.Code)
	}
}

func TestUpdateProfessional_DocumentsAndNumbers(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string]string{"bio": " Tiles ", "experience_years": "9"},
		part{"license", "lic.png", "x"}, part{"idProof", "id.png", "y"})

	w := f.do(http.MethodPut, "/professionals/p1/update", "p1:professional", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if f.accounts.patch.Bio != "Tiles" || f.accounts.patch.ExperienceYears == nil || *f.accounts.patch.ExperienceYears != 9 || f.accounts.patch.HourlyRate != nil {
		t.Fatalf("patch %+v", f.accounts.patch)
	}
	if len(f.accounts.docs) != 2 || f.accounts.docs["license"] != "lic.png" || f.accounts.docs["idProof"] != "id.png" {
		t.Fatalf("docs %v", f.accounts.docs)
	}
	if f.accounts.caller.ID != "p1" || decode(t, w)["token"] != "tok-3" {
		t.Fatalf("caller %+v", f.accounts.caller)
	}
}

func TestListProfessionals_Filters(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/professionals?city=Pune&minRating=4&maxRate=50", "", nil, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	fl := f.pros.filter
	if fl.City != "Pune" || fl.MinRating == nil || *fl.MinRating != 4 || fl.MaxRate == nil || *fl.MaxRate != 50 || fl.Specialization != "" {
		t.Fatalf("filter %+v", fl)
	}

	for _, q := range []string{"minRating=high", "maxRate=1e"} {
		if w := f.do(http.MethodGet, "/professionals?"+q, "", nil, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: %d", q, w.Code)
		}
	}
}

func TestGetProfessionalAndProject_NotFound(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodGet, "/professionals/p1", "", nil, ""); w.Code != http.StatusOK {
		t.Fatalf("profile: %d", w.Code)
	}
	w := f.do(http.MethodGet, "/professionals/zzz", "", nil, "")
	if w.Code != http.StatusNotFound || decode(t, w)["error"] != "Professional not found" {
		t.Fatalf("missing professional: %d %s", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodGet, "/projects/zzz", "", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing project: %d", w.Code)
	}
}

func TestCreateProject_MultipleImages(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string]string{"title": "Loft", "category": "Interior"},
		part{"images", "a.jpg", "AAA"}, part{"images", "b.jpg", "BBB"})

	w := f.do(http.MethodPost, "/projects", "u9:user", body, ct)
	if w.Code != http.StatusCreated || decode(t, w)["projectId"] != "proj-1" {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if f.projects.owner != "u9" || f.projects.in.Title != "Loft" {
		t.Fatalf("service got %+v owner=%s", f.projects.in, f.projects.owner)
	}
	if strings.Join(f.projects.images, ",") != "a.jpg=AAA,b.jpg=BBB" {
		t.Fatalf("images %v", f.projects.images)
	}
}

func TestSubmitReview_RatingParsing(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		body   string
		status int
		msg    string
	}{
		{`{"professional_id":"p1","rating":"4.5"}`, http.StatusCreated, ""},
		{`{"professional_id":"p1","rating":3}`, http.StatusCreated, ""},
		{`{"professional_id":"p1","rating":6}`, http.StatusBadRequest, ""},
		{`{"professional_id":"p1","rating":"great"}`, http.StatusBadRequest, "rating must be a number"},
		{`{"professional_id":"p1"}`, http.StatusBadRequest, "rating is required"},
		{`{"professional_id":"p1","rating":4`, http.StatusBadRequest, "invalid JSON body"},
		{`{"professional_id":7,"rating":4}`, http.StatusBadRequest, "invalid JSON body"},
	}
	for _, tc := range cases {
		w := f.doJSON(http.MethodPost, "/reviews", "u1:user", tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: %d %s", tc.body, w.Code, w.Body.String())
		}
		if tc.msg != "" && decode(t, w)["error"] != tc.msg {
			t.Fatalf("%s: error=%v want %q", tc.body, decode(t, w)["error"], tc.msg)
		}
	}
	if f.reviews.calls != 3 {
		t.Fatalf("service calls = %d; want 3", f.reviews.calls)
	}
}

func TestSubmitReview_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	body := `{"professional_id":"p1","rating":5}`

	w := f.doJSON(http.MethodPost, "/reviews", "u1:user", body, middleware.HeaderIdempotencyKey, "retry-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("first: %d %s", w.Code, w.Body.String())
	}
	if len(f.idem.saved) != 1 || f.idem.saved[0] != (remembered{"u1", "/reviews", "retry-1", "rev-1", http.StatusCreated}) {
		t.Fatalf("remembered %+v", f.idem.saved)
	}

	w = f.doJSON(http.MethodPost, "/reviews", "u1:user", body, middleware.HeaderIdempotencyKey, "retry-1")
	if w.Code != http.StatusOK || w.Header().Get(headerReplay) != "true" || decode(t, w)["reviewId"] != "rev-1" {
		t.Fatalf("replay: %d %s", w.Code, w.Body.String())
	}
	if f.reviews.calls != 1 {
		t.Fatalf("replay must not resubmit; calls=%d", f.reviews.calls)
	}

	// same key, different caller: fresh submission
	if w := f.doJSON(http.MethodPost, "/reviews", "u2:user", body, middleware.HeaderIdempotencyKey, "retry-1"); w.Code != http.StatusCreated {
		t.Fatalf("other user: %d", w.Code)
	}
	if f.reviews.calls != 2 {
		t.Fatalf("calls=%d", f.reviews.calls)
	}
}

func TestSubmitReview_RefreshFailureStillRecordsKey(t *testing.T) {
	f := newFixture(t)
	f.reviews.refreshErr = errors.New("aggregate write failed")
	body := `{"professional_id":"p1","rating":4}`

	w := f.doJSON(http.MethodPost, "/reviews", "u1:user", body, middleware.HeaderIdempotencyKey, "retry-2")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("first: %d %s", w.Code, w.Body.String())
	}
	if len(f.idem.saved) != 1 || f.idem.saved[0] != (remembered{"u1", "/reviews", "retry-2", "rev-1", http.StatusCreated}) {
		t.Fatalf("remembered %+v", f.idem.saved)
	}

	// The retry replays the stored review instead of inserting another.
	f.reviews.refreshErr = nil
	w = f.doJSON(http.MethodPost, "/reviews", "u1:user", body, middleware.HeaderIdempotencyKey, "retry-2")
	if w.Code != http.StatusOK || w.Header().Get(headerReplay) != "true" || decode(t, w)["reviewId"] != "rev-1" {
		t.Fatalf("retry: %d %s", w.Code, w.Body.String())
	}
	if f.reviews.calls != 1 {
		t.Fatalf("calls=%d want 1", f.reviews.calls)
	}
}

func TestCreateBooking_ReplayAndProfessionalList(t *testing.T) {
	f := newFixture(t)
	body := `{"professional_id":"p1","booking_date":"2026-11-02","booking_time":"10:00"}`
	for i := 0; i < 2; i++ {
		w := f.doJSON(http.MethodPost, "/bookings", "u1:user", body, middleware.HeaderIdempotencyKey, "bk-key")
		if decode(t, w)["bookingId"] != "bk-1" {
			t.Fatalf("attempt %d: %s", i, w.Body.String())
		}
	}
	if f.bookings.calls != 1 {
		t.Fatalf("calls=%d", f.bookings.calls)
	}

	if w := f.do(http.MethodGet, "/bookings/professional", "u1:user", nil, ""); w.Code != http.StatusForbidden {
		t.Fatalf("user on professional list: %d", w.Code)
	}
	w := f.do(http.MethodGet, "/bookings/professional", "p1:professional", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user_name":"Asha"`) {
		t.Fatalf("professional list: %d %s", w.Code, w.Body.String())
	}
}

func TestCostEstimate_StringNumbersAndRounding(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(http.MethodPost, "/cost-estimate", "u1:user",
		`{"project_type":"2BHK","area":"333.3","quality_level":"High","num_rooms":"2"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("estimate: %d %s", w.Code, w.Body.String())
	}
	if f.ests.in.Area != 333.3 || f.ests.in.NumRooms != 2 {
		t.Fatalf("service got %+v", f.ests.in)
	}
	b := decode(t, w)["breakdown"].(map[string]any)
	// 333.3 * 1400 * 1.5 = 699930; material 0.4 -> 279972
	if b["material_cost"] != float64(279972) || b["total_cost"] != float64(699930) {
		t.Fatalf("breakdown %v", b)
	}

	for _, bad := range []string{`{"project_type":"Villa"}`, `{"area":0}`, `{"area":"big"}`, `{"area":10,"num_rooms":"x"}`} {
		if w := f.doJSON(http.MethodPost, "/cost-estimate", "u1:user", bad); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: %d %s", bad, w.Code, w.Body.String())
		}
	}
}

func TestSubmitRequirements_RejectsNonObject(t *testing.T) {
	f := newFixture(t)
	w := f.doJSON(http.MethodPost, "/requirements", "u1:user", `{"rooms":3,"style":"boho"}`)
	if w.Code != http.StatusCreated || f.reqs.details["style"] != "boho" {
		t.Fatalf("submit: %d %v", w.Code, f.reqs.details)
	}
	if w := f.doJSON(http.MethodPost, "/requirements", "u1:user", `[1,2]`); w.Code != http.StatusBadRequest {
		t.Fatalf("array body: %d", w.Code)
	}
}

func TestChat_Send(t *testing.T) {
	f := newFixture(t)
	w := f.doJSON(http.MethodPost, "/chat", "u1:user", `{"message":"hello","context_type":"general"}`)
	body := decode(t, w)
	if w.Code != http.StatusCreated || body["messageId"] != "msg-1" || body["context_type"] != "general" {
		t.Fatalf("chat: %d %v", w.Code, body)
	}
	if w := f.doJSON(http.MethodPost, "/chat", "u1:user", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty chat: %d", w.Code)
	}
}

func TestGenerateDesign(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string]string{"style": "boho"}, part{"image", "room.jpg", "jpeg"})
	w := f.do(http.MethodPost, "/generate-design", "", body, ct)
	if w.Code != http.StatusOK || decode(t, w)["imageUrl"] != "data:image/png;base64,QUJD#boho" {
		t.Fatalf("generate: %d %s", w.Code, w.Body.String())
	}

	body, ct = multipartBody(t, map[string]string{"style": "boho"})
	if w := f.do(http.MethodPost, "/generate-design", "", body, ct); w.Code != http.StatusBadRequest {
		t.Fatalf("no image: %d", w.Code)
	}

	f.designs.err = errors.Join(errors.New("generate"), &imagegen.UpstreamError{Status: 503, Body: "loading"})
	body, ct = multipartBody(t, nil, part{"image", "room.jpg", "jpeg"})
	w = f.do(http.MethodPost, "/generate-design", "", body, ct)
	got := decode(t, w)
	if w.Code != http.StatusInternalServerError || got["error"] != "AI generation failed" || got["details"] != "loading" {
		t.Fatalf("upstream: %d %v", w.Code, got)
	}
}

func TestUploadCollaboration_MissingFile(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, map[string]string{"project_id": "proj-1"})
	w := f.do(http.MethodPost, "/collaborations", "u1:user", body, ct)
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "no file uploaded" {
		t.Fatalf("missing file: %d %s", w.Code, w.Body.String())
	}

	body, ct = multipartBody(t, map[string]string{"project_id": "proj-1"}, part{"file", "plan.pdf", "%PDF"})
	if w := f.do(http.MethodPost, "/collaborations", "u1:user", body, ct); w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
}
