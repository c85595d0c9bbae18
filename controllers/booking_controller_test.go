package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"agency-backend/models"
	"agency-backend/services"
)

type fakeRepo struct {
	mu      sync.Mutex
	saved   []models.Booking
	failErr error
}

func (r *fakeRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	b.ID = uint(len(r.saved) + 1)
	r.saved = append(r.saved, *b)
	return nil
}

func (r *fakeRepo) AttachNotification(_ context.Context, id uint, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[id-1].TelegramMsgID = &messageID
	return nil
}

type fakeNotifier struct{}

func (fakeNotifier) Send(context.Context, *models.Booking) (string, bool) { return "1", true }

type harness struct {
	router  *gin.Engine
	repo    *fakeRepo
	svc     *services.BookingService
	metrics *services.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) }
	repo := &fakeRepo{}
	metrics := services.NewMetrics(prometheus.NewRegistry())
	svc := services.NewBookingService(repo, fakeNotifier{}, zerolog.Nop())
	svc.Metrics = metrics

	ctrl := NewBookingController(
		svc,
		services.NewBookingValidatorWithClock(now),
		services.NewFixedWindowLimiterWithClock(5, time.Hour, now),
		metrics,
		zerolog.Nop(),
	)

	r := gin.New()
	r.POST("/api/bookings", ctrl.CreateBooking)
	r.POST("/api/bookings/validate", ctrl.ValidateBooking)
	r.GET("/api/bookings/options", ctrl.GetBookingOptions)

	t.Cleanup(svc.Wait)
	return &harness{router: r, repo: repo, svc: svc, metrics: metrics}
}

func (h *harness) post(path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

const consultationBody = `{"type":"CONSULTATION","fullName":"Jane Doe","email":"jane@example.com",
	"phone":"+1 555 0100","preferredDate":"2025-06-20","preferredTime":"10:30 AM"}`

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCreateBookingCreated(t *testing.T) {
	h := newHarness(t)

	w := h.post("/api/bookings", consultationBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["success"] != true {
		t.Errorf("success = %v", out["success"])
	}
	ref, _ := out["reference"].(string)
	if !strings.HasPrefix(ref, "BK-") || len(ref) != len("BK-2025-123456") {
		t.Errorf("reference = %q", ref)
	}

	h.svc.Wait()
	if len(h.repo.saved) != 1 || h.repo.saved[0].Reference != ref {
		t.Fatalf("stored bookings = %+v", h.repo.saved)
	}
	if got := testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(services.OutcomeCreated)); got != 1 {
		t.Errorf("created submissions = %v, want 1", got)
	}
}

func TestCreateBookingValidationError(t *testing.T) {
	h := newHarness(t)

	body := strings.Replace(consultationBody, `"Jane Doe"`, `"J"`, 1)
	w := h.post("/api/bookings", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var out struct {
		Success bool `json:"success"`
		Errors  struct {
			FormErrors  []string            `json:"formErrors"`
			FieldErrors map[string][]string `json:"fieldErrors"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Success {
		t.Error("success should be false")
	}
	if got := out.Errors.FieldErrors["fullName"]; len(got) != 1 || got[0] != "Name must be at least 2 characters" {
		t.Errorf("fullName errors = %v", got)
	}
	if out.Errors.FormErrors == nil {
		t.Error("formErrors should be an empty list, not null")
	}
	if len(h.repo.saved) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestCreateBookingRateLimited(t *testing.T) {
	h := newHarness(t)
	headers := map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}

	for i := 1; i <= 5; i++ {
		if w := h.post("/api/bookings", consultationBody, headers); w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}

	w := h.post("/api/bookings", consultationBody, headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	out := decode(t, w)
	if out["error"] != "Too many requests. Please try again later." || out["success"] != false {
		t.Errorf("body = %v", out)
	}

	// a different client is unaffected
	if w := h.post("/api/bookings", consultationBody, map[string]string{"X-Real-IP": "198.51.100.4"}); w.Code != http.StatusCreated {
		t.Errorf("other client status = %d", w.Code)
	}
}

func TestCreateBookingRateLimitCountsInvalid(t *testing.T) {
	h := newHarness(t)
	headers := map[string]string{"X-Real-IP": "192.0.2.1"}

	for i := 0; i < 5; i++ {
		h.post("/api/bookings", `{"type":"nope"}`, headers)
	}
	if w := h.post("/api/bookings", consultationBody, headers); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
}

func TestCreateBookingStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.failErr = errors.New("connection refused")

	w := h.post("/api/bookings", consultationBody, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	out := decode(t, w)
	if out["error"] != "Something went wrong" {
		t.Errorf("error = %v", out["error"])
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details must not leak")
	}
}

func TestCreateBookingMalformedJSON(t *testing.T) {
	h := newHarness(t)

	w := h.post("/api/bookings", `{"type":"CONSULTATION",`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(services.OutcomeFailed)); got != 1 {
		t.Errorf("failed submissions = %v, want 1", got)
	}
}

func TestValidateBookingDoesNotStore(t *testing.T) {
	h := newHarness(t)

	if w := h.post("/api/bookings/validate", consultationBody, nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := h.post("/api/bookings/validate", `{"type":"PROJECT"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(h.repo.saved) != 0 {
		t.Error("validate must not store anything")
	}
	if got := testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(services.OutcomeInvalid)); got != 0 {
		t.Errorf("dry runs should not count as submissions, got %v", got)
	}
}

func TestGetBookingOptions(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/options", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var out struct {
		Types     []string `json:"types"`
		TimeSlots []string `json:"timeSlots"`
		Services  []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"services"`
		Limits struct {
			Email struct {
				Max int `json:"max"`
			} `json:"email"`
		} `json:"limits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Types) != 2 || len(out.TimeSlots) != len(models.TimeSlots) {
		t.Errorf("unexpected options %+v", out)
	}
	if len(out.Services) != len(models.ServiceOptions) || out.Services[0].Label == "" {
		t.Errorf("services = %+v", out.Services)
	}
	if out.Limits.Email.Max != models.EmailMax {
		t.Errorf("email limit = %d, want %d", out.Limits.Email.Max, models.EmailMax)
	}
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.2", "X-Real-IP": "198.51.100.1"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"empty forwarded", map[string]string{"X-Forwarded-For": " ", "X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"none", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientAddress(req); got != tt.want {
				t.Errorf("ClientAddress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateBookingMalformedNotCounted(t *testing.T) {
	h := newHarness(t)

	w := h.post("/api/bookings/validate", `{"type":`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := testutil.ToFloat64(h.metrics.Submissions.WithLabelValues(services.OutcomeFailed)); got != 0 {
		t.Errorf("dry runs should not count failed submissions, got %v", got)
	}
}

var referencePattern = regexp.MustCompile(`^BK-\d{4}-\d{6}$`)

func TestCreateBookingScenarios(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		field  string
		msg    string
	}{
		{
			name: "consultation accepted",
			body: `{"type":"CONSULTATION","fullName":"Jane Doe","email":"jane@x.com",
				"phone":"+94771234567","preferredDate":"2030-01-01","preferredTime":"9:00 AM"}`,
			status: http.StatusCreated,
		},
		{
			name: "project with one letter name",
			body: `{"type":"PROJECT","fullName":"A","email":"a@x.com","phone":"+94771234567",
				"service":"WEB_DESIGN","budgetRange":"Under $500","timeline":"ASAP",
				"description":"Need a site"}`,
			status: http.StatusBadRequest,
			field:  "fullName",
			msg:    "Name must be at least 2 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			w := h.post("/api/bookings", tt.body, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.status, w.Body.String())
			}

			var out struct {
				Success   bool   `json:"success"`
				Reference string `json:"reference"`
				Errors    struct {
					FieldErrors map[string][]string `json:"fieldErrors"`
				} `json:"errors"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if tt.status == http.StatusCreated {
				if !out.Success || !referencePattern.MatchString(out.Reference) {
					t.Errorf("success = %v, reference = %q", out.Success, out.Reference)
				}
				return
			}
			if out.Success {
				t.Error("success should be false")
			}
			if got := out.Errors.FieldErrors[tt.field]; len(got) != 1 || got[0] != tt.msg {
				t.Errorf("fieldErrors[%s] = %v, want [%q]", tt.field, got, tt.msg)
			}
			if len(h.repo.saved) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}
