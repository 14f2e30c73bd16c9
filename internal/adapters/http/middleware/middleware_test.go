package middleware

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/csrf"
)

// TestRateLimiter_RefillsPerInterval verifies tokens are spent and refilled.
func TestRateLimiter_RefillsPerInterval(t *testing.T) {
	now := time.Date(2026, 4, 18, 19, 0, 0, 0, time.UTC)
	rl := &RateLimiter{visitors: map[string]*visitor{}, rate: 2, interval: time.Second, now: func() time.Time { return now }}

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within the interval should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IPs have their own bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after one interval")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("refill is capped at rate")
	}

	now = now.Add(10 * time.Minute)
	rl.sweep(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d, want 0 after sweep", len(rl.visitors))
	}
}

// TestRateLimit_SharesBucketAcrossPorts verifies the port is not part of the key.
func TestRateLimit_SharesBucketAcrossPorts(t *testing.T) {
	rl := &RateLimiter{visitors: map[string]*visitor{}, rate: 1, interval: time.Hour, now: time.Now}
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, addr := range []string{"192.0.2.1:1111", "192.0.2.1:2222"} {
		req := httptest.NewRequest("GET", "/checkin", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Errorf("request %d from %s: status = %d, want %d", i, addr, rr.Code, want)
		}
	}
}

// TestSecurityHeaders verifies the headers are set on every response.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "script-src 'self'") {
		t.Errorf("CSP = %q", rr.Header().Get("Content-Security-Policy"))
	}
}

// TestRequestID verifies IDs are unique and visible to handlers.
func TestRequestID(t *testing.T) {
	var seen []string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, GetRequestID(r.Context()))
	}))
	rr1, rr2 := httptest.NewRecorder(), httptest.NewRecorder()
	h.ServeHTTP(rr1, httptest.NewRequest("GET", "/", nil))
	h.ServeHTTP(rr2, httptest.NewRequest("GET", "/", nil))

	if len(seen) != 2 || seen[0] == "" || seen[0] == seen[1] {
		t.Errorf("ids = %v, want two distinct", seen)
	}
	if rr1.Header().Get("X-Request-ID") != seen[0] {
		t.Errorf("header = %q, want %q", rr1.Header().Get("X-Request-ID"), seen[0])
	}
	if GetRequestID(httptest.NewRequest("GET", "/", nil).Context()) != "" {
		t.Error("no id outside the middleware")
	}
}

func csrfTestHandler(t *testing.T) (http.Handler, *error) {
	t.Helper()
	var reason error
	key := []byte("0123456789abcdef0123456789abcdef")
	h := CSRF(CSRFOptions{
		Key:       key,
		FieldName: "event_add_meta_form_nonce",
		ErrorHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason = FailureReason(r)
			http.Error(w, "Invalid nonce specified", http.StatusForbidden)
		}),
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Token(r)))
	}))
	return h, &reason
}

// TestCSRF_RoundTrip verifies a token issued on GET is accepted from the form field or the header.
func TestCSRF_RoundTrip(t *testing.T) {
	h, _ := csrfTestHandler(t)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest("GET", "/checkin", nil))
	token := get.Body.String()
	cookies := get.Result().Cookies()
	if token == "" || len(cookies) == 0 {
		t.Fatalf("token %q, cookies %v", token, cookies)
	}

	form := httptest.NewRequest("POST", "/admin-post", strings.NewReader("event_add_meta_form_nonce="+url.QueryEscape(token)))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	header := httptest.NewRequest("POST", "/api/v1/checkin", strings.NewReader("checkin:a@b.com:7:42"))
	header.Header.Set("X-CSRF-Token", token)
	for _, req := range []*http.Request{form, header} {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", req.URL.Path, rr.Code)
		}
	}
}

// TestCSRF_Rejects verifies missing and forged tokens reach the error handler.
func TestCSRF_Rejects(t *testing.T) {
	h, reason := csrfTestHandler(t)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest("GET", "/checkin", nil))
	cookies := get.Result().Cookies()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", csrf.ErrNoToken},
		{"forged", "bm90LWEtdG9rZW4", csrf.ErrBadToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin-post", strings.NewReader("event_add_meta_form_nonce="+url.QueryEscape(tt.token)))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			for _, c := range cookies {
				req.AddCookie(c)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rr.Code)
			}
			if !errors.Is(*reason, tt.want) {
				t.Errorf("reason = %v, want %v", *reason, tt.want)
			}
		})
	}
}

// TestCSRF_HTTPSRequiresReferer verifies the Referer check still applies to TLS requests.
func TestCSRF_HTTPSRequiresReferer(t *testing.T) {
	h, reason := csrfTestHandler(t)
	req := httptest.NewRequest("POST", "https://desk.example/admin-post", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden || !errors.Is(*reason, csrf.ErrNoReferer) {
		t.Errorf("status = %d, reason = %v; want 403 no referer", rr.Code, *reason)
	}
}

// TestBodyLimit verifies the cap applies before the wrapped handler reads.
func TestBodyLimit(t *testing.T) {
	var readErr error
	var called bool
	h := BodyLimit(64, map[string]int64{"/api/v1/checkin": 8})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, readErr = io.ReadAll(r.Body)
	}))

	tests := []struct {
		name       string
		path       string
		body       string
		chunked    bool
		wantStatus int
		wantCalled bool
		wantReadOK bool
	}{
		{"under fallback", "/admin-post", strings.Repeat("a", 64), false, http.StatusOK, true, true},
		{"over fallback", "/admin-post", strings.Repeat("a", 65), false, http.StatusRequestEntityTooLarge, false, false},
		{"path override", "/api/v1/checkin", "checkin:a@b.com:7:42", false, http.StatusRequestEntityTooLarge, false, false},
		{"unknown length cut off", "/api/v1/checkin", "checkin:a@b.com:7:42", true, http.StatusOK, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called, readErr = false, nil
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if called && (readErr == nil) != tt.wantReadOK {
				t.Errorf("read error = %v, want ok=%v", readErr, tt.wantReadOK)
			}
		})
	}
}
