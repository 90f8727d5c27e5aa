package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
)

func geminiStub(t *testing.T, status int, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" || r.URL.RawQuery != "" {
			t.Errorf("api key must travel in the header only, query=%q", r.URL.RawQuery)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) == 0 {
			t.Errorf("bad request body: %v", err)
		} else if !strings.HasSuffix(req.Contents[0].Parts[0].Text, "some text") {
			t.Errorf("text not appended to prompt")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if answer == "" {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
			return
		}
		var resp geminiResponse
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{Parts: []geminiPart{{Text: answer}}}})
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiChecker(t *testing.T) {
	cases := []struct {
		name   string
		status int
		answer string
		want   Verdict
	}{
		{"safe", http.StatusOK, "SAFE", Safe},
		{"safe with whitespace", http.StatusOK, " SAFE\n", Safe},
		{"unsafe", http.StatusOK, "UNSAFE", Unsafe},
		{"anything else is unsafe", http.StatusOK, "I cannot tell", Unsafe},
		{"empty response", http.StatusOK, "", Unavailable},
		{"server error", http.StatusInternalServerError, "SAFE", Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := geminiStub(t, tc.status, tc.answer)
			defer srv.Close()

			g := NewGeminiChecker(srv.URL+"/", "gemini-test", "k", time.Second, logger.NewNop())
			got, err := g.Check(context.Background(), "some text")
			if got != tc.want {
				t.Fatalf("verdict = %s, want %s", got, tc.want)
			}
			if (tc.want == Unavailable) != errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v", err)
			}
			if CheckSafety(context.Background(), g, "some text") != (tc.want == Safe) {
				t.Fatal("CheckSafety disagrees with the verdict")
			}
		})
	}
}

func TestGeminiCheckerWithoutKey(t *testing.T) {
	g := NewGeminiChecker("http://127.0.0.1:1", "m", "", time.Second, logger.NewNop())
	v, err := g.Check(context.Background(), "x")
	if v != Unavailable || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %s, %v", v, err)
	}
}

func TestGeminiCheckerKeepsKeyOutOfErrors(t *testing.T) {
	g := NewGeminiChecker("http://127.0.0.1:1", "gemini", "SECRET-KEY-123", time.Second, logger.NewNop())
	v, err := g.Check(context.Background(), "x")
	if v != Unavailable || err == nil {
		t.Fatalf("got %s, %v", v, err)
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestStatic(t *testing.T) {
	s := &Static{Verdict: Unavailable}
	if CheckSafety(context.Background(), s, "x") {
		t.Fatal("unavailable must fail closed")
	}
	s.Verdict = Safe
	if !CheckSafety(context.Background(), s, "x") {
		t.Fatal("safe must pass")
	}
	if s.Calls() != 2 {
		t.Fatalf("calls = %d", s.Calls())
	}
}
