package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/internal/service"
)

func writeKnowledgeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKnowledgeContextPrefersFullContext(t *testing.T) {
	path := writeKnowledgeFile(t, `{"fullContext": "the whole pre-rendered context"}`)
	svc := service.NewKnowledgeService(config.KnowledgeConfig{Path: path})

	got := svc.Context(context.Background())
	if got != "the whole pre-rendered context" {
		t.Fatalf("unexpected context: %q", got)
	}
}

func TestKnowledgeContextFormatsStructuredDocument(t *testing.T) {
	path := writeKnowledgeFile(t, `{
		"bmc": {
			"mission": "Create sustainable communities",
			"customerSegments": ["urban professionals", "nature lovers"],
			"valuePropositions": ["collective ownership"],
			"customerRelationships": "long-term partnership",
			"subBrands": {"BeWild": "produce", "Belong": "stays"},
			"commonProspectConcerns": ["financial commitment"]
		},
		"brandGuidelines": {
			"tone": {"assertive": "70%", "authentic": "30%"},
			"guidelines": ["no superlatives"],
			"brandPersona": "grounded",
			"purpose": "transparency"
		}
	}`)
	svc := service.NewKnowledgeService(config.KnowledgeConfig{Path: path})

	got := svc.Context(context.Background())
	for _, want := range []string{
		"Create sustainable communities",
		"urban professionals, nature lovers",
		"BeWild (produce), Belong (stays)",
		"Assertive (70%), Authentic (30%)",
		"no superlatives",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted context missing %q\ngot: %s", want, got)
		}
	}
}

func TestKnowledgeContextFallbacks(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(t *testing.T) config.KnowledgeConfig
	}{
		{
			name: "no source configured",
			cfg: func(t *testing.T) config.KnowledgeConfig {
				return config.KnowledgeConfig{}
			},
		},
		{
			name: "file does not exist",
			cfg: func(t *testing.T) config.KnowledgeConfig {
				return config.KnowledgeConfig{Path: filepath.Join(t.TempDir(), "missing.json")}
			},
		},
		{
			name: "file is not json",
			cfg: func(t *testing.T) config.KnowledgeConfig {
				return config.KnowledgeConfig{Path: writeKnowledgeFile(t, "not json at all")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewKnowledgeService(tt.cfg(t))
			got := svc.Context(context.Background())
			if !strings.Contains(got, "Error loading knowledge base documents") {
				t.Fatalf("expected fallback context, got %q", got)
			}
		})
	}
}

func TestKnowledgeContextLoadsOnce(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"fullContext": "remote context"}`))
	}))
	defer srv.Close()

	svc := service.NewKnowledgeService(config.KnowledgeConfig{URL: srv.URL})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if got := svc.Context(ctx); got != "remote context" {
			t.Fatalf("unexpected context: %q", got)
		}
	}
	if hits != 1 {
		t.Fatalf("expected a single fetch, got %d", hits)
	}
}

func TestUserQueries(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{
			name: "wrapped payload",
			body: `{"User_message": "Is the buy-in refundable?"}`,
			code: http.StatusOK,
			want: "Is the buy-in refundable?",
		},
		{
			name: "bare json string",
			body: `"How do visits work?"`,
			code: http.StatusOK,
			want: "How do visits work?",
		},
		{
			name: "empty wrapped payload",
			body: `{"User_message": "  "}`,
			code: http.StatusOK,
			want: "No specific user queries provided for this generation.",
		},
		{
			name: "unusable payload",
			body: `{"rows": []}`,
			code: http.StatusOK,
			want: "No specific user queries provided for this generation.",
		},
		{
			name: "webhook error",
			body: "boom",
			code: http.StatusInternalServerError,
			want: "No specific user queries provided for this generation.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc := service.NewKnowledgeService(config.KnowledgeConfig{UserQueriesURL: srv.URL})
			if got := svc.UserQueries(context.Background()); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUserQueriesWithoutWebhook(t *testing.T) {
	svc := service.NewKnowledgeService(config.KnowledgeConfig{})
	got := svc.UserQueries(context.Background())
	if got != "No specific user queries provided for this generation." {
		t.Fatalf("unexpected default: %q", got)
	}
}
