package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewOpenAIClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{
			APIKey: "test-key",
		})

		if client.model != "gpt-4o" {
			t.Errorf("model = %q, want %q", client.model, "gpt-4o")
		}

		if client.systemPrompt != ExtractionPrompt {
			t.Error("systemPrompt should default to ExtractionPrompt")
		}

		if client.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", client.apiKey, "test-key")
		}
	})

	t.Run("custom model", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{
			APIKey: "test-key",
			Model:  "gpt-4o-mini",
		})

		if client.model != "gpt-4o-mini" {
			t.Errorf("model = %q, want %q", client.model, "gpt-4o-mini")
		}
	})
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Intent
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"recommended_specialty": "dentist", "location": "Berlin", "languages_found": ["de", "gb"], "gender_preference": ""}`,
			want:    Intent{Specialty: "dentist", Location: "Berlin", Languages: []string{"de", "gb"}},
		},
		{
			name:    "markdown code fence",
			content: "```json\n{\"recommended_specialty\": \"cardiologist\", \"location\": \"Paris\", \"languages_found\": [\"fr\"]}\n```",
			want:    Intent{Specialty: "cardiologist", Location: "Paris", Languages: []string{"fr"}},
		},
		{
			name:    "bare code fence",
			content: "```\n{\"recommended_specialty\": \"dermatologist\", \"location\": \"Madrid\", \"languages_found\": [\"es\"], \"gender_preference\": \"female\"}\n```",
			want:    Intent{Specialty: "dermatologist", Location: "Madrid", Languages: []string{"es"}, Gender: GenderFemale},
		},
		{
			name:    "unknown language codes dropped",
			content: `{"recommended_specialty": "dentist", "location": "Berlin", "languages_found": ["de", "klingon", "gb", "de"]}`,
			want:    Intent{Specialty: "dentist", Location: "Berlin", Languages: []string{"de", "gb"}},
		},
		{
			name:    "unknown gender normalized to none",
			content: `{"recommended_specialty": "dentist", "location": "Berlin", "languages_found": [], "gender_preference": "any"}`,
			want:    Intent{Specialty: "dentist", Location: "Berlin"},
		},
		{
			name:    "whitespace trimmed",
			content: `{"recommended_specialty": " dentist ", "location": " Berlin ", "languages_found": []}`,
			want:    Intent{Specialty: "dentist", Location: "Berlin"},
		},
		{
			name:    "not JSON",
			content: "I recommend seeing a dentist in Berlin.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIntent: %v", err)
			}
			if got.Specialty != tt.want.Specialty {
				t.Errorf("Specialty = %q, want %q", got.Specialty, tt.want.Specialty)
			}
			if got.Location != tt.want.Location {
				t.Errorf("Location = %q, want %q", got.Location, tt.want.Location)
			}
			if strings.Join(got.Languages, ",") != strings.Join(tt.want.Languages, ",") {
				t.Errorf("Languages = %v, want %v", got.Languages, tt.want.Languages)
			}
			if got.Gender != tt.want.Gender {
				t.Errorf("Gender = %q, want %q", got.Gender, tt.want.Gender)
			}
		})
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in   string
		want Gender
	}{
		{"male", GenderMale},
		{"female", GenderFemale},
		{"", GenderNone},
		{"other", GenderNone},
		{"MALE", GenderNone},
	}

	for _, tt := range tests {
		if got := NormalizeGender(tt.in); got != tt.want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenAIClient_Extract(t *testing.T) {
	// Stand-in for the chat completions endpoint.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		var body chatRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %d", len(body.Messages))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `{"recommended_specialty": "dentist", "location": "Berlin", "languages_found": ["de", "gb"]}`,
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})
	// Point the client at the test server.
	client.httpClient = srv.Client()
	client.httpClient.Transport = rewriteTransport{base: srv.Client().Transport, target: srv.URL}

	intent, err := client.Extract(context.Background(), "I have a toothache, I'm in Berlin")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if intent.Specialty != "dentist" || intent.Location != "Berlin" {
		t.Errorf("intent = %+v", intent)
	}
}

// rewriteTransport redirects all requests to the test server.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ru, err := req.URL.Parse(t.target)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = ru.Scheme
	req.URL.Host = ru.Host
	return t.base.RoundTrip(req)
}
