package cms

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"supplement-coach/internal/config"
)

func TestFetchIngredientArticles(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test_key" {
				t.Errorf("Expected key 'test_key', got '%s'", r.URL.Query().Get("key"))
			}
			if !strings.Contains(r.URL.Query().Get("filter"), "ingredient") {
				t.Errorf("Expected ingredient tag filter, got '%s'", r.URL.Query().Get("filter"))
			}

			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"posts": [
					{"id": "1", "title": "Magnesium Glycinate", "html": "<h1>Magnesium</h1>", "updated_at": "2025-10-27T10:00:00Z"},
					{"id": "2", "title": "Ashwagandha", "html": "<h1>Ashwagandha</h1>", "updated_at": "2025-10-28T10:00:00Z"}
				]
			}`)
		}))
		defer server.Close()

		cfg := &config.Config{
			CMSURL:        server.URL,
			CMSContentKey: "test_key",
		}
		client := NewClient(cfg)

		articles, err := client.FetchIngredientArticles()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if len(articles) != 2 {
			t.Fatalf("Expected 2 articles, got %d", len(articles))
		}
		if articles[0].Title != "Magnesium Glycinate" {
			t.Errorf("Unexpected first article: %+v", articles[0])
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := &config.Config{
			CMSURL:        server.URL,
			CMSContentKey: "test_key",
		}
		client := NewClient(cfg)

		_, err := client.FetchIngredientArticles()
		if err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})
}

func TestPublishArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Ghost ") {
			t.Errorf("Expected Ghost token auth header, got '%s'", auth)
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintln(w, `{"posts": [{"id": "99", "title": "Weekly Coaching Report", "html": "<p>report</p>"}]}`)
	}))
	defer server.Close()

	cfg := &config.Config{
		CMSURL:      server.URL,
		CMSAdminKey: "keyid:aabbccdd",
	}
	client := NewClient(cfg)

	article, err := client.PublishArticle("Weekly Coaching Report", "<p>report</p>", true)
	if err != nil {
		t.Fatalf("PublishArticle failed: %v", err)
	}
	if article.ID != "99" {
		t.Errorf("Expected article ID 99, got '%s'", article.ID)
	}
}

func TestPublishArticleBadAdminKey(t *testing.T) {
	cfg := &config.Config{
		CMSURL:      "http://cms.test",
		CMSAdminKey: "not-an-id-secret-pair",
	}
	client := NewClient(cfg)

	if _, err := client.PublishArticle("x", "y", false); err == nil {
		t.Fatal("Expected an error for a malformed admin key, got nil")
	}
}
