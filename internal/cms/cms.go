package cms

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"supplement-coach/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Article represents a single article from the CMS Content API. The editorial
// team maintains one article per supplement ingredient.
type Article struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

// ArticlesResponse is the top-level structure of the CMS API response.
type ArticlesResponse struct {
	Posts []Article `json:"posts"`
}

// Client is an interface for the CMS API (Content & Admin).
type Client interface {
	FetchIngredientArticles() ([]Article, error)
	PublishArticle(title, html string, publish bool) (*Article, error)
}

// cmsClient is the concrete implementation of the CMS API client.
type cmsClient struct {
	httpClient *http.Client
	config     *config.Config
}

// NewClient creates a new CMS API client.
func NewClient(cfg *config.Config) Client {
	return &cmsClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     cfg,
	}
}

// FetchIngredientArticles fetches the ingredient articles tagged for the
// knowledge base from the Content API.
func (c *cmsClient) FetchIngredientArticles() ([]Article, error) {
	url := fmt.Sprintf("%s/ghost/api/v3/content/posts/?key=%s&filter=tag:ingredient&limit=all",
		c.config.CMSURL, c.config.CMSContentKey)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var articlesResponse ArticlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&articlesResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return articlesResponse.Posts, nil
}

// PublishArticle creates a new article using the Admin API. The coach uses
// this to push weekly summary reports back to the member site.
func (c *cmsClient) PublishArticle(title, html string, publish bool) (*Article, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	status := "draft"
	if publish {
		status = "published"
	}

	newPost := map[string]interface{}{
		"posts": []map[string]interface{}{
			{
				"title":  title,
				"html":   html,
				"status": status,
			},
		},
	}

	body, _ := json.Marshal(newPost)
	url := fmt.Sprintf("%s/ghost/api/v3/admin/posts/?source=html", c.config.CMSURL)

	req, err := http.NewRequest("POST", url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	var response ArticlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Posts) == 0 {
		return nil, fmt.Errorf("no article returned from api")
	}

	return &response.Posts[0], nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *cmsClient) createAdminToken() (string, error) {
	keyParts := strings.Split(c.config.CMSAdminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secretHex := keyParts[1]

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/v3/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
