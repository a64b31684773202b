package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"supplement-coach/internal/aiparse"
	"supplement-coach/internal/cms"
	"supplement-coach/internal/llm"

	"github.com/PuerkitoBio/goquery"
)

// Clipper fetches ingredient write-ups from external sites and files them
// into the CMS as ingredient articles, ready for monograph ingestion.
type Clipper struct {
	cmsClient cms.Client
	textGen   llm.TextGenerator
}

// ExtractedArticle represents the data structured by the AI.
type ExtractedArticle struct {
	Ingredient  string   `json:"ingredient"`
	Summary     string   `json:"summary"`
	Benefits    []string `json:"benefits"`
	TypicalDose string   `json:"typical_dose"`
	Cautions    []string `json:"cautions"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(cmsClient cms.Client, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		cmsClient: cmsClient,
		textGen:   textGen,
	}
}

// ClipURL fetches the URL, extracts the ingredient write-up using AI, and
// saves it to the CMS.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*cms.Article, error) {
	// 1. Fetch and Clean HTML
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	// 2. Extract Data via LLM
	prompt := fmt.Sprintf(`
You are a supplement research assistant. Extract the ingredient write-up from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "ingredient": "canonical ingredient name",
  "summary": "2-3 sentence plain-language summary",
  "benefits": ["benefit 1", "benefit 2", ...],
  "typical_dose": "e.g. 200-400 mg daily",
  "cautions": ["caution 1", "caution 2", ...]
}

Page Content:
%s
`, content)

	llmResponse, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	parsed, err := aiparse.Parse(llmResponse.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	var extracted ExtractedArticle
	buf, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode AI response: %w", err)
	}
	if err := json.Unmarshal(buf, &extracted); err != nil {
		return nil, fmt.Errorf("failed to decode extracted article: %w", err)
	}
	if extracted.Ingredient == "" {
		return nil, fmt.Errorf("no ingredient name extracted from %s", url)
	}

	// 3. Format as CMS HTML
	html := c.formatToHTML(extracted, url)

	// 4. Save to CMS (Published)
	article, err := c.cmsClient.PublishArticle(extracted.Ingredient, html, true)
	if err != nil {
		return nil, fmt.Errorf("failed to save to cms: %w", err)
	}

	return article, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

func (c *Clipper) formatToHTML(a ExtractedArticle, sourceURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", sourceURL, sourceURL))

	sb.WriteString(fmt.Sprintf("<p>%s</p>", a.Summary))

	sb.WriteString("<h2>Benefits</h2><ul>")
	for _, b := range a.Benefits {
		sb.WriteString(fmt.Sprintf("<li>%s</li>", b))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Cautions</h2><ul>")
	for _, caution := range a.Cautions {
		sb.WriteString(fmt.Sprintf("<li>%s</li>", caution))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<hr>")
	sb.WriteString(fmt.Sprintf("<p><strong>Typical Dose:</strong> %s</p>", a.TypicalDose))

	return sb.String()
}
