package app

import (
	"context"
	"fmt"
	"log"

	"supplement-coach/internal/cms"
	"supplement-coach/internal/monograph"
)

// IngestMonographs fetches the ingredient articles from the CMS and distills
// each one into a monograph with an embedding. Articles whose source content
// has not changed since the last ingest are skipped.
func (a *App) IngestMonographs(ctx context.Context) error {
	fmt.Println("Fetching and processing ingredient articles...")

	articles, err := a.cmsClient.FetchIngredientArticles()
	if err != nil {
		return fmt.Errorf("failed to fetch articles from cms: %w", err)
	}

	fmt.Printf("Fetched %d ingredient articles from the CMS.\n", len(articles))
	processed := 0
	for _, article := range articles {
		fresh, err := a.isMonographFresh(ctx, article)
		if err != nil {
			log.Printf("Warning: freshness check failed for '%s': %v", article.Title, err)
		}
		if fresh {
			log.Printf("Monograph for '%s' is up to date. Skipping.", article.Title)
			continue
		}

		log.Printf("Extracting monograph for '%s'...", article.Title)
		if err := a.processArticle(ctx, article); err != nil {
			log.Printf("Failed to process '%s': %v", article.Title, err)
			continue
		}
		processed++
	}

	fmt.Printf("Ingestion complete. Processed %d monograph(s).\n", processed)
	return nil
}

// processArticle extracts, stores, and embeds one monograph.
func (a *App) processArticle(ctx context.Context, article cms.Article) error {
	result, err := monograph.ExtractFromArticle(ctx, a.textGen, article)
	if err != nil {
		return fmt.Errorf("failed to extract monograph: %w", err)
	}

	if err := a.monographRepo.Save(ctx, result.Monograph); err != nil {
		return fmt.Errorf("failed to save monograph: %w", err)
	}

	embedding, err := a.embedGen.GenerateEmbedding(ctx, result.Monograph.ToEmbeddingText())
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}
	if err := a.vectorRepo.Save(ctx, result.Monograph.ID, embedding); err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}

	if err := a.metricsStore.RecordMeta(ctx, result.Meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", result.Meta.AgentName, err)
	}

	return nil
}

// isMonographFresh reports whether the stored monograph already reflects the
// article's current revision.
func (a *App) isMonographFresh(ctx context.Context, article cms.Article) (bool, error) {
	existing, err := a.monographRepo.Get(ctx, "mono-"+article.ID)
	if err != nil || existing == nil {
		return false, err
	}
	return existing.SourceUpdatedAt == article.UpdatedAt && article.UpdatedAt != "", nil
}
