package stub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

type generateRequest struct {
	ContentType string   `json:"content_type" validate:"required"`
	Keywords    string   `json:"keywords"`
	Platforms   []string `json:"platforms" validate:"required,min=1"`
}

func (s *Server) handleGenerateBulk(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleGenerateBulk"
	log := s.log.With(slog.String("op", op))

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		respondError(w, r, http.StatusUnprocessableEntity, validationText(err))
		return
	}

	features := s.featuresFor(userID(r))
	if !entitlements.Allows(features, entitlements.FeatureBulkGeneration) {
		respondUpgradeRequired(w, r, "Bulk content generation requires Starter plan or higher. Please upgrade your subscription.")
		return
	}
	for _, platform := range req.Platforms {
		if !entitlements.Allows(features, entitlements.Platform(platform)) {
			respondUpgradeRequired(w, r,
				fmt.Sprintf("Platform %s is not available on your plan. Please upgrade your subscription.", platform))
			return
		}
	}

	content := make([]models.GeneratedPost, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		content = append(content, buildPost(platform, req.ContentType, req.Keywords))
	}

	log.Info("content generated", slog.Int("posts", len(content)))
	respondOK(w, r, map[string]any{"content": content})
}

// buildPost собирает демонстрационный пост для платформы.
func buildPost(platform, contentType, keywords string) models.GeneratedPost {
	subject := strings.TrimSpace(keywords)
	if subject == "" {
		subject = "our latest arrivals"
	}

	var text string
	switch contentType {
	case "vehicle_showcase":
		text = fmt.Sprintf("🚗 Check out %s at our dealership! Stop by for a test drive today.", subject)
	case "service_promotion":
		text = fmt.Sprintf("🔧 Limited-time service special: %s. Book your appointment now!", subject)
	default:
		text = fmt.Sprintf("📣 News from our dealership: %s.", subject)
	}

	post := models.GeneratedPost{
		Platform: platform,
		Content:  text,
	}
	if platform != "x" {
		post.Hashtags = []string{"#cars", "#dealership", "#" + strings.ReplaceAll(platform, ".", "")}
	}
	post.CharacterCount = len([]rune(post.Content))
	return post
}

type scrapingRequest struct {
	WebsiteURL string `json:"website_url" validate:"required,url"`
}

func (s *Server) handleScrapingSetup(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleScrapingSetup"
	log := s.log.With(slog.String("op", op))

	var req scrapingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		respondError(w, r, http.StatusUnprocessableEntity, validationText(err))
		return
	}

	if !entitlements.Allows(s.featuresFor(userID(r)), entitlements.FeatureWebsiteScraping) {
		respondUpgradeRequired(w, r, "Website scraping requires Starter plan or higher. Please upgrade your subscription.")
		return
	}

	platform := DetectPlatform(req.WebsiteURL)
	log.Info("scraping configured",
		slog.String("website_url", req.WebsiteURL), slog.String("platform", platform))

	respondOK(w, r, map[string]any{
		"website_url":       req.WebsiteURL,
		"platform_detected": platform,
		"message":           "Scraping configured for " + req.WebsiteURL,
	})
}

// featuresFor возвращает набор возможностей пользователя; без подписки — trial.
func (s *Server) featuresFor(id int) models.FeatureSet {
	sub, err := s.store.SubscriptionFor(id)
	if err != nil || sub.Features == nil {
		return entitlements.Fallback(models.PlanTrial)
	}
	return *sub.Features
}
