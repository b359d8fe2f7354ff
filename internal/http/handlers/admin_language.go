package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ElYoussoupha/TonToumaBot/internal/language"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// AdminLanguageHandler exposes the deployment-wide forced language
// setting. An empty or "auto" value clears the override and restores
// per-request detection.
type AdminLanguageHandler struct {
	settings *language.Settings
	logger   *logging.Logger
}

// NewAdminLanguageHandler creates the admin language handler.
func NewAdminLanguageHandler(settings *language.Settings, logger *logging.Logger) *AdminLanguageHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLanguageHandler{settings: settings, logger: logger.Named("admin_language")}
}

type globalLanguageResponse struct {
	Language  string   `json:"language"`
	Supported []string `json:"supported"`
}

type setGlobalLanguageRequest struct {
	Language string `json:"language"`
}

// Get handles GET /admin/settings/language.
func (h *AdminLanguageHandler) Get(w http.ResponseWriter, r *http.Request) {
	current := h.settings.GlobalLanguage()
	if current == "" {
		current = language.Auto
	}
	writeJSON(w, http.StatusOK, globalLanguageResponse{
		Language:  current,
		Supported: language.Supported,
	})
}

func supported(code string) bool {
	for _, s := range language.Supported {
		if s == code {
			return true
		}
	}
	return false
}

// Set handles POST /admin/settings/language.
func (h *AdminLanguageHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setGlobalLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	normalized := language.Normalize(req.Language)
	if normalized != "" && normalized != language.Auto && !supported(normalized) {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return
	}

	h.settings.SetGlobalLanguage(req.Language)
	h.logger.InfoContext(r.Context(), "global language updated", "language", req.Language)

	current := h.settings.GlobalLanguage()
	if current == "" {
		current = language.Auto
	}
	writeJSON(w, http.StatusOK, globalLanguageResponse{
		Language:  current,
		Supported: language.Supported,
	})
}
