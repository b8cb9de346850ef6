package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/resume/render"
)

const rateLimitedMessage = "AI Rate Limit Exceeded. You have likely hit the daily quota for the free tier. Please try again tomorrow or upgrade your API key."

// Handler exposes the generate endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the generate route; middleware runs before the handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, middleware...), h.generate)
	rg.POST("/applications/:id/generate", handlers...)
}

type generateResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	DownloadURL string `json:"download_url"`
	Analysis    any    `json:"analysis"`
}

func (h *Handler) generate(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	outcome, err := h.Svc.Generate(c.Request.Context(), id)
	if err != nil {
		var failed *FailedRunError
		if errors.As(err, &failed) {
			respond.TagTransition(c, "processing", "failed")
		}
		WriteError(c, err)
		return
	}

	respond.TagTransition(c, "processing", "completed")
	respond.OK(c, generateResponse{
		Success:     true,
		Message:     "Resume generated successfully",
		DownloadURL: outcome.DownloadURL,
		Analysis:    outcome.Analysis,
	})
}

// WriteError maps pipeline errors onto HTTP statuses and the error envelope.
func WriteError(c *gin.Context, err error) {
	var malformed *MalformedOutputError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Application not found", nil)
	case errors.Is(err, ErrNoInputResumes):
		respond.Error(c, http.StatusBadRequest, "no_input_resumes", "No base resumes uploaded", nil)
	case errors.Is(err, ErrNoParseableInput):
		respond.Error(c, http.StatusBadRequest, "no_parseable_input", "Could not parse any provided resumes", nil)
	case errors.Is(err, llm.ErrRateLimited):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", rateLimitedMessage, nil)
	case errors.Is(err, llm.ErrMissingCredentials),
		errors.Is(err, llm.ErrUnsupportedProvider),
		errors.Is(err, ErrUnknownModel):
		respond.Error(c, http.StatusBadRequest, "configuration_error", err.Error(), nil)
	case errors.As(err, &malformed):
		respond.Error(c, http.StatusInternalServerError, "malformed_model_output", "AI failed to generate structured data. Please try again.", gin.H{"parser": malformed.Message})
	case errors.Is(err, render.ErrRenderFailure):
		respond.Error(c, http.StatusInternalServerError, "render_failure", "Failed to generate DOCX file", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Error generating resume", nil)
	}
}
