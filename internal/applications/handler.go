package applications

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/uploads"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.list)
	rg.GET("/applications/:id", h.get)
	rg.PUT("/applications/:id", h.update)
	rg.DELETE("/applications/:id", h.delete)
	rg.POST("/applications/:id/add-resume", h.addResume)
	rg.GET("/applications/:id/download", h.download)
	rg.GET("/export/applications.xlsx", h.export)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	app, err := h.Svc.Create(c.Request.Context(), CreateInput{
		JobTitle:             req.JobTitle,
		Company:              req.Company,
		JobDescription:       req.JobDescription,
		AIModel:              req.AIModel,
		FormattingPreference: req.FormattingPreference,
	})
	if err != nil {
		writeError(c, err, "Failed to create application")
		return
	}
	respond.TagApplication(c, app.ID)
	respond.OK(c, toResponse(app))
}

func (h *Handler) list(c *gin.Context) {
	apps, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to retrieve applications")
		return
	}
	resp := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toResponse(app))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	app, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to retrieve application")
		return
	}
	respond.OK(c, toResponse(app))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Status != nil {
		respond.TagTransition(c, "", *req.Status)
	}

	app, err := h.Svc.Update(c.Request.Context(), id, req.patch())
	if err != nil {
		writeError(c, err, "Failed to update application")
		return
	}
	respond.OK(c, toResponse(app))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "Failed to delete application")
		return
	}
	respond.OK(c, gin.H{"success": true, "message": "Application deleted"})
}

func (h *Handler) addResume(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	if _, err := h.Svc.Get(c.Request.Context(), id); err != nil {
		writeError(c, err, "Failed to add resume")
		return
	}

	fileHeader, ok := uploads.FormFile(c)
	if !ok {
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer f.Close()

	file, err := h.Svc.AddResume(c.Request.Context(), id, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(c, err, "Failed to add resume")
		return
	}
	respond.OK(c, gin.H{"success": true, "resume": toResumeResponse(file)})
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	respond.TagApplication(c, id)

	dl, err := h.Svc.Download(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to download resume")
		return
	}
	respond.Attachment(c, dl.ContentType, dl.FileName, dl.Data)
}

func (h *Handler) export(c *gin.Context) {
	data, err := h.Svc.ExportXLSX(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to export applications")
		return
	}
	respond.Attachment(c, xlsxContentType, "applications.xlsx", data)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Application not found", nil)
	case errors.Is(err, ErrNotGenerated):
		respond.Error(c, http.StatusNotFound, "not_found", "No resume generated yet", nil)
	case errors.Is(err, ErrOutputMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "Resume file not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, uploads.ErrTooLarge), errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrInvalidInput):
		uploads.WriteError(c, err)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
