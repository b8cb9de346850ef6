package uploads

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

const tooLargeMessage = "File size exceeds 10MB limit"

// multipartOverhead leaves room for boundaries and headers around a maximum-size file.
const multipartOverhead = 1 << 20

// Handler serves the standalone upload endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, ok := FormFile(c)
	if !ok {
		return
	}
	file, err := h.Svc.SaveMultipart(c, fileHeader)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, file)
}

// FormFile reads the "file" multipart field, writing a 400 response when it is absent or oversized.
func FormFile(c *gin.Context) (*multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", tooLargeMessage, nil)
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return nil, false
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", tooLargeMessage, nil)
		return nil, false
	}
	return fileHeader, true
}

// SaveMultipart stores a multipart file using its declared content type.
func (s *Service) SaveMultipart(c *gin.Context, fileHeader *multipart.FileHeader) (File, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return File{}, errors.Join(ErrInvalidInput, err)
	}
	defer f.Close()
	return s.Save(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f)
}

// WriteError maps upload errors onto the error envelope.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "validation_error", tooLargeMessage, nil)
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unsupported file type. Allowed: "+strings.Join(AllowedExtensions, ", "), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Internal server error during upload", nil)
	}
}
