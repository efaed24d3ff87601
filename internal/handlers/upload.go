package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
	"github.com/yukikurage/issue-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/services"
)

// maxUploadBody bounds the whole multipart request: the largest accepted
// file set plus room for the form fields.
const maxUploadBody = constants.MaxUploadFiles*constants.MaxUploadFileSize + 1<<20

type UploadHandler struct {
	attachmentService *services.AttachmentService
}

func NewUploadHandler(attachmentService *services.AttachmentService) *UploadHandler {
	return &UploadHandler{
		attachmentService: attachmentService,
	}
}

// Upload attaches up to five images to a comment of the current user
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.Respond(c, services.ErrFileTooLarge)
			return
		}
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	ids := form.Value[constants.UploadCommentField]
	if len(ids) != 1 {
		apierrors.BadRequest(c, "comment_id is required")
		return
	}
	commentID, err := middleware.ParseID(ids[0])
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	docs, err := h.attachmentService.Create(c.Request.Context(), middleware.GetPrincipal(c), commentID, form.File[constants.UploadFormField])
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"documents": dto.ToDocumentDTOs(docs)})
}

// Download streams an attachment
func (h *UploadHandler) Download(c *gin.Context) {
	doc, body, err := h.attachmentService.Open(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	defer body.Close()

	size := doc.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, doc.ContentType, body, map[string]string{
		"Content-Disposition": `inline; filename="` + doc.URL + `"`,
	})
}

// Delete removes an attachment and its file
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.attachmentService.Delete(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}
