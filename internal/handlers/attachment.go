package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

// MaxUploadSize bounds a single attachment.
const MaxUploadSize = 25 << 20

// AttachmentRequest is a file sent inside a JSON body, base64 encoded. Data
// may carry a data URL prefix.
type AttachmentRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data string `json:"data"`
}

func (a AttachmentRequest) decode() (services.FileUpload, error) {
	payload := a.Data
	if strings.HasPrefix(payload, "data:") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))

	if err != nil {
		return services.FileUpload{}, fmt.Errorf("Attachment %q is not valid base64", a.Name)
	}

	if len(data) > MaxUploadSize {
		return services.FileUpload{}, fmt.Errorf("Attachment %q is too large", a.Name)
	}

	return services.FileUpload{Name: a.Name, Size: a.Size, MimeType: a.Type, Data: data}, nil
}

func decodeAttachments(list []AttachmentRequest) ([]services.FileUpload, error) {
	uploads := make([]services.FileUpload, 0, len(list))

	for _, a := range list {
		up, err := a.decode()

		if err != nil {
			return nil, err
		}

		uploads = append(uploads, up)
	}

	return uploads, nil
}

// readUpload accepts a multipart "file" field or a JSON AttachmentRequest.
func readUpload(ctx *gin.Context) (services.FileUpload, error) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		header, err := ctx.FormFile("file")

		if err != nil {
			return services.FileUpload{}, fmt.Errorf("A file is required")
		}

		if header.Size > MaxUploadSize {
			return services.FileUpload{}, fmt.Errorf("Attachment %q is too large", header.Filename)
		}

		f, err := header.Open()

		if err != nil {
			return services.FileUpload{}, fmt.Errorf("Failed to read upload")
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))

		if err != nil || len(data) > MaxUploadSize {
			return services.FileUpload{}, fmt.Errorf("Failed to read upload")
		}

		return services.FileUpload{
			Name:     header.Filename,
			Size:     header.Size,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		}, nil
	}

	var body AttachmentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || body.Name == "" {
		return services.FileUpload{}, fmt.Errorf("A file is required")
	}

	return body.decode()
}

func (h *Handler) UploadTaskAttachment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	taskID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid task ID")
		return
	}

	up, err := readUpload(ctx)

	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	view, err := h.Attachments.UploadTaskAttachment(ctx.Request.Context(), userID, taskID, up)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "message": "File uploaded successfully", "attachment": view})
}

func (h *Handler) ListTaskAttachments(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	taskID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid task ID")
		return
	}

	list, err := h.Attachments.ListForTask(ctx.Request.Context(), userID, taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *Handler) DownloadAttachment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	attachmentID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid attachment ID")
		return
	}

	att, file, err := h.Attachments.Open(ctx.Request.Context(), userID, attachmentID)

	if err != nil {
		respondError(ctx, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()

	if err != nil {
		respondError(ctx, err)
		return
	}

	if att.MimeType != "" {
		ctx.Header("Content-Type", att.MimeType)
	}
	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.OriginalName}))

	http.ServeContent(ctx.Writer, ctx.Request, att.OriginalName, info.ModTime(), file)
}

func (h *Handler) DeleteAttachment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		unauthenticated(ctx)
		return
	}

	attachmentID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		badRequest(ctx, "Invalid attachment ID")
		return
	}

	if err := h.Attachments.Delete(ctx.Request.Context(), userID, attachmentID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Attachment deleted successfully"})
}
