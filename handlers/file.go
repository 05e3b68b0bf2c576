package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"jaryo/middleware"
	"jaryo/services"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

var errBodyTooLarge = errors.New("request body too large")

// ListFiles serves both the authenticated and the public listing.
func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.services.Files.List(c.Request.Context(), services.ListFilesInput{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	})
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithCount(c, files, len(files))
}

func (h *Handler) GetFile(c *gin.Context) {
	file, err := h.services.Files.Get(c.Request.Context(), c.Param("id"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func (h *Handler) CreateFile(c *gin.Context) {
	values, uploads, ok := h.readForm(c)
	if !ok {
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	file, err := h.services.Files.Create(c.Request.Context(), services.CreateFileInput{
		ID:          formValue(values, "id"),
		Title:       formValue(values, "title"),
		Description: formValue(values, "description"),
		Category:    formValue(values, "category"),
		Tags:        services.ParseTags(formValue(values, "tags")),
		UserID:      principal.UserID,
	}, uploads)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, file, "file created")
}

func (h *Handler) UpdateFile(c *gin.Context) {
	values, uploads, ok := h.readForm(c)
	if !ok {
		return
	}

	in := services.UpdateFileInput{
		Title:       optionalValue(values, "title"),
		Description: optionalValue(values, "description"),
		Category:    optionalValue(values, "category"),
	}
	if raw := optionalValue(values, "tags"); raw != nil {
		tags := services.ParseTags(*raw)
		in.Tags = &tags
	}
	if raw := optionalValue(values, "filesToDelete"); raw != nil {
		ids, err := parseIDList(*raw)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "filesToDelete must be a list of attachment ids")
			return
		}
		in.FilesToDelete = ids
	}

	file, err := h.services.Files.Update(c.Request.Context(), c.Param("id"), in, uploads)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	if respondServiceError(c, h.services.Files.Delete(c.Request.Context(), c.Param("id"))) {
		return
	}
	utils.SuccessMessage(c, "file deleted")
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.services.Files.Stats(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, stats)
}

// readForm parses a multipart (or urlencoded) body capped at the configured total upload size.
func (h *Handler) readForm(c *gin.Context) (map[string][]string, []*multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxTotalSize)

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			respondFormError(c, err)
			return nil, nil, false
		}
		return c.Request.PostForm, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondFormError(c, err)
		return nil, nil, false
	}
	uploads := append([]*multipart.FileHeader{}, form.File["files"]...)
	uploads = append(uploads, form.File["files[]"]...)
	return form.Value, uploads, true
}

func respondFormError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), errBodyTooLarge.Error()) {
		utils.Error(c, http.StatusRequestEntityTooLarge, "upload exceeds the total size limit")
		return
	}
	utils.Error(c, http.StatusBadRequest, "invalid form body")
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func optionalValue(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	value := v[0]
	return &value
}

// parseIDList reads a JSON array of numbers or numeric strings, or a comma separated list.
func parseIDList(raw string) ([]uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []interface{}
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, err
		}
	} else {
		for _, part := range strings.Split(raw, ",") {
			items = append(items, strings.TrimSpace(part))
		}
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		var text string
		switch v := item.(type) {
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			text = v
		default:
			return nil, errors.New("unsupported id type")
		}
		id, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
