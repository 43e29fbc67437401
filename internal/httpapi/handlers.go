package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/imaging"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
	"github.com/ironsheep/ad-template-matcher/internal/scoring"
)

// imageExts are the upload extensions the decoder understands.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// uploadTemplateHandler stores an uploaded template image under a random
// name and analyzes it into the cache.
func (a *API) uploadTemplateHandler(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("template_name"))
	if name == "" {
		a.respondError(c, apperrors.InvalidInput("template_name is required"))
		return
	}
	file, err := c.FormFile("template_image")
	if err != nil {
		a.respondError(c, apperrors.InvalidInput("template_image is required"))
		return
	}
	if a.opts.MaxUploadBytes > 0 && file.Size > a.opts.MaxUploadBytes {
		a.respondError(c, apperrors.InvalidInput(fmt.Sprintf("template_image too large (max %d bytes)", a.opts.MaxUploadBytes)))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		a.respondError(c, apperrors.InvalidImage(file.Filename, fmt.Errorf("unsupported extension %q", ext)))
		return
	}

	data, err := readUpload(file)
	if err != nil {
		a.respondError(c, apperrors.InvalidInput(fmt.Sprintf("read template_image: %v", err)))
		return
	}
	img, err := imaging.Decode(data, file.Filename)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if err := os.MkdirAll(a.opts.TemplateDir, 0o755); err != nil {
		a.respondError(c, apperrors.StorageFailed(a.opts.TemplateDir, err))
		return
	}
	stored := uuid.New().String() + ext
	path := filepath.Join(a.opts.TemplateDir, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.respondError(c, apperrors.StorageFailed(path, err))
		return
	}

	id := matcher.TemplateID(name, a.opts.IDSuffix)
	analysis, err := a.svc.AnalyzeAndCache(c.Request.Context(), id, img)
	if err != nil {
		os.Remove(path)
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Template uploaded and cached successfully",
		"template_id": id,
		"stored_as":   stored,
		"metadata":    analysis.Metadata,
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// selectTemplateHandler picks the best cached template for an ad.
func (a *API) selectTemplateHandler(c *gin.Context) {
	var ad scoring.AdContent
	if err := c.ShouldBindJSON(&ad); err != nil {
		a.respondError(c, apperrors.InvalidInput(fmt.Sprintf("invalid ad content: %v", err)))
		return
	}

	best, err := a.svc.Select(c.Request.Context(), ad)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"selected_template": best.TemplateID,
		"score":             best.Score,
	})
}

func (a *API) listTemplatesHandler(c *gin.Context) {
	snap, err := a.svc.Templates()
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     snap.Len(),
		"templates": snap.Entries(),
	})
}

func (a *API) getTemplateHandler(c *gin.Context) {
	id := c.Param("id")
	md, ok, err := a.svc.Store().Get(id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if !ok {
		a.respondError(c, apperrors.TemplateNotFound(id))
		return
	}
	c.JSON(http.StatusOK, cache.Entry{ID: id, Metadata: md})
}

func (a *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
