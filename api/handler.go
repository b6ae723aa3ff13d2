package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/server"
	"github.com/kbukum/voicegate/transcription"
)

// FormField is the multipart field carrying the audio upload.
const FormField = "file"

// Transcriber is the part of transcription.Service the handler needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
	ModelInfo() transcription.ModelInfo
}

// Response is the body of a successful POST /transcribe.
type Response struct {
	*transcription.Result
	VADFilterUsed bool `json:"vad_filter_used"`
}

// Handler serves the upload endpoint.
type Handler struct {
	svc      Transcriber
	cfg      Config
	maxBytes int64
	log      *logger.Logger
}

// NewHandler creates a Handler. cfg defaults are applied here.
func NewHandler(svc Transcriber, cfg Config) *Handler {
	cfg.ApplyDefaults()
	return &Handler{
		svc:      svc,
		cfg:      cfg,
		maxBytes: cfg.MaxBytes(),
		log:      logger.Get("api"),
	}
}

// Register mounts the endpoint on every router, typically the root and the
// API prefix group returned by server.Routers.
func (h *Handler) Register(routers ...gin.IRouter) {
	for _, r := range routers {
		r.POST("/transcribe", h.Transcribe)
	}
}

// Transcribe handles POST /transcribe with a multipart "file" field.
func (h *Handler) Transcribe(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.WithContext(ctx)

	header, err := c.FormFile(FormField)
	if err != nil {
		server.RespondWithError(c, h.uploadError(err))
		return
	}
	if header.Size > h.maxBytes {
		log.Warn("upload rejected", logger.Fields("filename", header.Filename, "size", header.Size))
		server.RespondWithError(c, errors.PayloadTooLarge(h.maxBytes))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !h.allowedType(contentType) {
		log.Warn("unexpected content type, processing anyway", logger.Fields(
			"filename", header.Filename,
			"content_type", contentType,
		))
	}
	log.Info("transcribing upload", logger.Fields(
		"filename", header.Filename,
		"content_type", contentType,
		"size", header.Size,
	))

	path, err := h.saveUpload(header)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer func() {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			log.Warn("removing upload failed", logger.Fields(logger.FieldPath, path, logger.FieldError, rerr))
		}
	}()

	res, err := h.svc.Transcribe(ctx, transcription.Request{AudioPath: path})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Result:        res,
		VADFilterUsed: h.svc.ModelInfo().VADFilter,
	})
}

func (h *Handler) uploadError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
		return errors.PayloadTooLarge(h.maxBytes)
	case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
		return errors.MissingField(FormField)
	default:
		return errors.InvalidInput(FormField, err.Error())
	}
}

func (h *Handler) allowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(h.cfg.AllowedTypes, mediaType)
}

// saveUpload copies the upload to a temp file keeping the original
// extension, which the decoder uses to pick a container format.
func (h *Handler) saveUpload(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", errors.InvalidInput(FormField, "unreadable upload")
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	dst, err := os.CreateTemp(h.cfg.TempDir, "voicegate-upload-*"+ext)
	if err != nil {
		return "", errors.Internal(fmt.Errorf("create upload file: %w", err))
	}

	n, err := io.Copy(dst, io.LimitReader(src, h.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > h.maxBytes {
		err = errors.PayloadTooLarge(h.maxBytes)
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		if errors.IsAppError(err) {
			return "", err
		}
		return "", errors.Internal(fmt.Errorf("write upload file: %w", err))
	}
	return dst.Name(), nil
}
