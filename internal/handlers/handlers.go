package handlers

import (
	_ "embed"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/waste-api/internal/model"
	"github.com/Brownie44l1/waste-api/internal/predict"
	"github.com/Brownie44l1/waste-api/internal/upload"
)

//go:embed static/index.html
var indexHTML []byte

type Handler struct {
	pipeline *predict.Pipeline
	stager   *upload.Stager
	metrics  Recorder
}

func NewHandler(pipeline *predict.Pipeline, stager *upload.Stager) *Handler {
	return &Handler{
		pipeline: pipeline,
		stager:   stager,
		metrics:  nopRecorder{},
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	NumClasses  int    `json:"num_classes"`
	ImageSize   int    `json:"img_size"`
	Error       string `json:"error,omitempty"`
}

type predictResponse struct {
	Success bool `json:"success"`
	*model.Prediction
}

func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) Health(c *gin.Context) {
	artifacts := h.pipeline.Artifacts()
	resp := healthResponse{
		Status:      "healthy",
		ModelLoaded: artifacts.Ready(),
		NumClasses:  artifacts.Classes.Len(),
		ImageSize:   artifacts.Config.ImageSize,
	}
	if !resp.ModelLoaded {
		resp.Status = "degraded"
		if artifacts.LoadErr != nil {
			resp.Error = artifacts.LoadErr.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Predict(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.fail(c, "", formFileError(c, err))
		return
	}

	log.Debugf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	if _, err := predict.ValidateFilename(header.Filename); err != nil {
		h.fail(c, header.Filename, err)
		return
	}

	path, cleanup, err := h.stager.Stage(header)
	defer cleanup()
	if err != nil {
		h.fail(c, header.Filename, predict.Failure(err))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.fail(c, header.Filename, predict.Failure(err))
		return
	}
	defer f.Close()

	result, err := h.pipeline.Predict(header.Filename, f)
	if err != nil {
		h.fail(c, header.Filename, err)
		return
	}

	log.WithFields(log.Fields{
		"filename":   header.Filename,
		"class":      result.OriginalClass,
		"category":   result.WasteCategory,
		"confidence": result.Confidence,
	}).Info("prediction served")
	h.metrics.PredictionServed(result.WasteCategory)

	c.JSON(http.StatusOK, predictResponse{Success: true, Prediction: result})
}

func (h *Handler) fail(c *gin.Context, filename string, err error) {
	kind := predict.KindOf(err)
	entry := log.WithError(err).WithFields(log.Fields{"filename": filename, "kind": kind})
	switch kind {
	case predict.ModelUnavailable, predict.DecodeOrInferenceFailure:
		entry.Error("prediction failed")
	default:
		entry.Debug("prediction rejected")
	}
	h.metrics.PredictionFailed(failureLabel(err))
	Error(c, err)
}

// formFileError tells an absent field from a present one with an empty
// filename, which multipart parsing stores as a plain value.
func formFileError(c *gin.Context, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrTooLarge
	}
	if form := c.Request.MultipartForm; form != nil {
		if _, ok := form.Value["file"]; ok {
			return predict.ErrEmptyFilename
		}
	}
	return predict.ErrNoFile
}
