package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Predictor scores one request. Satisfied by *usecase.PredictChurn.
type Predictor interface {
	Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error)
}

// PredictionGetter is satisfied by *usecase.GetPrediction.
type PredictionGetter interface {
	Execute(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionResponse, error)
}

// PredictionLister is satisfied by *usecase.ListCustomerPredictions.
type PredictionLister interface {
	Execute(ctx context.Context, req dto.ListCustomerPredictionsRequest) (dto.ListCustomerPredictionsResponse, error)
}

// SchemaDescriber is satisfied by *usecase.DescribeSchema.
type SchemaDescriber interface {
	Execute() dto.SchemaResponse
}

// PredictionHandler serves the JSON prediction API.
type PredictionHandler struct {
	predict  Predictor
	get      PredictionGetter
	list     PredictionLister
	describe SchemaDescriber
	logger   *slog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(
	predict Predictor,
	get PredictionGetter,
	list PredictionLister,
	describe SchemaDescriber,
	logger *slog.Logger,
) *PredictionHandler {
	return &PredictionHandler{
		predict:  predict,
		get:      get,
		list:     list,
		describe: describe,
		logger:   logger,
	}
}

// RegisterRoutes registers the API endpoints on the provided ServeMux.
func (h *PredictionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/predictions", h.Predict)
	mux.HandleFunc("GET /api/v1/predictions/{id}", h.GetPrediction)
	mux.HandleFunc("GET /api/v1/customers/{customer_id}/predictions", h.ListCustomerPredictions)
	mux.HandleFunc("GET /api/v1/schema", h.Schema)
}

// Predict scores the posted record. The body is either
// {"customer_id": "...", "features": {...}} or the feature map itself.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	req, err := decodePredictRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Source = model.SourceREST

	resp, err := h.predict.Execute(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodePredictRequest(body io.Reader) (dto.PredictChurnRequest, error) {
	var raw map[string]any
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return dto.PredictChurnRequest{}, errors.New("request body must be a JSON object")
	}
	if raw == nil {
		return dto.PredictChurnRequest{}, errors.New("request body must be a JSON object")
	}

	var req dto.PredictChurnRequest
	if id, ok := raw["customer_id"]; ok {
		s, isString := id.(string)
		if !isString {
			return dto.PredictChurnRequest{}, errors.New("customer_id must be a string")
		}
		req.CustomerID = s
	}

	features, wrapped := raw["features"]
	if !wrapped {
		delete(raw, "customer_id")
		req.Features = raw
		return req, nil
	}
	switch f := features.(type) {
	case map[string]any:
		req.Features = f
	case nil:
		req.Features = map[string]any{}
	default:
		return dto.PredictChurnRequest{}, errors.New("features must be a JSON object")
	}
	return req, nil
}

// GetPrediction returns one recorded prediction.
func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	resp, err := h.get.Execute(r.Context(), dto.GetPredictionRequest{PredictionID: id})
	if err != nil {
		if errors.Is(err, model.ErrPredictionNotFound) {
			writeError(w, http.StatusNotFound, "prediction not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get prediction", "prediction_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get prediction")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCustomerPredictions returns a customer's prediction history, newest first.
func (h *PredictionHandler) ListCustomerPredictions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	resp, err := h.list.Execute(r.Context(), dto.ListCustomerPredictionsRequest{
		CustomerID: r.PathValue("customer_id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list predictions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Schema describes the accepted input fields and the loaded model.
func (h *PredictionHandler) Schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.describe.Execute())
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
