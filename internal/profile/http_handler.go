package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rpattn/activegames/internal/domain"
	"github.com/rpattn/activegames/internal/logging"
)

const maxBodyBytes = 1 << 20

// Handler exposes the profile service over HTTP.
//
//	POST   body: record or array of records   -> Create
//	GET    query string filter                -> Search
//	PATCH  body: patch, query string filter   -> Update
//	DELETE query string filter                -> Remove
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHTTPHandler wraps the service with the profile CRUD endpoints.
func NewHTTPHandler(service *Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.search(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PATCH, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	records, err := decodeRecords(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.Create(r.Context(), records)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Search(r.Context(), QueryFromValues(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfileRecord
	if err := decodeBody(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.Update(r.Context(), patch, QueryFromValues(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Remove(r.Context(), QueryFromValues(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeRecords accepts either a single JSON object or an array of objects.
func decodeRecords(w http.ResponseWriter, r *http.Request) ([]domain.ProfileRecord, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.InvalidInput(fmt.Errorf("failed to read body: %w", err))
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.InvalidInput(errors.New("request body is empty"))
	}

	if trimmed[0] == '[' {
		var records []domain.ProfileRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, domain.InvalidInput(err)
		}
		if len(records) == 0 {
			return nil, domain.InvalidInput(errors.New("at least one record is required"))
		}
		for i, record := range records {
			if record == nil {
				return nil, domain.InvalidInput(fmt.Errorf("record %d is not an object", i))
			}
		}
		return records, nil
	}

	var record domain.ProfileRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, domain.InvalidInput(err)
	}
	if record == nil {
		return nil, domain.InvalidInput(errors.New("record must be an object"))
	}
	return []domain.ProfileRecord{record}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst *domain.ProfileRecord) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.InvalidInput(err)
	}
	if *dst == nil {
		return domain.InvalidInput(errors.New("patch must be an object"))
	}
	return nil
}

type errorResponse struct {
	Error   domain.ErrorKind `json:"error"`
	Message string           `json:"message,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.StatusOf(err)

	var tagged *domain.Error
	if errors.As(err, &tagged) {
		resp := errorResponse{Error: tagged.Kind}
		if tagged.Err != nil {
			resp.Message = tagged.Err.Error()
		}
		writeJSON(w, status, resp)
		return
	}

	logging.FromContext(r.Context(), h.logger).Error("profile request failed", slog.Any("error", err))
	writeJSON(w, status, errorResponse{Error: "INTERNAL", Message: http.StatusText(status)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
