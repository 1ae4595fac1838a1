package reportr

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sbstruc/reportr/internal/report"
)

// NewRouter mounts the HTTP surface over a Service.
func NewRouter(s *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/reports", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/", s.handleSaveFormFields)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/images/{group}", s.handleUploadImage)
			r.Post("/generate", s.handleGenerate)
			r.Get("/download", s.handleDownload)
		})
	})

	return r
}

// errorResponse is the uniform error body. Fields and Missing are populated
// only for the structured rejections that carry them.
type errorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Fields  []report.FieldError `json:"fields,omitempty"`
	Missing *report.Incomplete  `json:"missing,omitempty"`
}

// sessionResponse is the session representation returned by every
// session-producing endpoint.
type sessionResponse struct {
	*report.Session
	DownloadURL string `json:"download_url,omitempty"`
}

func newSessionResponse(s *report.Session) sessionResponse {
	resp := sessionResponse{Session: s}
	if s.Status == report.StatusCompleted {
		resp.DownloadURL = "/reports/" + s.ID + "/download"
	}
	return resp
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.CreateSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Service) handleSaveFormFields(w http.ResponseWriter, r *http.Request) {
	var fields report.FormFields
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "invalid_body",
		})
		return
	}

	sess, err := s.SaveFormFields(r.Context(), chi.URLParam(r, "sessionID"), &fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Service) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	group := report.GroupName(chi.URLParam(r, "group"))

	data, contentType, filename, err := readUpload(w, r, s.cfg.MaxFileBytes())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	meta, err := s.UploadImage(r.Context(), id, group, data, contentType, filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// readUpload accepts either a multipart form with a "file" part or a raw
// body typed by the Content-Type header. The reader is capped slightly above
// the per-file ceiling so an oversized upload is rejected by the size check
// rather than a truncated read.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (data []byte, contentType, filename string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			return nil, "", "", wrapBodyErr(ferr)
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			return nil, "", "", wrapBodyErr(err)
		}
		return data, header.Header.Get("Content-Type"), header.Filename, nil
	}

	data, err = io.ReadAll(r.Body)
	if err != nil {
		return nil, "", "", wrapBodyErr(err)
	}
	return data, r.Header.Get("Content-Type"), "", nil
}

// wrapBodyErr maps the MaxBytesReader overflow onto the size-limit sentinel.
func wrapBodyErr(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return report.ErrPayloadTooLarge
	}
	if strings.Contains(err.Error(), "request body too large") {
		return report.ErrPayloadTooLarge
	}
	return err
}

func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	sess, err := s.Generate(r.Context(), chi.URLParam(r, "sessionID"), force)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, filename, err := s.Artifact(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps the service error taxonomy onto HTTP statuses. Render
// failures stay opaque: the cause is logged server-side only.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stateErr    *report.InvalidStateError
		conflictErr *report.ConflictError
		fieldsErr   *report.InvalidFieldsError
		incErr      *report.IncompleteError
		renderErr   *report.RenderError
	)

	switch {
	case errors.Is(err, report.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found", Code: "not_found"})
	case errors.Is(err, report.ErrArtifactNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no generated report for this session", Code: "artifact_not_found"})
	case errors.As(err, &stateErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: stateErr.Error(), Code: "invalid_state"})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: conflictErr.Error(), Code: "generation_in_progress"})
	case errors.Is(err, report.ErrQuotaExceeded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "quota_exceeded"})
	case errors.Is(err, report.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "group_at_capacity"})
	case errors.Is(err, report.ErrUnsupportedMediaType):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error(), Code: "unsupported_media_type"})
	case errors.Is(err, report.ErrPayloadTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Code: "payload_too_large"})
	case errors.Is(err, report.ErrImageTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Code: "image_too_large"})
	case errors.As(err, &fieldsErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  fieldsErr.Error(),
			Code:   "invalid_fields",
			Fields: fieldsErr.Fields,
		})
	case errors.As(err, &incErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   incErr.Error(),
			Code:    "incomplete_submission",
			Missing: incErr.Missing,
		})
	case errors.As(err, &renderErr):
		s.log.Error("http: render failure", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "report generation failed", Code: "render_failure"})
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		// Client went away while queued; nothing useful to write.
	default:
		s.log.Error("http: internal error", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
