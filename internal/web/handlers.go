package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"gbswap/internal/bitmap"
	"gbswap/internal/logging"
	"gbswap/internal/pixels"
	"gbswap/internal/session"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

var errMissingFile = errors.New("missing file field")

// apiError is the JSON body of every failed API response.
type apiError struct {
	Error     string `json:"error"`
	State     string `json:"state,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// helpResponse is the GET /api/help payload.
type helpResponse struct {
	Lang      string    `json:"lang"`
	Title     string    `json:"title"`
	Usage     HelpPanel `json:"usage"`
	Technical HelpPanel `json:"technical"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	c := copyFor(r)
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.renderPage(w, http.StatusOK, newPageData(c, nil))
	case http.MethodPost:
		up, err := s.readUpload(w, r)
		if errors.Is(err, errMissingFile) {
			s.renderPage(w, http.StatusOK, newPageData(c, nil))
			return
		}
		if err != nil {
			res := rejected(err)
			s.renderPage(w, statusFor(res), newPageData(c, res))
			return
		}
		res := s.shell.Process(r.Context(), up)
		status := http.StatusOK
		if res.State.Failed() {
			status = statusFor(res)
		}
		s.renderPage(w, status, newPageData(c, res))
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	up, err := s.readUpload(w, r)
	if errors.Is(err, errMissingFile) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", uploadField))
		return
	}
	if err != nil {
		res := rejected(err)
		writeJSON(w, statusFor(res), apiError{Error: session.UserMessage(err), State: string(res.State)})
		return
	}

	res := s.shell.Process(r.Context(), up)
	if res.State == session.StateIdle {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", uploadField))
		return
	}
	if res.Download == nil {
		writeJSON(w, statusFor(res), apiError{Error: res.Message, State: string(res.State), SessionID: res.ID})
		return
	}

	header := w.Header()
	header.Set("Content-Type", res.Download.MediaType)
	header.Set("Content-Length", strconv.Itoa(len(res.Download.Data)))
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Download.Name}))
	header.Set("X-Session-Id", res.ID)
	if res.Metadata != nil {
		header.Set("X-Image-Mode", res.Metadata.Mode)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Download.Data); err != nil {
		s.logger.Warn("write download failed", logging.String(logging.FieldSessionID, res.ID), logging.Error(err))
	}
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	c := copyFor(r)
	w.Header().Set("Content-Language", c.Lang)
	writeJSON(w, http.StatusOK, helpResponse{
		Lang:      c.Lang,
		Title:     c.PageTitle,
		Usage:     c.Usage,
		Technical: c.Technical,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload pulls the file field out of a multipart request. The body is
// capped slightly above the upload limit so the session can still report
// an oversized file as too large rather than as a broken form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (session.Upload, error) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return session.Upload{}, fmt.Errorf("%w: request body exceeds %d bytes", session.ErrTooLarge, tooBig.Limit)
		}
		return session.Upload{}, fmt.Errorf("%w: %w", bitmap.ErrDecode, err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return session.Upload{}, errMissingFile
	}
	if err != nil {
		return session.Upload{}, fmt.Errorf("%w: %w", bitmap.ErrDecode, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return session.Upload{}, fmt.Errorf("%w: read upload: %w", bitmap.ErrDecode, err)
	}
	return session.Upload{FileName: header.Filename, Data: data}, nil
}

// rejected describes an upload that never reached the session shell.
func rejected(err error) *session.Result {
	return &session.Result{
		State:   session.StateDecodeFailed,
		Trail:   []session.State{session.StateIdle, session.StateDecodeFailed},
		Err:     err,
		Message: session.UserMessage(err),
	}
}

// statusFor maps a failed cycle to an HTTP status.
func statusFor(res *session.Result) int {
	switch {
	case res == nil || res.Err == nil:
		return http.StatusOK
	case errors.Is(res.Err, session.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(res.Err, bitmap.ErrDecode):
		return http.StatusUnsupportedMediaType
	case errors.Is(res.Err, pixels.ErrUnsupportedLayout):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: message})
}
