package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"

	"gbswap/internal/logging"
	"gbswap/internal/session"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	Copy   *Copy
	Result *session.Result
	Shown  bool

	Summary      [][2]string
	OriginalURI  template.URL
	SwappedURI   template.URL
	DownloadURI  template.URL
	DownloadName string
	Message      string
}

func newPageData(c *Copy, res *session.Result) pageData {
	data := pageData{Copy: c, Result: res}
	if res == nil || res.State == session.StateIdle {
		return data
	}
	data.Shown = true
	if res.Metadata != nil {
		data.Summary = res.Metadata.SummaryWith(c.Labels)
	}
	data.OriginalURI = dataURI(res.OriginalPreview)
	data.SwappedURI = dataURI(res.SwappedPreview)
	if res.Download != nil {
		data.DownloadURI = dataURI(res.Download)
		data.DownloadName = res.Download.Name
	}
	data.Message = c.Message(res.Err)
	return data
}

// dataURI inlines an artifact so the page carries its own images and the
// server keeps nothing between requests.
func dataURI(a *session.Artifact) template.URL {
	if a == nil || len(a.Data) == 0 {
		return ""
	}
	return template.URL("data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Data))
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render page failed", logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", data.Copy.Lang)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
