package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gbswap/internal/bitmap"
	"gbswap/internal/logging"
	"gbswap/internal/testsupport"
)

func newTestServer(t *testing.T, opts ...testsupport.ConfigOption) *Server {
	t.Helper()
	srv, err := New(testsupport.NewConfig(t, opts...), logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv
}

func uploadRequest(t *testing.T, target, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" || data != nil {
		part, err := mw.CreateFormFile(uploadField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	} else if err := mw.WriteField("note", "no file"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestIndexRendersUploadFormAndHelp(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`enctype="multipart/form-data"`, `name="file"`, "How to use", "Technical details"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if strings.Contains(body, "data:image/bmp") {
		t.Fatal("idle page should not carry images")
	}
}

func TestIndexNegotiatesChinese(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.5")
	w := serve(srv, req)
	if !strings.Contains(w.Body.String(), "使用说明") {
		t.Fatalf("expected Chinese help panel, got %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Language"); got != "zh-Hans" {
		t.Fatalf("unexpected content language %q", got)
	}

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/?lang=zh", nil))
	if !strings.Contains(w.Body.String(), "技术细节") {
		t.Fatal("expected ?lang=zh to select Chinese")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE")
	if w := serve(srv, req); !strings.Contains(w.Body.String(), "How to use") {
		t.Fatal("expected English fallback for unsupported languages")
	}
}

func TestIndexUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUploadRendersPreviewsAndDownload(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, uploadRequest(t, "/", "photo.bmp", testsupport.BMP(t, testsupport.TwoByTwo())))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `download="gb_swapped_photo.bmp"`) {
		t.Fatalf("expected download link, got %q", body)
	}
	if n := strings.Count(body, "data:image/bmp;base64,"); n != 3 {
		t.Fatalf("expected two previews and one download, found %d data URIs", n)
	}
	for _, want := range []string{"Image details", "2 × 2", "RGB", "Channel swap complete."} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
}

func TestUploadLocalizesImageDetails(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, uploadRequest(t, "/?lang=zh", "photo.bmp", testsupport.BMP(t, testsupport.TwoByTwo())))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"图片信息", "尺寸: 2 × 2", "模式: RGB", "通道数: 3"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in Chinese page", want)
		}
	}
	for _, unwanted := range []string{"Dimensions", "Bits per pixel", "File size"} {
		if strings.Contains(body, unwanted) {
			t.Fatalf("unexpected English label %q in Chinese page", unwanted)
		}
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, uploadRequest(t, "/", "notes.bmp", []byte("definitely not a bitmap")))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "could not be read as a BMP image") {
		t.Fatalf("expected decode message, got %q", body)
	}
	if strings.Contains(body, "data:image/bmp") || strings.Contains(body, "download=") {
		t.Fatal("failed decode must not render previews or a download")
	}
}

func TestUploadGrayscaleShowsOriginalOnly(t *testing.T) {
	srv := newTestServer(t)

	req := uploadRequest(t, "/", "gray.bmp", testsupport.BMP(t, testsupport.Grayscale(3, 3)))
	req.Header.Set("Accept-Language", "zh-CN")
	w := serve(srv, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if n := strings.Count(body, "data:image/bmp;base64,"); n != 1 {
		t.Fatalf("expected only the original preview, found %d data URIs", n)
	}
	if strings.Contains(body, "download=") {
		t.Fatal("swap failure must not offer a download")
	}
	if !strings.Contains(body, "处理失败，请确保上传的是有效的RGB图片") {
		t.Fatalf("expected localized failure message, got %q", body)
	}
}

func TestUploadWithoutFileStaysIdle(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, uploadRequest(t, "/", "", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `class="error"`) {
		t.Fatal("empty submission should not render an error")
	}
}

func TestAPISwapReturnsBitmap(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, uploadRequest(t, "/api/swap", "photo.bmp", testsupport.BMP(t, testsupport.TwoByTwo())))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/bmp" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "gb_swapped_photo.bmp") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if w.Header().Get("X-Session-Id") == "" {
		t.Fatal("expected session id header")
	}

	decoded, err := bitmap.DecodeBytes(w.Body.Bytes())
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := decoded.Buffer.Pixel(0, 0); !bytes.Equal(got, []uint8{10, 30, 20}) {
		t.Fatalf("expected swapped pixel (10,30,20), got %v", got)
	}
}

func TestAPISwapErrors(t *testing.T) {
	bmpData := testsupport.BMP(t, testsupport.Gradient(16, 16))

	tests := []struct {
		name     string
		opts     []testsupport.ConfigOption
		fileName string
		data     []byte
		status   int
		state    string
	}{
		{name: "missing file", status: http.StatusBadRequest},
		{name: "wrong extension", fileName: "photo.png", data: bmpData, status: http.StatusUnsupportedMediaType, state: "decode_failed"},
		{name: "not an image", fileName: "photo.bmp", data: []byte("text"), status: http.StatusUnsupportedMediaType, state: "decode_failed"},
		{name: "grayscale", fileName: "gray.bmp", data: testsupport.BMP(t, testsupport.Grayscale(2, 2)), status: http.StatusUnprocessableEntity, state: "swap_failed"},
		{
			name:     "too large",
			opts:     []testsupport.ConfigOption{testsupport.WithMaxUpload(int64(len(bmpData) - 1))},
			fileName: "big.bmp",
			data:     bmpData,
			status:   http.StatusRequestEntityTooLarge,
			state:    "decode_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.opts...)
			w := serve(srv, uploadRequest(t, "/api/swap", tt.fileName, tt.data))
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected JSON error, got %q", ct)
			}
			var resp apiError
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error == "" {
				t.Fatal("expected error message")
			}
			if resp.State != tt.state {
				t.Fatalf("expected state %q, got %q", tt.state, resp.State)
			}
		})
	}
}

func TestAPISwapRejectsNonMultipart(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "text/plain")
	if w := serve(srv, req); w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/swap", nil)); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	srv := newTestServer(t, testsupport.WithAPIToken("secret"))
	data := testsupport.BMP(t, testsupport.TwoByTwo())

	w := serve(srv, uploadRequest(t, "/api/swap", "photo.bmp", data))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := uploadRequest(t, "/api/swap", "photo.bmp", data)
	req.Header.Set("Authorization", "Bearer wrong")
	if w := serve(srv, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	req = uploadRequest(t, "/api/swap", "photo.bmp", data)
	req.Header.Set("Authorization", "Bearer secret")
	if w := serve(srv, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	// The page stays open; only the API is protected.
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected page without token, got %d", w.Code)
	}
}

func TestHelpJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/help", nil)
	req.Header.Set("Accept-Language", "zh-Hans")
	w := serve(srv, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp helpResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode help: %v", err)
	}
	if resp.Lang != "zh-Hans" || resp.Usage.Title != "使用说明" || resp.Technical.Title != "技术细节" {
		t.Fatalf("unexpected help payload: %+v", resp)
	}
	if len(resp.Usage.Sections) != 3 {
		t.Fatalf("expected three usage sections, got %d", len(resp.Usage.Sections))
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestServerLifecycleHoldsStateLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer first.Stop()

	resp, err := http.Get("http://" + first.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := second.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "already") {
		second.Stop()
		t.Fatalf("expected lock conflict, got %v", err)
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected start after release, got %v", err)
	}
	second.Stop()
}

func TestDataURIEmptyArtifact(t *testing.T) {
	if got := dataURI(nil); got != "" {
		t.Fatalf("expected empty uri, got %q", got)
	}
}
