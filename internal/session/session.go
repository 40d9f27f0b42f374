package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"gbswap/internal/bitmap"
	"gbswap/internal/logging"
	"gbswap/internal/pixels"
)

// DownloadPrefix is prepended to the uploaded file name for the download.
const DownloadPrefix = "gb_swapped_"

// State is a step of one upload-to-download cycle.
type State string

const (
	StateIdle         State = "idle"
	StateFileReceived State = "file_received"
	StateDecoded      State = "decoded"
	StateSwapped      State = "swapped"
	StateReady        State = "ready"
	StateDecodeFailed State = "decode_failed"
	StateSwapFailed   State = "swap_failed"
)

// Failed reports whether the cycle ended without a download.
func (s State) Failed() bool {
	return s == StateDecodeFailed || s == StateSwapFailed
}

var (
	// ErrUnsupportedExtension is returned for uploads without a .bmp suffix.
	ErrUnsupportedExtension = fmt.Errorf("%w: only %s files are accepted", bitmap.ErrDecode, bitmap.Extension)
	// ErrTooLarge is returned for uploads above the configured limit.
	ErrTooLarge = fmt.Errorf("%w: upload too large", bitmap.ErrDecode)
	// ErrEncode is returned when the swapped buffer cannot be written back.
	ErrEncode = errors.New("encode swapped image")
)

// Upload is one received file.
type Upload struct {
	FileName string
	Data     []byte
}

// Artifact is an encoded image ready to be shown or downloaded.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Result is everything the presentation layer needs to render one cycle.
// Fields beyond State and Trail are set only when the cycle reached the
// step that produces them.
type Result struct {
	ID       string
	State    State
	Trail    []State
	FileName string
	Metadata *bitmap.Metadata

	OriginalPreview *Artifact
	SwappedPreview  *Artifact
	Download        *Artifact

	Err     error
	Message string
}

func (r *Result) enter(state State) {
	r.State = state
	r.Trail = append(r.Trail, state)
}

// Options configures a Shell.
type Options struct {
	// MaxUploadBytes rejects larger uploads before decoding. Zero disables the check.
	MaxUploadBytes int64
	// PreviewMaxWidth shrinks previews wider than this. Zero keeps full size.
	PreviewMaxWidth int
}

// Shell runs upload cycles. It holds no per-session state, so one Shell can
// serve concurrent requests.
type Shell struct {
	opts   Options
	logger *slog.Logger
	newID  func() string
}

// NewShell constructs a Shell.
func NewShell(opts Options, logger *slog.Logger) *Shell {
	return &Shell{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "session"),
		newID:  uuid.NewString,
	}
}

// DownloadName derives the download file name from the uploaded one. Only
// directory components are dropped; the base name is kept verbatim.
func DownloadName(fileName string) string {
	return DownloadPrefix + filepath.Base(fileName)
}

// Process runs one cycle: Idle → FileReceived → Decoded → Swapped → Ready,
// or stops in DecodeFailed / SwapFailed. It never panics on user input and
// never returns a partial download.
func (s *Shell) Process(ctx context.Context, up Upload) *Result {
	res := &Result{ID: s.newID()}
	res.enter(StateIdle)
	if strings.TrimSpace(up.FileName) == "" && len(up.Data) == 0 {
		return res
	}

	ctx = logging.WithSessionID(ctx, res.ID)
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	res.FileName = filepath.Base(up.FileName)
	res.enter(StateFileReceived)

	decoded, err := s.decode(up)
	if err != nil {
		s.fail(res, StateDecodeFailed, err)
		logging.WarnWithContext(logger, "upload rejected", "decode_failed",
			logging.String("file", res.FileName),
			logging.Int("bytes", len(up.Data)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "upload a valid .bmp file"),
		)
		return res
	}
	res.Metadata = &decoded.Metadata
	res.enter(StateDecoded)

	if res.OriginalPreview, err = s.preview(decoded.Image, res.FileName); err != nil {
		s.fail(res, StateDecodeFailed, err)
		logging.ErrorWithContext(logger, "original preview failed", "preview_failed", logging.Error(err))
		return res
	}

	swapped, err := pixels.Swap(decoded.Buffer)
	if err != nil {
		s.fail(res, StateSwapFailed, err)
		logging.WarnWithContext(logger, "swap rejected", "swap_failed",
			logging.String("file", res.FileName),
			logging.String("mode", decoded.Metadata.Mode),
			logging.Int("channels", decoded.Buffer.Channels),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "upload a 24-bit or 32-bit RGB bitmap"),
		)
		return res
	}
	res.enter(StateSwapped)

	download, swappedPreview, err := s.encode(swapped, res.FileName)
	if err != nil {
		s.fail(res, StateSwapFailed, err)
		logging.ErrorWithContext(logger, "encode swapped image failed", "encode_failed", logging.Error(err))
		return res
	}
	res.Download = download
	res.SwappedPreview = swappedPreview
	res.enter(StateReady)

	logger.Info("session ready",
		logging.String("file", res.FileName),
		logging.Int("width", decoded.Metadata.Width),
		logging.Int("height", decoded.Metadata.Height),
		logging.String("mode", decoded.Metadata.Mode),
		logging.Int("download_bytes", len(download.Data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return res
}

func (s *Shell) decode(up Upload) (*bitmap.Decoded, error) {
	if !bitmap.HasBitmapExtension(up.FileName) {
		return nil, ErrUnsupportedExtension
	}
	if s.opts.MaxUploadBytes > 0 && int64(len(up.Data)) > s.opts.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge,
			humanize.IBytes(uint64(len(up.Data))), humanize.IBytes(uint64(s.opts.MaxUploadBytes)))
	}
	return bitmap.DecodeBytes(up.Data)
}

func (s *Shell) preview(img image.Image, name string) (*Artifact, error) {
	data, err := bitmap.Preview(img, s.opts.PreviewMaxWidth)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, MediaType: bitmap.MediaType, Data: data}, nil
}

// encode produces the full-size download and its preview. Either both
// succeed or neither is returned.
func (s *Shell) encode(swapped *pixels.Buffer, name string) (*Artifact, *Artifact, error) {
	full, err := bitmap.EncodeBytes(swapped)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	download := &Artifact{Name: DownloadName(name), MediaType: bitmap.MediaType, Data: full}

	if s.opts.PreviewMaxWidth <= 0 || swapped.Width <= s.opts.PreviewMaxWidth {
		return download, &Artifact{Name: download.Name, MediaType: bitmap.MediaType, Data: download.Data}, nil
	}
	img, err := bitmap.ToImage(swapped)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	preview, err := s.preview(img, download.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return download, preview, nil
}

func (s *Shell) fail(res *Result, state State, err error) {
	res.Err = err
	res.Message = UserMessage(err)
	res.Download = nil
	res.SwappedPreview = nil
	if state == StateDecodeFailed {
		res.OriginalPreview = nil
		res.Metadata = nil
	}
	res.enter(state)
}

// UserMessage turns a cycle error into the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedExtension):
		return "Only .bmp files are accepted. Please upload a BMP image."
	case errors.Is(err, ErrTooLarge):
		return "The file is too large to process."
	case errors.Is(err, bitmap.ErrDecode):
		return "The file could not be read as a BMP image."
	case errors.Is(err, pixels.ErrUnsupportedLayout):
		return "Processing failed: the image must have at least three color channels (RGB)."
	default:
		return "Processing failed. Please try another image."
	}
}
