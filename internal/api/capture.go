package api

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/starford/wristlog/internal/capture"
	"github.com/starford/wristlog/internal/checksum"
	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/protocol"
)

const defaultFrameLimit = 500

// CaptureHandler serves the traffic capture log.
type CaptureHandler struct {
	path string
}

// NewCaptureHandler creates a handler for the capture file at path. An empty path
// disables both routes.
func NewCaptureHandler(path string) *CaptureHandler {
	return &CaptureHandler{path: path}
}

func (h *CaptureHandler) available(w http.ResponseWriter) bool {
	if h.path == "" {
		writeJSON(w, http.StatusNotFound, errorBody("capture disabled"))
		return false
	}
	if _, err := os.Stat(h.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return false
		}
		writeError(w, "capture stat", err)
		return false
	}
	return true
}

// Download handles GET /capture.
//
//	@Summary		Download the raw CBOR capture log
//	@Tags			capture
//	@Produce		application/cbor-seq
//	@Success		200	{file}		binary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/capture [get]
func (h *CaptureHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	sum, err := checksum.File(h.path)
	if err != nil {
		writeError(w, "capture checksum", err)
		return
	}
	// ServeFile answers If-None-Match against this tag.
	w.Header().Set("ETag", checksum.ETag(sum))
	w.Header().Set("Content-Type", "application/cbor-seq")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(h.path)+`"`)
	http.ServeFile(w, r, h.path)
}

// Frames handles GET /capture/frames.
//
//	@Summary		List captured frames, classified again
//	@Tags			capture
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of frames (newest kept)"
//	@Success		200		{array}		FrameItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/capture/frames [get]
func (h *CaptureHandler) Frames(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultFrameLimit
	}

	rd, err := capture.Open(h.path)
	if err != nil {
		writeError(w, "capture open", err)
		return
	}
	defer rd.Close()

	items := make([]FrameItem, 0)
	err = capture.Replay(rd, demux.Default, func(rep capture.Replayed) error {
		item := FrameItem{
			Time:      rep.Frame.Time.UTC().Format(time.RFC3339Nano),
			Direction: rep.Frame.Direction.String(),
			Endpoint:  rep.Frame.Endpoint,
			Data:      hex.EncodeToString(rep.Frame.Data),
			Outcome:   rep.Frame.Outcome,
		}
		if rep.Err != nil {
			item.Outcome = rep.Err.Error()
		} else if rep.Response != nil {
			item.Outcome = protocol.Name(rep.Response)
			item.Decoded = rep.Response
		}
		items = append(items, item)
		if len(items) > limit {
			items = items[1:]
		}
		return nil
	})
	if err != nil {
		writeError(w, "capture replay", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
