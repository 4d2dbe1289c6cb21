package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the latest camera frame as JPEG for the MJPEG stream.
// Frames are only encoded while a viewer is connected.
type FrameBuffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	viewers int
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Put encodes frame when someone is watching.
func (b *FrameBuffer) Put(frame *gocv.Mat) {
	b.mu.Lock()
	watching := b.viewers > 0
	b.mu.Unlock()
	if !watching || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	b.mu.Lock()
	b.jpeg = data
	b.seq++
	b.mu.Unlock()
}

// Latest returns the last encoded frame and its sequence number.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

func (b *FrameBuffer) watch(delta int) {
	b.mu.Lock()
	b.viewers += delta
	b.mu.Unlock()
}

// StreamHandler serves the frame buffer as MJPEG.
type StreamHandler struct {
	frames *FrameBuffer
	poll   time.Duration
}

// NewStreamHandler creates a new StreamHandler for frames.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames, poll: 33 * time.Millisecond}
}

// ServeHTTP streams every new frame until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.frames.watch(1)
	defer h.frames.watch(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		data, seq := h.frames.Latest()
		if seq == last || len(data) == 0 {
			continue
		}
		last = seq

		fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data))
		w.Write(data)
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
