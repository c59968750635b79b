// Package server - HTTP and websocket access to the pose detector.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/models/postprocess"
	"github.com/sirupsen/logrus"
)

// MaxImageBytes caps the request body of a pose request.
const MaxImageBytes = 32 << 20

// Detector runs pose detection on one image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*detectors.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithKeypointThreshold sets the confidence a keypoint needs to be reported
// as visible.
func WithKeypointThreshold(threshold float32) Option {
	return func(s *Server) {
		s.keypointThreshold = threshold
	}
}

// Server serves pose requests and streams every result to websocket clients.
type Server struct {
	detector          Detector
	hub               *Hub
	logger            logrus.FieldLogger
	keypointThreshold float32
	upgrader          websocket.Upgrader
}

// New creates a server. Start the hub with Run before serving.
func New(detector Detector, opts ...Option) *Server {
	s := &Server{
		detector:          detector,
		logger:            logrus.StandardLogger(),
		keypointThreshold: postprocess.DefaultKeypointThreshold,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)
	return s
}

// Run runs the stream hub until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Hub returns the stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/poses", s.handlePoses).Methods(http.MethodPost)
	r.HandleFunc("/v1/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	return r
}

// Publish sends a response to every stream client.
func (s *Server) Publish(resp Response) {
	message, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithError(err).Error("encode stream message")
		return
	}
	s.hub.Broadcast(message)
}

func (s *Server) handlePoses(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	decodeStart := time.Now()
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	decode := time.Since(decodeStart)
	if err != nil {
		sendErrorResponse(w, "invalid_image", "failed to decode image", http.StatusBadRequest)
		return
	}

	res, err := s.detector.Detect(r.Context(), img)
	if err != nil {
		s.logger.WithError(err).Error("pose detection failed")
		sendErrorResponse(w, "processing_error", err.Error(), http.StatusInternalServerError)
		return
	}

	resp := NewResponse(res, decode, s.keypointThreshold)
	s.logger.WithFields(logrus.Fields{
		"detections": len(resp.Detections),
		"total_ms":   resp.Timings.Total,
	}).Debug("pose request served")

	s.Publish(resp)
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"stream_clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	connection, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s.hub.Register(r.Context(), connection)
	defer s.hub.Unregister(context.Background(), connection)

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).Debug("stream client read failed")
			}
			return
		}
	}
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	sendJSON(w, status, ErrorResponse{Code: code, Message: message})
}
