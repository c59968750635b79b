package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/controller"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference/detectors"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/render"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var supportedVideoExtensions = []string{".mp4", ".avi", ".mov"}

// latest holds the most recent detector result for drawing.
type latest struct {
	mu     sync.Mutex
	result *detectors.Result
}

func (l *latest) set(r *detectors.Result) {
	l.mu.Lock()
	l.result = r
	l.mu.Unlock()
}

func (l *latest) get() *detectors.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

func main() {
	var (
		envFile    = flag.String("env", ".env", "Path to a .env file")
		deviceID   = flag.Int("device", 0, "Video capture device")
		videoPath  = flag.String("video", "", "Path to video file (.mp4, .avi, .mov)")
		resolution = flag.String("resolution", "720p", "Capture resolution preset")
		fillWidth  = flag.Bool("fill-width", false, "Map keypoints with the fill-width projection instead of stretching")
		showWindow = flag.Bool("show-window", true, "Show visualization window")
		drawBoxes  = flag.Bool("boxes", false, "Draw detection boxes")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	preset, err := images.ParseResolution(*resolution)
	if err != nil {
		logger.WithError(err).Fatal("invalid resolution")
	}
	aspectW, aspectH, err := preset.AspectRatio.Ratio()
	if err != nil {
		logger.WithError(err).Fatal("invalid resolution")
	}

	capture, source, err := openCapture(*deviceID, *videoPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to open capture")
	}
	defer capture.Close()
	if *videoPath == "" {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(preset.Pixels.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(preset.Pixels.Height))
	}

	detector, err := detectors.Open(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open pose detector")
	}
	defer func() {
		detector.Close()
		providers.DestroyEnvironment()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		current latest
		wg      sync.WaitGroup
	)
	ctrl := controller.New(detector, controller.WithLogger(logger))
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ctrl.Run(ctx, func(f controller.Frame, res *detectors.Result, err error) {
			if err == nil {
				current.set(res)
			}
		})
	}()

	var window *gocv.Window
	if *showWindow {
		window = gocv.NewWindow("Pose")
		defer window.Close()
	}

	style := render.DefaultStyle()
	style.KeypointThresh = cfg.KeypointThreshold
	if *drawBoxes {
		style.BoxColor = color.RGBA{G: 255, A: 255}
	}

	img := gocv.NewMat()
	defer img.Close()

	logger.WithFields(log.Fields{
		"source":     source,
		"resolution": preset.String(),
		"provider":   cfg.Provider,
	}).Info("pose capture started")

	var (
		frameID   uint64
		fps       float64
		count     int
		lastTime  = time.Now()
		lastStats = time.Now()
	)
	for ctx.Err() == nil {
		if ok := capture.Read(&img); !ok {
			logger.WithField("source", source).Info("capture ended")
			break
		}
		if img.Empty() {
			continue
		}

		frame, err := img.ToImage()
		if err != nil {
			logger.WithError(err).Warn("failed to convert frame")
			continue
		}
		frameID++
		ctrl.Submit(controller.Frame{ID: frameID, Image: frame, Timestamp: time.Now()})

		count++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(count) / elapsed
			count = 0
			lastTime = time.Now()
		}
		if time.Since(lastStats) >= 5*time.Second {
			stats := ctrl.Stats()
			logger.WithFields(log.Fields{
				"fps":       fmt.Sprintf("%.1f", fps),
				"submitted": stats.Submitted,
				"processed": stats.Processed,
				"dropped":   stats.Dropped,
			}).Info("capture stats")
			lastStats = time.Now()
		}

		if window == nil {
			continue
		}
		if res := current.get(); res != nil {
			projection := render.Stretch(img.Cols(), img.Rows(), cfg.InputSize)
			if *fillWidth {
				projection = render.FillWidth(img.Cols(), img.Rows(), cfg.InputSize, aspectW, aspectH)
			}
			render.Draw(&img, res.Detections, projection, style)
		}
		window.IMShow(img)
		if window.WaitKey(1) == 'q' {
			break
		}
	}

	stop()
	wg.Wait()
}

func openCapture(deviceID int, videoPath string) (*gocv.VideoCapture, string, error) {
	if videoPath == "" {
		capture, err := gocv.OpenVideoCapture(deviceID)
		return capture, fmt.Sprintf("device %d", deviceID), err
	}

	ext := strings.ToLower(filepath.Ext(videoPath))
	for _, supported := range supportedVideoExtensions {
		if ext == supported {
			capture, err := gocv.OpenVideoCapture(videoPath)
			return capture, videoPath, err
		}
	}
	return nil, "", fmt.Errorf("unsupported video format %s (supported: %s)", ext, strings.Join(supportedVideoExtensions, ", "))
}
