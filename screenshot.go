package sway

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of the next drawn frame. Gesture
// scripts use it to record the viewport state at interesting points.
func (s *Scene) Screenshot(label string) {
	s.captures = append(s.captures, label)
}

// flushCaptures writes every queued capture of screen as a PNG named after
// the frame number and label. Called at the end of Scene.Draw.
func (s *Scene) flushCaptures(screen *ebiten.Image) {
	if len(s.captures) == 0 {
		return
	}
	labels := s.captures
	s.captures = s.captures[:0]

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		Logger().Warn("screenshot", "dir", s.ScreenshotDir, "err", err)
		return
	}
	// ebiten pixels are premultiplied RGBA, which is image.RGBA's layout.
	img := image.NewRGBA(screen.Bounds())
	screen.ReadPixels(img.Pix)
	for _, label := range labels {
		path := filepath.Join(s.ScreenshotDir, fmt.Sprintf("%06d_%s.png", s.frame, captureName(label)))
		if err := writePNG(path, img); err != nil {
			Logger().Warn("screenshot", "err", err)
			continue
		}
		Logger().Info("screenshot written", "path", path)
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// captureName makes label safe for a file name.
func captureName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "frame"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
