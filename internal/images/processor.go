package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/logger"
	"github.com/disintegration/imaging"
)

const processedExt = ".jpg"

// Processor normalizes uploaded cover art: exact Size×Size crop-fit,
// re-encoded as JPEG at the configured quality.
type Processor struct {
	Size    int
	Quality int
}

func NewProcessor(size, quality int) *Processor {
	return &Processor{Size: size, Quality: quality}
}

// Process converts the raw upload at srcPath into a normalized image next to
// it and returns the new path. The original is removed once the output is
// written, unless the two paths coincide. On failure both the partial output
// and the original are cleaned up, so no request leaves a stray file behind.
func (p *Processor) Process(srcPath string) (string, error) {
	dstPath := p.destinationPath(srcPath)

	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		p.cleanup(srcPath, dstPath)
		return "", fmt.Errorf("decoding image: %w", err)
	}

	resized := imaging.Fill(img, p.Size, p.Size, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(resized, dstPath, imaging.JPEGQuality(p.Quality)); err != nil {
		p.cleanup(srcPath, dstPath)
		return "", fmt.Errorf("encoding image: %w", err)
	}

	if srcPath != dstPath {
		if err := os.Remove(srcPath); err != nil {
			logger.Warn("image_original_remove_failed", map[string]interface{}{
				"path":  srcPath,
				"error": err.Error(),
			})
		}
	}

	return dstPath, nil
}

// destinationPath swaps the extension for the target one. When the upload
// already carries it, a timestamped infix avoids writing over the source
// mid-read.
func (p *Processor) destinationPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(srcPath, ext)
	if strings.EqualFold(ext, processedExt) {
		return fmt.Sprintf("%s_processed.%d%s", base, time.Now().UnixNano(), processedExt)
	}
	return base + processedExt
}

func (p *Processor) cleanup(srcPath, dstPath string) {
	if dstPath != srcPath {
		if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("image_cleanup_failed", map[string]interface{}{"path": dstPath, "error": err.Error()})
		}
	}
	if err := os.Remove(srcPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("image_cleanup_failed", map[string]interface{}{"path": srcPath, "error": err.Error()})
	}
}
