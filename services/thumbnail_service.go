package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"jaryo/config"
	"jaryo/storage"

	"github.com/disintegration/imaging"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions[ext]
}

var errImageTooLarge = errors.New("image exceeds thumbnail pixel limit")

type thumbnailer struct {
	blobs storage.BlobStore
	cfg   config.ThumbnailConfig
}

// Generate reads the image at srcKey and writes a JPEG thumbnail to dstKey.
func (t *thumbnailer) Generate(ctx context.Context, srcKey string, dstKey string) error {
	src, _, err := t.blobs.Open(ctx, srcKey)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer src.Close()

	// Header-only check; a small file can still declare enormous dimensions.
	header, _, err := image.DecodeConfig(src)
	if err != nil {
		return fmt.Errorf("read image header: %w", err)
	}
	if limit := t.cfg.MaxPixels; limit > 0 && int64(header.Width)*int64(header.Height) > limit {
		return fmt.Errorf("%w: %dx%d", errImageTooLarge, header.Width, header.Height)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind image: %w", err)
	}

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, t.cfg.Width, t.cfg.Height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(t.cfg.Quality)); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	size := int64(buf.Len())
	if _, err := t.blobs.Put(ctx, dstKey, &buf, size, "image/jpeg"); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	return nil
}
