package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"jaryo/config"
	"jaryo/storage"

	"github.com/disintegration/imaging"
)

func TestIsImageFile(t *testing.T) {
	if !IsImageFile("avatar.PNG") {
		t.Fatalf("expected PNG extension to be recognized")
	}
	if IsImageFile("doc.txt") {
		t.Fatalf("expected TXT extension to be rejected")
	}
}

func encodePNG(t *testing.T, width int, height int) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailerFitsImageIntoBox(t *testing.T) {
	ctx := context.Background()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	raw := encodePNG(t, 200, 100)
	if _, err := blobs.Put(ctx, "files/src.png", bytes.NewReader(raw), int64(len(raw)), "image/png"); err != nil {
		t.Fatalf("put source: %v", err)
	}

	thumbs := &thumbnailer{blobs: blobs, cfg: config.ThumbnailConfig{Width: 64, Height: 64, Quality: 80}}
	if err := thumbs.Generate(ctx, "files/src.png", "thumbnails/src_thumb.jpg"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	obj, _, err := blobs.Open(ctx, "thumbnails/src_thumb.jpg")
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	defer obj.Close()
	img, err := imaging.Decode(obj)
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 64 || got.Y != 32 {
		t.Fatalf("expected 64x32 thumbnail, got %dx%d", got.X, got.Y)
	}
}

func TestThumbnailerRejectsNonImage(t *testing.T) {
	ctx := context.Background()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	if _, err := blobs.Put(ctx, "files/fake.png", bytes.NewReader([]byte("not an image")), 12, "image/png"); err != nil {
		t.Fatalf("put source: %v", err)
	}

	thumbs := &thumbnailer{blobs: blobs, cfg: config.ThumbnailConfig{Width: 64, Height: 64, Quality: 80}}
	if err := thumbs.Generate(ctx, "files/fake.png", "thumbnails/fake_thumb.jpg"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, _, err := blobs.Open(ctx, "thumbnails/fake_thumb.jpg"); err == nil {
		t.Fatalf("expected no thumbnail to be written")
	}
}

func TestThumbnailerSkipsImagesOverPixelLimit(t *testing.T) {
	ctx := context.Background()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	raw := encodePNG(t, 200, 100)
	if _, err := blobs.Put(ctx, "files/wide.png", bytes.NewReader(raw), int64(len(raw)), "image/png"); err != nil {
		t.Fatalf("put source: %v", err)
	}

	thumbs := &thumbnailer{blobs: blobs, cfg: config.ThumbnailConfig{Width: 64, Height: 64, Quality: 80, MaxPixels: 19_999}}
	err = thumbs.Generate(ctx, "files/wide.png", "thumbnails/wide_thumb.jpg")
	if !errors.Is(err, errImageTooLarge) {
		t.Fatalf("expected errImageTooLarge, got %v", err)
	}
	if _, _, err := blobs.Open(ctx, "thumbnails/wide_thumb.jpg"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no thumbnail to be written, got %v", err)
	}

	thumbs.cfg.MaxPixels = 20_000
	if err := thumbs.Generate(ctx, "files/wide.png", "thumbnails/wide_thumb.jpg"); err != nil {
		t.Fatalf("expected image at the limit to be thumbnailed, got %v", err)
	}
}
