package parsers

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ThumbnailSize is the bounding box of generated thumbnails in pixels.
const ThumbnailSize = 500

// WriteThumbnailFrom scales an image file into a thumbnail inside dir.
func WriteThumbnailFrom(sourcePath, dir string) (string, error) {
	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("opening image for thumbnail: %w", err)
	}
	return saveThumbnail(imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos), dir)
}

// WritePlaceholderThumbnail writes a blank page thumbnail for formats
// that cannot be rasterised.
func WritePlaceholderThumbnail(dir string) (string, error) {
	page := imaging.New(ThumbnailSize, ThumbnailSize*7/5, color.White)
	header := imaging.New(ThumbnailSize, 24, color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff})
	page = imaging.Paste(page, header, image.Pt(0, 0))
	return saveThumbnail(page, dir)
}

// Working files get unique names so repeated parses sharing a work
// area never overwrite each other.
func saveThumbnail(img image.Image, dir string) (string, error) {
	path := filepath.Join(dir, uuid.NewString()+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("saving thumbnail: %w", err)
	}
	return path, nil
}
