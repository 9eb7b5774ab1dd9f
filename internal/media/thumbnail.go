// Package media generates the small article thumbnails shown in list
// views from whatever lead image the cached content carries.
package media

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	apperrors "github.com/mlauter/inkwell/internal/errors"
)

// Thumbnail dimensions. List rows render at 2x on most displays.
const (
	ThumbWidth  = 320
	ThumbHeight = 200
)

// Thumbnail decodes an image payload, crops it to the thumbnail aspect
// ratio, and writes it as JPEG at path.
func Thumbnail(payload []byte, path string) error {
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "decoding thumbnail source", err)
	}

	thumb := imaging.Fill(img, ThumbWidth, ThumbHeight, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(82)); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "writing thumbnail", err)
	}
	return nil
}
