package media

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const (
	optimizedDimension = 400
	jpegQuality        = 85
)

// optimizeImage normalizes an uploaded image to a 400x400 JPEG: cropped to
// fill from center, re-encoded at quality 85. Fails on bytes that do not
// decode as a supported image.
func optimizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	img = imaging.Fill(img, optimizedDimension, optimizedDimension, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
