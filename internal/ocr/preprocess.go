package ocr

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Downscaling bound: menu photos larger than this waste provider tokens
// without improving recognition.
const maxImageEdge = 2000

// preprocessImage decodes the image, scales its longest edge down to
// maxImageEdge when needed, and re-encodes as JPEG. On any decode failure the
// original bytes are returned untouched so extraction can still proceed.
func preprocessImage(data []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxImageEdge {
		return data
	}

	scale := float64(maxImageEdge) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return data
	}
	return buf.Bytes()
}
