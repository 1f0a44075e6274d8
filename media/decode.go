package media

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// toRGBA converts img to a zero-origin *image.RGBA no larger than maxSize
// on either side, scaling down while preserving the aspect ratio.
// A maxSize of 0 disables scaling.
func toRGBA(img image.Image, maxSize int) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		scale := float64(maxSize) / float64(max(w, h))
		sw := max(1, min(maxSize, int(float64(w)*scale+0.5)))
		sh := max(1, min(maxSize, int(float64(h)*scale+0.5)))
		dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return dst, nil
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst, nil
}

// scaleTo resamples img to exactly w x h.
func scaleTo(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
