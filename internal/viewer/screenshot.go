package viewer

import (
	"image"
	"io"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

// Screenshot renders the current state synchronously and returns a copy
// of the frame.
func (v *Viewer) Screenshot() (*image.RGBA, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return nil, ErrDisposed
	}

	v.renderLocked()

	out := image.NewRGBA(v.frame.Rect)
	copy(out.Pix, v.frame.Pix)
	return out, nil
}

// WriteScreenshot renders the current state and writes it as a webp
// image, rescaled when the requested dimensions differ from the render
// target.
func (v *Viewer) WriteScreenshot(w io.Writer, width, height int) error {
	img, err := v.Screenshot()
	if err != nil {
		return err
	}

	if width > 0 && height > 0 && (width != img.Rect.Dx() || height != img.Rect.Dy()) {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Rect, img, img.Rect, xdraw.Over, nil)
		img = scaled
	}

	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: 90})
}
