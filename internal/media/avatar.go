package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"os"
	"strings"

	"kidflix/internal/models"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	AvatarMaxSize = 256
	JPEGQuality   = 82
)

// Avatar converts an uploaded image into an avatar reference. Raster
// images are scaled down to fit AvatarMaxSize and re-encoded as JPEG;
// SVG is kept as is. Anything that is not an image is rejected.
func Avatar(content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(content) > MaxAttachmentBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxAttachmentBytes/(1024*1024)))
	}
	mt := DetectType(content)
	if !strings.HasPrefix(mt, "image/") {
		return "", models.NewValidationError("Avatar must be an image")
	}
	if mt == "image/svg+xml" {
		return DataURL(mt, content), nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	encoded, err := encodeJPEG(flatten(resizeToFit(decoded, AvatarMaxSize, AvatarMaxSize)), JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return DataURL("image/jpeg", encoded), nil
}

// AvatarFromFile reads path and converts it with Avatar.
func AvatarFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read avatar: %w", err)
	}
	return Avatar(content)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// flatten composites src onto white so transparent pixels survive JPEG.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
