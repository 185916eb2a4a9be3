package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kidflix/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func decodeDataURL(t *testing.T, url string) (string, []byte) {
	t.Helper()
	rest, ok := strings.CutPrefix(url, "data:")
	require.True(t, ok, "not a data url: %s", url)
	mt, payload, ok := strings.Cut(rest, ";base64,")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return mt, raw
}

func TestDefaultAvatar(t *testing.T) {
	a := DefaultAvatar("alice")
	assert.Equal(t, a, DefaultAvatar("alice"))
	assert.NotEqual(t, a, DefaultAvatar("bob"))

	mt, raw := decodeDataURL(t, a)
	assert.Equal(t, "image/svg+xml", mt)
	assert.Contains(t, string(raw), ">A</text>")

	_, raw = decodeDataURL(t, DefaultAvatar(""))
	assert.Contains(t, string(raw), ">?</text>")

	_, raw = decodeDataURL(t, DefaultAvatar("<x"))
	assert.Contains(t, string(raw), "&lt;")
}

func TestNewAttachment(t *testing.T) {
	content := tinyPNG(t, 4, 4)
	att, err := NewAttachment("/tmp/photos/cat.png", content)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.Type)
	assert.Equal(t, "cat.png", att.Name)

	mt, raw := decodeDataURL(t, att.URL)
	assert.Equal(t, "image/png", mt)
	assert.Equal(t, content, raw)

	in := att.PostInput("hello")
	assert.Equal(t, "hello", in.Caption)
	assert.Equal(t, att.URL, in.FileURL)
	assert.False(t, in.Empty())
}

func TestNewAttachment_Rejects(t *testing.T) {
	_, err := NewAttachment("empty.bin", nil)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = NewAttachment("big.bin", make([]byte, MaxAttachmentBytes+1))
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestAttachmentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o600))

	att, err := AttachmentFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", att.Type)
	assert.Equal(t, "note.txt", att.Name)

	_, err = AttachmentFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestAvatar_ScalesRasterImages(t *testing.T) {
	ref, err := Avatar(tinyPNG(t, 1024, 512))
	require.NoError(t, err)

	mt, raw := decodeDataURL(t, ref)
	assert.Equal(t, "image/jpeg", mt)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, AvatarMaxSize, img.Bounds().Dx())
	assert.Equal(t, AvatarMaxSize/2, img.Bounds().Dy())
}

func TestAvatar_KeepsSmallImageSize(t *testing.T) {
	ref, err := Avatar(tinyPNG(t, 32, 16))
	require.NoError(t, err)
	_, raw := decodeDataURL(t, ref)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())
}

func TestAvatar_SVGPassesThrough(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	ref, err := Avatar(svg)
	require.NoError(t, err)
	mt, raw := decodeDataURL(t, ref)
	assert.Equal(t, "image/svg+xml", mt)
	assert.Equal(t, svg, raw)
}

func TestAvatar_RejectsNonImages(t *testing.T) {
	_, err := Avatar([]byte("plain text is not an avatar"))
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = Avatar(nil)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
