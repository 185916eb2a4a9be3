// Package media converts files into the data references stored on posts
// and users.
package media

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"kidflix/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAttachmentBytes bounds the size of a single attached file.
const MaxAttachmentBytes = 10 * 1024 * 1024

var avatarPalette = []string{
	"#f97316", "#ef4444", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

// Attachment is a converted file ready to be attached to a post.
type Attachment struct {
	URL  string
	Type string
	Name string
}

// PostInput returns the attachment as the media part of a post payload.
func (a Attachment) PostInput(caption string) models.PostInput {
	return models.PostInput{
		FileURL:  a.URL,
		FileType: a.Type,
		FileName: a.Name,
		Caption:  caption,
	}
}

// DataURL encodes content as a base64 data URL of the given media type.
func DataURL(mediaType string, content []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// DetectType sniffs the media type of content, without parameters.
func DetectType(content []byte) string {
	mt := mimetype.Detect(content).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

// NewAttachment converts raw file content into an attachment. The media
// type is detected from the content, not from the name.
func NewAttachment(name string, content []byte) (*Attachment, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if len(content) > MaxAttachmentBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxAttachmentBytes/(1024*1024)))
	}
	mt := DetectType(content)
	return &Attachment{
		URL:  DataURL(mt, content),
		Type: mt,
		Name: filepath.Base(name),
	}, nil
}

// AttachmentFromFile reads path and converts it with NewAttachment.
func AttachmentFromFile(path string) (*Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return NewAttachment(path, content)
}

// DefaultAvatar renders a deterministic initial-letter avatar for a new
// account as an SVG data URL.
func DefaultAvatar(username string) string {
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(username)); r != utf8.RuneError {
		initial = string(unicode.ToUpper(r))
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	bg := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">`+
			`<rect width="128" height="128" rx="64" fill="%s"/>`+
			`<text x="64" y="84" font-family="sans-serif" font-size="56" text-anchor="middle" fill="#fff">%s</text>`+
			`</svg>`,
		bg, escapeXML(initial))
	return DataURL("image/svg+xml", []byte(svg))
}

func escapeXML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
