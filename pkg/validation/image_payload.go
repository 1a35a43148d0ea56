package validation

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// DefaultImageMIME is used when the caller sends bare base64 we cannot sniff
const DefaultImageMIME = "image/jpeg"

const dataURIScheme = "data:"

// ImageInfo holds diagnostics-only facts about an uploaded image
type ImageInfo struct {
	MIMEType    string     `json:"mime_type"`
	SizeBytes   int        `json:"size_bytes"`
	Fingerprint string     `json:"fingerprint"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
}

// CanonicalImage is the media-typed data URI forwarded upstream
type CanonicalImage struct {
	DataURI string
	Info    ImageInfo
}

// ImageValidator turns the client's imageBase64 field into a canonical data URI
type ImageValidator struct {
	defaultMIME string
}

// NewImageValidator creates a validator that sniffs bare base64 payloads
func NewImageValidator() *ImageValidator {
	return &ImageValidator{
		defaultMIME: DefaultImageMIME,
	}
}

// Canonicalize validates presence and normalizes the payload. A data URI is
// forwarded as-is; bare base64 gets a data:<mime>;base64, prefix. Undecodable
// base64 is not rejected here, the provider is the judge of image validity.
func (v *ImageValidator) Canonicalize(raw string) (*CanonicalImage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, apperrors.NewClientInputError(apperrors.MsgNoImage, nil)
	}

	if hasDataScheme(trimmed) {
		mime, payload := splitDataURI(trimmed)
		decoded := decodeBase64(payload)
		return &CanonicalImage{
			DataURI: trimmed,
			Info:    inspect(trimmed, mime, decoded),
		}, nil
	}

	payload := strings.Join(strings.Fields(trimmed), "")
	decoded := decodeBase64(payload)
	mime := v.detectMIME(decoded)
	dataURI := dataURIScheme + mime + ";base64," + payload

	return &CanonicalImage{
		DataURI: dataURI,
		Info:    inspect(dataURI, mime, decoded),
	}, nil
}

// CanonicalizeImage canonicalizes with the default validator
func CanonicalizeImage(raw string) (*CanonicalImage, error) {
	return defaultValidator.Canonicalize(raw)
}

var defaultValidator = NewImageValidator()

func (v *ImageValidator) detectMIME(decoded []byte) string {
	if len(decoded) == 0 {
		return v.defaultMIME
	}
	detected := mimetype.Detect(decoded).String()
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return v.defaultMIME
}

// Fingerprint identifies a canonical payload for in-flight de-duplication
func Fingerprint(dataURI string) string {
	sum := sha256.Sum256([]byte(dataURI))
	return hex.EncodeToString(sum[:])
}

func hasDataScheme(s string) bool {
	return len(s) >= len(dataURIScheme) && strings.EqualFold(s[:len(dataURIScheme)], dataURIScheme)
}

// splitDataURI returns the media type and the base64 payload of a data URI.
// Both are empty when the URI has no comma.
func splitDataURI(uri string) (string, string) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", ""
	}
	header := uri[len(dataURIScheme):comma]
	mime := header
	if semi := strings.IndexByte(header, ';'); semi >= 0 {
		mime = header[:semi]
	}
	if !strings.Contains(strings.ToLower(header), ";base64") {
		return mime, ""
	}
	return mime, uri[comma+1:]
}

func decodeBase64(payload string) []byte {
	if payload == "" {
		return nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(payload); err == nil {
			return decoded
		}
	}
	return nil
}

func inspect(dataURI, mime string, decoded []byte) ImageInfo {
	info := ImageInfo{
		MIMEType:    mime,
		SizeBytes:   len(decoded),
		Fingerprint: Fingerprint(dataURI),
	}
	if len(decoded) == 0 {
		return info
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(decoded)); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
	}

	x, err := exif.Decode(bytes.NewReader(decoded))
	if err != nil {
		return info
	}
	if taken, err := x.DateTime(); err == nil {
		info.TakenAt = &taken
	}
	if lat, long, err := x.LatLong(); err == nil {
		info.Latitude = &lat
		info.Longitude = &long
	}
	return info
}
