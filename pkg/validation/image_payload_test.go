package validation

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCanonicalizeRejectsEmptyImage(t *testing.T) {
	v := NewImageValidator()

	for _, raw := range []string{"", "   ", "\n\t"} {
		img, err := v.Canonicalize(raw)
		assert.Nil(t, img)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindClientInput))
		assert.Equal(t, apperrors.MsgNoImage, apperrors.ClientMessage(err))
	}
}

func TestCanonicalizeDataURIPassesThrough(t *testing.T) {
	v := NewImageValidator()
	payload := encodePNG(t, 4, 3)
	uri := "data:image/png;base64," + payload

	img, err := v.Canonicalize("  " + uri + "\n")
	require.NoError(t, err)

	assert.Equal(t, uri, img.DataURI)
	assert.Equal(t, "image/png", img.Info.MIMEType)
	assert.Equal(t, 4, img.Info.Width)
	assert.Equal(t, 3, img.Info.Height)
	assert.Equal(t, Fingerprint(uri), img.Info.Fingerprint)
}

func TestCanonicalizeBareBase64SniffsMIME(t *testing.T) {
	v := NewImageValidator()
	payload := encodePNG(t, 8, 8)

	img, err := v.Canonicalize(payload)
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,"+payload, img.DataURI)
	assert.Equal(t, 8, img.Info.Width)
	assert.Greater(t, img.Info.SizeBytes, 0)
}

func TestCanonicalizeBareBase64StripsWhitespace(t *testing.T) {
	v := NewImageValidator()
	payload := encodePNG(t, 2, 2)
	wrapped := payload[:10] + "\n" + payload[10:20] + " \r\n" + payload[20:]

	img, err := v.Canonicalize(wrapped)
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,"+payload, img.DataURI)
}

func TestCanonicalizeFallsBackToJPEG(t *testing.T) {
	v := NewImageValidator()
	payload := base64.StdEncoding.EncodeToString([]byte("definitely not an image"))

	img, err := v.Canonicalize(payload)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.DataURI, "data:image/jpeg;base64,"))
	assert.Equal(t, DefaultImageMIME, img.Info.MIMEType)
	assert.Zero(t, img.Info.Width)
}

func TestCanonicalizeUndecodableBase64IsForwarded(t *testing.T) {
	v := NewImageValidator()

	img, err := v.Canonicalize("%%%not-base64%%%")
	require.NoError(t, err)

	assert.Equal(t, "data:image/jpeg;base64,%%%not-base64%%%", img.DataURI)
	assert.Zero(t, img.Info.SizeBytes)
}

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint("data:image/png;base64,AAAA")
	b := Fingerprint("data:image/png;base64,AAAA")
	c := Fingerprint("data:image/png;base64,AAAB")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSplitDataURI(t *testing.T) {
	tests := []struct {
		uri     string
		mime    string
		payload string
	}{
		{"data:image/png;base64,QUJD", "image/png", "QUJD"},
		{"DATA:image/jpeg;BASE64,QUJD", "image/jpeg", "QUJD"},
		{"data:image/png,rawbytes", "image/png", ""},
		{"data:nocomma", "", ""},
	}

	for _, tt := range tests {
		mime, payload := splitDataURI(tt.uri)
		assert.Equal(t, tt.mime, mime, tt.uri)
		assert.Equal(t, tt.payload, payload, tt.uri)
	}
}

func TestCanonicalizeImageUsesDefaults(t *testing.T) {
	img, err := CanonicalizeImage("QUJD")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", img.DataURI)
}
