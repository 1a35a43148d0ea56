package service

import (
	"testing"

	"github.com/SunnyMondal53778/pastport-history/pkg/validation"

	"github.com/stretchr/testify/require"
)

func fingerprintOf(t *testing.T, raw string) string {
	t.Helper()
	img, err := validation.CanonicalizeImage(raw)
	require.NoError(t, err)
	return img.Info.Fingerprint
}
