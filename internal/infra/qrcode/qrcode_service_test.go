package qrcode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGeneratePNG_ProducesPNG(t *testing.T) {
	svc := NewQRCodeService(256, "M")

	png, err := svc.GeneratePNG("https://learn.example.com/courses/intro-to-go")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGeneratePNG_UnknownLevelFallsBackToMedium(t *testing.T) {
	svc := NewQRCodeService(128, "X")

	png, err := svc.GeneratePNG("fallback-level")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestGeneratePNG_EmptyContentFails(t *testing.T) {
	svc := NewQRCodeService(128, "L")

	_, err := svc.GeneratePNG("")
	assert.Error(t, err)
}
