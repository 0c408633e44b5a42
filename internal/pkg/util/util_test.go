package util

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDateAndMidnight(t *testing.T) {
	t.Parallel()

	ny := LoadLocation("America/New_York")
	// 03:30 UTC 在纽约仍是前一天
	instant := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", LocalDate(instant, ny))
	assert.Equal(t, "2026-03-10", LocalDate(instant, time.UTC))

	next := NextMidnight(instant, ny)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, ny), next)

	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
	assert.False(t, ValidTimezone("Not/AZone"))
	assert.True(t, ValidTimezone("Europe/Berlin"))
}

func TestWeekStartAndShift(t *testing.T) {
	t.Parallel()

	ws, err := WeekStart("2026-10-18") // 周日
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", ws)

	ws, err = WeekStart("2026-10-12")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", ws)

	d, err := ShiftDate("2026-03-01", -40)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-20", d)

	_, err = WeekStart("bad")
	assert.Error(t, err)
}

func TestImagePipeline(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	for x := 0; x < 2000; x += 10 {
		src.Set(x, 500, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	raw, err := DecodeBase64Image("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	require.NoError(t, err)

	out, err := DownscaleJPEG(raw, MaxImageEdge)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())

	_, err = DecodeBase64Image("  ")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

type sampleDTO struct {
	Classification string `validate:"required,classification"`
	Timezone       string `validate:"omitempty,timezone"`
	HandSize       string `validate:"omitempty,handsize"`
}

func TestValidateDTO(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateDTO(&sampleDTO{Classification: "tap", Timezone: "Asia/Tokyo", HandSize: "large"}))

	err := ValidateDTO(&sampleDTO{Classification: "bucket"})
	require.Error(t, err)
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "Classification")

	assert.Error(t, ValidateDTO(&sampleDTO{Classification: "tap", HandSize: "huge"}))
}

func TestRoundAndClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12.35, RoundTo(12.345000001, 2))
	assert.Equal(t, 0.3, RoundTo(0.1+0.2, 2))
	assert.Equal(t, 1, Clamp(0, 1, 365))
	assert.Equal(t, 365, Clamp(1000, 1, 365))
	assert.Equal(t, 30, Clamp(30, 1, 365))
}
