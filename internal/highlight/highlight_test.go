package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesFindsNormalizedWords(t *testing.T) {
	spans := Matches("The Summer Holiday", map[string]bool{"summer": true})
	assert.Len(t, spans, 1)
	assert.Equal(t, "Summer", "The Summer Holiday"[spans[0].Start:spans[0].End])
}

func TestMarkWrapsSpans(t *testing.T) {
	spans := Matches("summer holiday", map[string]bool{"summer": true, "holiday": true})
	out := Mark("summer holiday", spans, "<em>", "</em>")
	assert.Equal(t, "<em>summer</em> <em>holiday</em>", out)
}

func TestMarkNoSpansReturnsOriginal(t *testing.T) {
	assert.Equal(t, "hello", Mark("hello", nil, "<em>", "</em>"))
}

func TestCropShortTextReturnsOriginal(t *testing.T) {
	text := "a b c"
	cropped, offset := Crop(text, nil, 10)
	assert.Equal(t, text, cropped)
	assert.Equal(t, 0, offset)
}

func TestCropCentersOnDensestWindow(t *testing.T) {
	text := "noise noise noise summer holiday noise noise"
	spans := Matches(text, map[string]bool{"summer": true, "holiday": true})
	cropped, _ := Crop(text, spans, 3)
	assert.Contains(t, cropped, "summer")
	assert.Contains(t, cropped, "holiday")
}
