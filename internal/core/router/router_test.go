package router

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Docura/internal/core"
)

func testLogger() log.Logger {
	return log.Logger{Level: log.ErrorLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

// fakeVision implements core.LLMProvider plus the vision extension the
// router probes for.
type fakeVision struct {
	label string
	err   error
}

func (f *fakeVision) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeVision) GenerateWithData(context.Context, string, string, string, []byte) (string, error) {
	return f.label, f.err
}

func TestRouteEmptyDocument(t *testing.T) {
	r := New(nil, testLogger())
	_, err := r.Route(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestRouteNonPDFDefaultsToStandardOCR(t *testing.T) {
	r := New(nil, testLogger())

	decision, err := r.Route(context.Background(), []byte("plain image bytes"), Options{MimeType: "image/png"})
	require.NoError(t, err)

	assert.False(t, decision.IsNativePDF)
	assert.Equal(t, core.ProviderStandardOCR, decision.Provider)
	assert.Equal(t, 1, decision.PageCount)
	assert.Contains(t, decision.Reason, "default OCR tier")
}

func TestRouteComplexLabelUsesVisionOCR(t *testing.T) {
	for _, label := range []string{"handwritten", "complex", "blurry", "messy"} {
		t.Run(label, func(t *testing.T) {
			r := New(&fakeVision{label: " " + label + " \n"}, testLogger())

			decision, err := r.Route(context.Background(), []byte("scan bytes"), Options{MimeType: "image/jpeg"})
			require.NoError(t, err)
			assert.Equal(t, core.ProviderVisionOCR, decision.Provider)
			assert.Equal(t, label, decision.VisionLabel)
		})
	}
}

func TestRouteCleanLabelStaysOnStandardOCR(t *testing.T) {
	r := New(&fakeVision{label: "Clean"}, testLogger())

	decision, err := r.Route(context.Background(), []byte("scan bytes"), Options{})
	require.NoError(t, err)
	assert.Equal(t, core.ProviderStandardOCR, decision.Provider)
	assert.Equal(t, "clean", decision.VisionLabel)
}

func TestRouteClassifierFailureIsBestEffort(t *testing.T) {
	r := New(&fakeVision{err: errors.New("vision model down")}, testLogger())

	decision, err := r.Route(context.Background(), []byte("scan bytes"), Options{})
	require.NoError(t, err)
	assert.Empty(t, decision.VisionLabel)
	assert.Equal(t, core.ProviderStandardOCR, decision.Provider)
}

func TestProbeNativeText(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		pageCount  int
		wantNative bool
		wantConf   float64
	}{
		{
			name:       "no fonts means scan",
			data:       []byte("%PDF- /Subtype/Image /Subtype/Image"),
			pageCount:  2,
			wantNative: false,
			wantConf:   0.9,
		},
		{
			name:       "one stub font with per-page images means scan",
			data:       []byte("%PDF- /Font /Subtype/Image /Subtype/Image"),
			pageCount:  2,
			wantNative: false,
			wantConf:   0.7,
		},
		{
			name:       "fonts without blanket images means native",
			data:       []byte("%PDF- /Font /Font /Font some text operators"),
			pageCount:  3,
			wantNative: true,
			wantConf:   0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native, conf := probeNativeText(tt.data, tt.pageCount)
			assert.Equal(t, tt.wantNative, native)
			assert.Equal(t, tt.wantConf, conf)
		})
	}
}

func TestSampleBounds(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)
	assert.Len(t, sample(data, 40), 40)
	assert.Len(t, sample(data, 200), 100)
}
