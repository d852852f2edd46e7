package payload

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooni/hy3d/types"
)

func textSettings(prompt string) Settings {
	return Settings{
		InputMode:    types.InputText,
		Prompt:       prompt,
		ResultFormat: types.FormatGLB,
	}
}

func TestBuild_PromptOnly(t *testing.T) {
	req, err := Build(textSettings("a cute robot toy"))
	require.NoError(t, err)

	assert.Equal(t, "a cute robot toy", req.Prompt)
	assert.Equal(t, types.FormatGLB, req.ResultFormat)
	assert.Empty(t, req.Image)
	assert.Empty(t, req.Images)

	params := req.Parameters()
	assert.Equal(t, "GLB", params["ResultFormat"])
	assert.Equal(t, "a cute robot toy", params["Prompt"])
	assert.NotContains(t, params, "Image")
	assert.NotContains(t, params, "Images")
}

func TestBuild_Deterministic(t *testing.T) {
	settings := textSettings("same input")
	first, err := Build(settings)
	require.NoError(t, err)
	second, err := Build(settings)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_PromptValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:    "missing prompt in text mode",
			mutate:  func(s *Settings) { s.Prompt = "" },
			wantErr: "prompt is required",
		},
		{
			name:    "whitespace prompt counts as absent",
			mutate:  func(s *Settings) { s.Prompt = "   \t " },
			wantErr: "prompt is required",
		},
		{
			name:    "bad result format",
			mutate:  func(s *Settings) { s.ResultFormat = "STL" },
			wantErr: "unsupported result format",
		},
		{
			name:    "unknown input mode",
			mutate:  func(s *Settings) { s.InputMode = "VOICE" },
			wantErr: "unknown input mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := textSettings("prompt")
			tt.mutate(&settings)

			req, err := Build(settings)
			assert.Nil(t, req)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_ImageURL(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		ImageURL:     "https://example.com/a.png",
		ResultFormat: types.FormatOBJ,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", req.Image)
	assert.Empty(t, req.Images)
	assert.Empty(t, req.Prompt)

	params := req.Parameters()
	assert.Equal(t, "https://example.com/a.png", params["Image"])
	assert.NotContains(t, params, "Prompt")
}

func TestBuild_ImageURL_BadScheme(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		ImageURL:     "ftp://bad",
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	assert.Nil(t, req)
	assert.True(t, types.IsCode(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "http:// or https://")
}

func TestBuild_ImageModeDropsPrompt(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		ImageURL:     "https://example.com/a.png",
		Prompt:       "should vanish",
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	assert.Empty(t, req.Prompt)
}

func TestBuild_MultiViewURLs(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		MultiView:    true,
		ImageValues:  []string{"https://example.com/front.png", " ", "https://example.com/back.png"},
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	assert.Empty(t, req.Image)
	assert.Equal(t, []string{"https://example.com/front.png", "https://example.com/back.png"}, req.Images)

	params := req.Parameters()
	assert.NotContains(t, params, "Image")
	assert.Equal(t, req.Images, params["Images"])
}

func TestBuild_TextImageCombined(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputTextImage,
		ImageSource:  types.SourceURL,
		ImageURL:     "https://example.com/a.png",
		Prompt:       "a cute robot toy",
		ResultFormat: types.FormatFBX,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	assert.Equal(t, "a cute robot toy", req.Prompt)
	assert.Equal(t, "https://example.com/a.png", req.Image)
}

func TestBuild_Base64(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceBase64,
		ImageBase64:  "data:image/png;base64," + value,
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	// Data URI prefix is stripped before submission.
	assert.Equal(t, value, req.Image)
}

func TestBuild_Base64_Invalid(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceBase64,
		ImageBase64:  "not//valid==base64!!",
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	assert.Nil(t, req)
	assert.True(t, types.IsCode(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "base64")
}

func TestBuild_Base64_SizeLimit(t *testing.T) {
	fiveMB := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, 5*1024*1024))
	three := []string{fiveMB, fiveMB, fiveMB} // 15MB decoded total

	settings := Settings{
		InputMode:     types.InputImage,
		ImageSource:   types.SourceBase64,
		MultiView:     true,
		ImageValues:   three,
		ResultFormat:  types.FormatGLB,
		Base64LimitMB: 20,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	require.Len(t, req.Images, 3)

	// 25MB decoded total against the same 20MB limit is rejected,
	// naming the limit.
	bigger := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, 25*1024*1024/3+1))
	settings.ImageValues = []string{bigger, bigger, bigger}
	req, err = Build(settings)
	assert.Nil(t, req)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "20 MB")
}

func TestBuild_EmptyRequest(t *testing.T) {
	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	assert.Nil(t, req)
	assert.True(t, types.IsCode(err, types.ErrValidation))
}

func writeTestImage(t *testing.T, path string, opaque bool) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			alpha := uint8(255)
			if !opaque && x == 0 {
				alpha = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: alpha})
		}
	}
	var buf bytes.Buffer
	if strings.HasSuffix(path, ".png") {
		require.NoError(t, png.Encode(&buf, img))
	} else {
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestBuild_LocalFile_NormalizesOpaqueToJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.png")
	writeTestImage(t, path, true)

	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceFile,
		ImageValues:  []string{path},
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(req.Image)
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestBuild_LocalFile_KeepsAlphaAsPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.png")
	writeTestImage(t, path, false)

	settings := Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceFile,
		ImageValues:  []string{path},
		ResultFormat: types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(req.Image)
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestBuild_LocalFile_Errors(t *testing.T) {
	dir := t.TempDir()
	exotic := filepath.Join(dir, "model.psd")
	require.NoError(t, os.WriteFile(exotic, []byte("xx"), 0o644))

	tests := []struct {
		name    string
		values  []string
		wantErr string
	}{
		{"missing file", []string{filepath.Join(dir, "nope.png")}, "not found"},
		{"bad extension", []string{exotic}, "unsupported image file extension"},
		{"no files", nil, "no image files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Settings{
				InputMode:    types.InputImage,
				ImageSource:  types.SourceFile,
				ImageValues:  tt.values,
				ResultFormat: types.FormatGLB,
			}
			req, err := Build(settings)
			assert.Nil(t, req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_LocalFile_SingleSelection(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.jpg")
	second := filepath.Join(dir, "b.jpg")
	writeTestImage(t, first, true)
	writeTestImage(t, second, true)

	settings := Settings{
		InputMode:      types.InputImage,
		ImageSource:    types.SourceFile,
		ImageValues:    []string{first, second},
		ImageFileIndex: 1,
		ResultFormat:   types.FormatGLB,
	}

	req, err := Build(settings)
	require.NoError(t, err)
	assert.NotEmpty(t, req.Image)
	assert.Empty(t, req.Images)

	// Out-of-range index falls back to the last entry.
	settings.ImageFileIndex = 7
	req, err = Build(settings)
	require.NoError(t, err)
	assert.NotEmpty(t, req.Image)
}

func TestBuild_Summary(t *testing.T) {
	req, err := Build(Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceURL,
		MultiView:    true,
		ImageValues:  []string{"https://a/1.png", "https://a/2.png"},
		ResultFormat: types.FormatGLB,
	})
	require.NoError(t, err)

	summary := req.Summary()
	assert.Contains(t, summary, "input=IMAGE")
	assert.Contains(t, summary, "source=URL")
	assert.Contains(t, summary, "images=2")
}

func TestBuild_PassthroughUndecodableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.bmp")
	raw := []byte("not a real bitmap, passed through as-is")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	req, err := Build(Settings{
		InputMode:    types.InputImage,
		ImageSource:  types.SourceFile,
		ImageValues:  []string{path},
		ResultFormat: types.FormatGLB,
	})
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(req.Image)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
