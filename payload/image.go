package payload

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Raster formats accepted for local-file references beyond the
	// stdlib codecs.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fooni/hy3d/types"
)

// imageStats tracks decoded and encoded sizes across all references.
type imageStats struct {
	DecodedBytes int
	EncodedBytes int
}

// imageBundle is the validated set of image references. values are
// either URLs or base64 strings, never mixed.
type imageBundle struct {
	values []string
	multi  bool
	stats  *imageStats
}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

const jpegQuality = 92

func prepareImages(s Settings) (*imageBundle, error) {
	if !s.InputMode.RequiresImage() {
		return nil, nil
	}

	switch s.ImageSource {
	case types.SourceURL:
		return prepareURLs(s)
	case types.SourceBase64:
		return prepareBase64(s)
	case types.SourceFile:
		return prepareFiles(s)
	}
	return nil, types.Errorf(types.ErrValidation, "unknown image source %q", s.ImageSource)
}

func prepareURLs(s Settings) (*imageBundle, error) {
	var values []string
	if s.MultiView {
		values = nonEmpty(s.ImageValues)
	} else if url := strings.TrimSpace(s.ImageURL); url != "" {
		values = []string{url}
	}
	if len(values) == 0 {
		return nil, types.NewError(types.ErrValidation, "no image URLs provided")
	}
	for _, value := range values {
		lower := strings.ToLower(value)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return nil, types.Errorf(types.ErrValidation,
				"image URLs must start with http:// or https:// (got %q)", value)
		}
	}
	return &imageBundle{values: values, multi: s.MultiView}, nil
}

func prepareBase64(s Settings) (*imageBundle, error) {
	var raw []string
	if s.MultiView {
		raw = nonEmpty(s.ImageValues)
	} else if value := strings.TrimSpace(s.ImageBase64); value != "" {
		raw = []string{value}
	}
	if len(raw) == 0 {
		return nil, types.NewError(types.ErrValidation, "no base64 images were provided")
	}

	stats := &imageStats{}
	cleaned := make([]string, 0, len(raw))
	for _, value := range raw {
		c, decodedLen, err := validateBase64(value)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, c)
		stats.DecodedBytes += decodedLen
		stats.EncodedBytes += len(c)
	}
	if err := checkSizeLimit(stats.DecodedBytes, s.Base64LimitMB); err != nil {
		return nil, err
	}
	return &imageBundle{values: cleaned, multi: s.MultiView, stats: stats}, nil
}

func prepareFiles(s Settings) (*imageBundle, error) {
	paths := nonEmpty(s.ImageValues)
	if len(paths) == 0 {
		return nil, types.NewError(types.ErrValidation, "no image files were selected")
	}
	if !s.MultiView {
		index := s.ImageFileIndex
		if index < 0 || index >= len(paths) {
			index = len(paths) - 1
		}
		paths = paths[index : index+1]
	}

	stats := &imageStats{}
	encoded := make([]string, 0, len(paths))
	for _, raw := range paths {
		path := expandUser(raw)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, types.Errorf(types.ErrValidation, "image file not found: %s", path)
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != "" && !allowedExtensions[ext] {
			return nil, types.Errorf(types.ErrValidation, "unsupported image file extension: %s", ext)
		}
		data, err := loadImageBytes(path)
		if err != nil {
			return nil, err
		}
		value := base64.StdEncoding.EncodeToString(data)
		encoded = append(encoded, value)
		stats.DecodedBytes += len(data)
		stats.EncodedBytes += len(value)
	}
	if err := checkSizeLimit(stats.DecodedBytes, s.Base64LimitMB); err != nil {
		return nil, err
	}
	return &imageBundle{values: encoded, multi: s.MultiView, stats: stats}, nil
}

// cleanBase64 strips an optional data:...;base64, prefix.
func cleanBase64(value string) string {
	stripped := strings.TrimSpace(value)
	if strings.HasPrefix(stripped, "data:") {
		if idx := strings.IndexByte(stripped, ','); idx >= 0 {
			stripped = stripped[idx+1:]
		}
	}
	return stripped
}

func validateBase64(value string) (string, int, error) {
	cleaned := cleanBase64(value)
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", 0, types.NewError(types.ErrValidation, "invalid base64 image payload").WithCause(err)
	}
	return cleaned, len(decoded), nil
}

func checkSizeLimit(decodedBytes, limitMB int) error {
	if limitMB == 0 {
		limitMB = defaultBase64LimitMB
	}
	if limitMB < 1 {
		limitMB = 1
	}
	limitBytes := limitMB * 1024 * 1024
	if decodedBytes > limitBytes {
		return types.Errorf(types.ErrValidation,
			"total decoded image size %.1f MB exceeds limit of %d MB",
			float64(decodedBytes)/(1024*1024), limitMB)
	}
	return nil
}

// loadImageBytes reads an image file and re-encodes it to a normalized
// form to bound the payload size: opaque sources become JPEG, sources
// with transparency become PNG. Files the codecs cannot decode pass
// through unmodified.
func loadImageBytes(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Errorf(types.ErrValidation, "failed to read image file: %s", path).WithCause(err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return raw, nil
	}

	var buf bytes.Buffer
	if hasAlpha(img) {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return raw, nil
	}
	return buf.Bytes(), nil
}

// hasAlpha reports whether any pixel is not fully opaque.
func hasAlpha(img image.Image) bool {
	if opaquer, ok := img.(interface{ Opaque() bool }); ok {
		return !opaquer.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func expandUser(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], string(filepath.Separator)))
		}
	}
	return path
}
