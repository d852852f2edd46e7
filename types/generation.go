package types

import "strings"

// ResultFormat is the requested output format for a generated model.
type ResultFormat string

const (
	FormatGLB ResultFormat = "GLB"
	FormatOBJ ResultFormat = "OBJ"
	FormatFBX ResultFormat = "FBX"
)

// ParseResultFormat normalizes a format string. Unknown values return
// false so callers can reject them as configuration errors.
func ParseResultFormat(s string) (ResultFormat, bool) {
	switch ResultFormat(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatGLB:
		return FormatGLB, true
	case FormatOBJ:
		return FormatOBJ, true
	case FormatFBX:
		return FormatFBX, true
	}
	return "", false
}

// Suffix returns the file suffix used for downloaded results,
// ".bin" for anything outside the supported set.
func (f ResultFormat) Suffix() string {
	switch f {
	case FormatGLB:
		return ".glb"
	case FormatOBJ:
		return ".obj"
	case FormatFBX:
		return ".fbx"
	}
	return ".bin"
}

// InputMode selects which generation inputs are required.
type InputMode string

const (
	InputText      InputMode = "TEXT"
	InputImage     InputMode = "IMAGE"
	InputTextImage InputMode = "TEXT_IMAGE"
)

// RequiresPrompt reports whether the mode needs a non-empty prompt.
func (m InputMode) RequiresPrompt() bool {
	return m == InputText || m == InputTextImage
}

// RequiresImage reports whether the mode needs at least one image.
func (m InputMode) RequiresImage() bool {
	return m == InputImage || m == InputTextImage
}

// ImageSource selects how reference images are supplied.
type ImageSource string

const (
	SourceURL    ImageSource = "URL"
	SourceBase64 ImageSource = "BASE64"
	SourceFile   ImageSource = "FILE"
)

// StorageMode selects where credentials live between uses.
type StorageMode string

const (
	// StoreNone keeps nothing: secrets must be retyped every time.
	StoreNone StorageMode = "NONE"
	// StoreSession caches secrets in process memory only.
	StoreSession StorageMode = "SESSION"
	// StoreDisk persists secrets encrypted on disk.
	StoreDisk StorageMode = "DISK"
)
