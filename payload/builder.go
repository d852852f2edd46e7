// Package payload validates user input and assembles the generation
// request body submitted to the 3D generation API.
package payload

import (
	"fmt"
	"strings"

	"github.com/fooni/hy3d/types"
)

// Settings is the raw user input consumed by Build. It mirrors what the
// host UI collects; Build is the only validation gate before submission.
type Settings struct {
	InputMode   types.InputMode
	ImageSource types.ImageSource
	MultiView   bool

	Prompt string

	// Single-value inputs, used when MultiView is false.
	ImageURL    string
	ImageBase64 string

	// Multi-value inputs. For SourceFile with MultiView false, the entry
	// at ImageFileIndex is used (the last one when out of range).
	ImageValues    []string
	ImageFileIndex int

	ResultFormat types.ResultFormat
	EnablePBR    bool
	FrontMask    bool

	// Base64LimitMB caps the total decoded image bytes. Values below 1
	// are clamped to 1; zero means the default of 20.
	Base64LimitMB int
}

// GenerationRequest is the validated, ready-to-submit payload. Field
// names match the provider wire format: exactly one of Image / Images is
// set, depending on how many references were supplied.
type GenerationRequest struct {
	ResultFormat types.ResultFormat `json:"ResultFormat"`
	Prompt       string             `json:"Prompt,omitempty"`
	Image        string             `json:"Image,omitempty"`
	Images       []string           `json:"Images,omitempty"`
	EnablePBR    bool               `json:"EnablePBR,omitempty"`
	FrontMask    bool               `json:"FrontMask,omitempty"`

	summary string
	stats   *imageStats
}

// Summary returns a short human-readable description of the request,
// suitable for logs and the status panel.
func (r *GenerationRequest) Summary() string { return r.summary }

// Parameters returns the payload as the parameter map accepted by the
// provider's generic request interface.
func (r *GenerationRequest) Parameters() map[string]any {
	params := map[string]any{
		"ResultFormat": string(r.ResultFormat),
	}
	if r.Prompt != "" {
		params["Prompt"] = r.Prompt
	}
	if r.EnablePBR {
		params["EnablePBR"] = true
	}
	if r.FrontMask {
		params["FrontMask"] = true
	}
	if len(r.Images) > 0 {
		params["Images"] = r.Images
	} else if r.Image != "" {
		params["Image"] = r.Image
	}
	return params
}

const defaultBase64LimitMB = 20

// Build validates settings and assembles the request. It is a pure
// function of its input apart from reading local image files: the same
// settings always produce an identical request.
func Build(s Settings) (*GenerationRequest, error) {
	if _, ok := types.ParseResultFormat(string(s.ResultFormat)); !ok {
		return nil, types.Errorf(types.ErrValidation, "unsupported result format %q", s.ResultFormat)
	}

	prompt := strings.TrimSpace(s.Prompt)
	switch {
	case s.InputMode.RequiresPrompt() && prompt == "":
		return nil, types.NewError(types.ErrValidation, "prompt is required for the selected input mode")
	case s.InputMode == types.InputImage:
		// Prompt and image inputs are mutually exclusive outside the
		// explicit text+image mode.
		prompt = ""
	case s.InputMode != types.InputText && s.InputMode != types.InputTextImage:
		return nil, types.Errorf(types.ErrValidation, "unknown input mode %q", s.InputMode)
	}

	bundle, err := prepareImages(s)
	if err != nil {
		return nil, err
	}
	if s.InputMode.RequiresImage() && bundle == nil {
		return nil, types.NewError(types.ErrValidation, "at least one reference image is required")
	}
	if prompt == "" && bundle == nil {
		return nil, types.NewError(types.ErrValidation, "request is empty: no prompt and no images")
	}

	req := &GenerationRequest{
		ResultFormat: s.ResultFormat,
		Prompt:       prompt,
		EnablePBR:    s.EnablePBR,
		FrontMask:    s.FrontMask,
	}
	if bundle != nil {
		if bundle.multi {
			req.Images = bundle.values
		} else {
			req.Image = bundle.values[0]
		}
		req.stats = bundle.stats
	}
	req.summary = summarize(s, bundle)
	return req, nil
}

func summarize(s Settings, bundle *imageBundle) string {
	parts := []string{fmt.Sprintf("input=%s", s.InputMode)}
	if bundle != nil {
		parts = append(parts,
			fmt.Sprintf("source=%s", s.ImageSource),
			fmt.Sprintf("images=%d", len(bundle.values)))
		if bundle.stats != nil && bundle.stats.DecodedBytes > 0 {
			mb := float64(bundle.stats.DecodedBytes) / (1024 * 1024)
			parts = append(parts, fmt.Sprintf("total≈%.1fMB", mb))
		}
	}
	parts = append(parts, fmt.Sprintf("format=%s", s.ResultFormat))
	return strings.Join(parts, " / ")
}
