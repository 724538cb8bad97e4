package openaivideo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hardingCheng/waoowaoo/internal/domain"
)

// DefaultModel is submitted when the request names no model.
const DefaultModel = "sora-2"

// Canonical output sizes accepted by the video endpoint.
const (
	SizePortrait720   = "720x1280"
	SizeLandscape720  = "1280x720"
	SizePortrait1080  = "1024x1792"
	SizeLandscape1080 = "1792x1024"
)

var canonicalSizes = map[string]bool{
	SizePortrait720:   true,
	SizeLandscape720:  true,
	SizePortrait1080:  true,
	SizeLandscape1080: true,
}

// allowedOptionKeys is the closed set of request option keys the adapter
// tolerates. provider and modelKey are accepted for callers that send them
// but carry no behavior here.
var allowedOptionKeys = map[string]bool{
	"provider":    true,
	"modelId":     true,
	"modelKey":    true,
	"duration":    true,
	"resolution":  true,
	"aspectRatio": true,
	"size":        true,
}

// videoParams is the validated, provider-ready subset of a generation request.
type videoParams struct {
	Model   string
	Prompt  string
	Seconds string
	Size    string
}

// validateRequest normalizes the free-form options into provider parameters,
// rejecting anything outside the documented contract.
func validateRequest(req GenerateRequest, defaultModel string) (videoParams, error) {
	if key := firstUnknownKey(req.Options); key != "" {
		return videoParams{}, domain.NewError(domain.CodeVideoOptionUnsupported, "option %q is not supported", key)
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return videoParams{}, domain.NewError(domain.CodeVideoPromptRequired, "prompt is required")
	}

	model, err := normalizeModel(req.Options["modelId"], defaultModel)
	if err != nil {
		return videoParams{}, err
	}

	seconds, err := normalizeDuration(req.Options["duration"])
	if err != nil {
		return videoParams{}, err
	}

	size, err := resolveFinalSize(req.Options, aspectRatioOf(req.Options))
	if err != nil {
		return videoParams{}, err
	}

	return videoParams{Model: model, Prompt: prompt, Seconds: seconds, Size: size}, nil
}

func firstUnknownKey(options map[string]any) string {
	var unknown []string
	for key, value := range options {
		if value == nil {
			continue
		}
		if !allowedOptionKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	sort.Strings(unknown)
	return unknown[0]
}

// normalizeModel accepts any non-blank string verbatim so gateway-specific
// model ids keep working. An absent model, nil or the empty string, falls
// back to the default; whitespace-only strings are rejected.
func normalizeModel(v any, fallback string) (string, error) {
	if v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewError(domain.CodeVideoModelInvalid, "model id must be a string, got %T", v)
	}
	if s == "" {
		return fallback, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.NewError(domain.CodeVideoModelInvalid, "model id is blank")
	}
	return s, nil
}

// normalizeDuration maps 4, 8 or 12 seconds, numeric or string, onto the
// canonical string form. Absent values stay absent.
func normalizeDuration(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	seconds, ok := durationSeconds(v)
	if !ok || seconds != math.Trunc(seconds) {
		return "", domain.NewError(domain.CodeVideoDurationUnsupported, "duration %v is not supported (expected 4, 8 or 12 seconds)", v)
	}
	switch int(seconds) {
	case 4, 8, 12:
		return strconv.Itoa(int(seconds)), nil
	}
	return "", domain.NewError(domain.CodeVideoDurationUnsupported, "duration %v is not supported (expected 4, 8 or 12 seconds)", v)
}

// durationSeconds converts the supported wire shapes to seconds. Strings must
// be integer literals; decimal forms like "4.0" are not part of the contract.
func durationSeconds(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return float64(n), err == nil
	}
	return 0, false
}

// normalizeSize accepts the four canonical pixel sizes verbatim and resolves
// the 720p/1080p shorthands through the requested aspect ratio, portrait for
// 9:16 and landscape otherwise.
func normalizeSize(v any, aspectRatio string) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewError(domain.CodeVideoSizeUnsupported, "size %v is not supported", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if canonicalSizes[s] {
		return s, nil
	}
	switch s {
	case "720p":
		if aspectRatio == "9:16" {
			return SizePortrait720, nil
		}
		return SizeLandscape720, nil
	case "1080p":
		if aspectRatio == "9:16" {
			return SizePortrait1080, nil
		}
		return SizeLandscape1080, nil
	}
	return "", domain.NewError(domain.CodeVideoSizeUnsupported, "size %q is not supported", s)
}

// resolveFinalSize normalizes size and resolution independently and insists
// they agree when both are present, preferring size.
func resolveFinalSize(options map[string]any, aspectRatio string) (string, error) {
	size, err := normalizeSize(options["size"], aspectRatio)
	if err != nil {
		return "", err
	}
	resolution, err := normalizeSize(options["resolution"], aspectRatio)
	if err != nil {
		return "", err
	}
	if size != "" && resolution != "" && size != resolution {
		return "", domain.NewError(domain.CodeVideoSizeConflict, "size %q conflicts with resolution %q", size, resolution)
	}
	if size != "" {
		return size, nil
	}
	return resolution, nil
}

func aspectRatioOf(options map[string]any) string {
	if s, ok := options["aspectRatio"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
