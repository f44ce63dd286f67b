package player

import (
	"net/url"
	"strings"
)

// Strategy selects how the client should attach a video URL to its media
// element.
type Strategy string

const (
	// StrategyEngine: adaptive manifest on a platform without native HLS
	// support; the software streaming engine fetches and stitches segments.
	StrategyEngine Strategy = "engine"
	// StrategyNative: adaptive manifest handed straight to the media element
	// because the platform plays HLS natively.
	StrategyNative Strategy = "native"
	// StrategyDirect: progressive file set as the element source with
	// metadata-only preload.
	StrategyDirect Strategy = "direct"
)

// Source is a resolved playback source.
type Source struct {
	URL      string   `json:"url"`
	Manifest bool     `json:"manifest"`
	Strategy Strategy `json:"strategy"`
	Preload  string   `json:"preload"`
}

// IsManifest reports whether the URL points at an adaptive-bitrate manifest.
// The match is on the path extension, ignoring query and fragment.
func IsManifest(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".m3u8")
}

// Resolve picks a playback strategy for a URL. nativeHLS is the client's
// declared platform capability. Failures past this point surface through
// playback error events; this layer never retries.
func Resolve(rawURL string, nativeHLS bool) Source {
	if IsManifest(rawURL) {
		strategy := StrategyEngine
		if nativeHLS {
			strategy = StrategyNative
		}
		return Source{URL: rawURL, Manifest: true, Strategy: strategy, Preload: "auto"}
	}
	return Source{URL: rawURL, Manifest: false, Strategy: StrategyDirect, Preload: "metadata"}
}
