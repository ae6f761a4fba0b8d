// Package models contains the data structures used throughout the application.
package models

import "strings"

// MediaKind tells whether a search hit is audio- or video-capable.
type MediaKind string

const (
	// KindAudio marks an audio-only hit.
	KindAudio MediaKind = "audio"
	// KindVideo marks a video hit.
	KindVideo MediaKind = "video"
)

// ResultSummary is one search hit.
type ResultSummary struct {
	// Title is the display title of the hit.
	Title string `json:"title"`

	// URL uniquely identifies the hit within its result set.
	URL string `json:"url"`

	// Kind is the media kind reported by the search provider.
	Kind MediaKind `json:"kind"`
}

// ResultSet is an ordered list of hits. Position i+1 is what clients select by.
type ResultSet []ResultSummary

// At returns the hit at the 1-based position index.
func (s ResultSet) At(index int) (ResultSummary, bool) {
	if index < 1 || index > len(s) {
		return ResultSummary{}, false
	}
	return s[index-1], true
}

// Clone returns a copy that shares nothing with s.
func (s ResultSet) Clone() ResultSet {
	if s == nil {
		return nil
	}
	out := make(ResultSet, len(s))
	copy(out, s)
	return out
}

// FormatDescriptor is one encoded rendition of a video.
type FormatDescriptor struct {
	// QualityLabel is e.g. "720p"; empty for audio-only renditions.
	QualityLabel string `json:"qualityLabel"`

	// MimeType is the full MIME type including codecs.
	MimeType string `json:"mimeType"`

	// HasAudio reports an audio track.
	HasAudio bool `json:"hasAudio"`

	// HasVideo reports a video track.
	HasVideo bool `json:"hasVideo"`

	// MediaURL is a time-limited signed URL; its validity is controlled upstream.
	MediaURL string `json:"mediaUrl"`
}

// IsAudioOnly reports an audio track without video.
func (f FormatDescriptor) IsAudioOnly() bool {
	return f.HasAudio && !f.HasVideo
}

// IsVideoOnly reports a video track without audio.
func (f FormatDescriptor) IsVideoOnly() bool {
	return f.HasVideo && !f.HasAudio
}

// ContentType returns the MIME type without codec parameters.
func (f FormatDescriptor) ContentType() string {
	ct, _, _ := strings.Cut(f.MimeType, ";")
	return strings.TrimSpace(ct)
}

// VideoDetails is what the metadata provider knows about one video.
type VideoDetails struct {
	// Title is the video title.
	Title string `json:"title"`

	// URL is the canonical watch URL.
	URL string `json:"url"`

	// Formats are the available renditions in provider order.
	Formats []FormatDescriptor `json:"formats"`
}
