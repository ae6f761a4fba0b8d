package media

import (
	"reflect"
	"testing"

	"norelock.dev/listenify/grabber/internal/models"
)

func videoOnly(label, url string) models.FormatDescriptor {
	return models.FormatDescriptor{QualityLabel: label, MimeType: "video/mp4", HasVideo: true, MediaURL: url}
}

func muxed(label, url string) models.FormatDescriptor {
	return models.FormatDescriptor{QualityLabel: label, MimeType: "video/mp4", HasVideo: true, HasAudio: true, MediaURL: url}
}

func webm(f models.FormatDescriptor) models.FormatDescriptor {
	f.MimeType = "video/webm; codecs=\"vp9\""
	return f
}

func audioOnly(url string) models.FormatDescriptor {
	return models.FormatDescriptor{MimeType: "audio/webm; codecs=\"opus\"", HasAudio: true, MediaURL: url}
}

func TestQualityLabelsDedupeFirstSeen(t *testing.T) {
	formats := []models.FormatDescriptor{
		videoOnly("720p", "a"),
		audioOnly("b"),
		videoOnly("480p", "c"),
		muxed("360p", "d"),
		videoOnly("720p", "e"),
		videoOnly("", "f"),
	}

	got := QualityLabels(formats)
	want := []string{"720p", "480p"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("QualityLabels = %v, want %v", got, want)
	}

	menu := QualityMenu(got)
	wantMenu := []string{"1. [720p]", "2. [480p]"}
	if !reflect.DeepEqual(menu, wantMenu) {
		t.Fatalf("QualityMenu = %v, want %v", menu, wantMenu)
	}
}

func TestAudioFormatPicksFirstAudioOnly(t *testing.T) {
	formats := []models.FormatDescriptor{
		muxed("360p", "muxed"),
		audioOnly(""),
		audioOnly("first"),
		audioOnly("second"),
	}

	got, ok := AudioFormat(formats)
	if !ok || got.MediaURL != "first" {
		t.Fatalf("AudioFormat = %+v, %v; want first", got, ok)
	}

	if _, ok := AudioFormat([]models.FormatDescriptor{muxed("360p", "x"), videoOnly("720p", "y")}); ok {
		t.Fatal("AudioFormat found a format in a list without audio-only renditions")
	}
}

func TestVideoFormatSelection(t *testing.T) {
	tests := []struct {
		name    string
		formats []models.FormatDescriptor
		label   string
		want    string
		found   bool
	}{
		{
			name:    "prefers muxed",
			formats: []models.FormatDescriptor{videoOnly("720p", "vo"), muxed("720p", "mx1"), muxed("720p", "mx2")},
			label:   "720p",
			want:    "mx1",
			found:   true,
		},
		{
			name:    "falls back to first video-only",
			formats: []models.FormatDescriptor{videoOnly("480p", "a"), videoOnly("720p", "b"), videoOnly("720p", "c")},
			label:   "720p",
			want:    "b",
			found:   true,
		},
		{
			name: "prefers mp4 among muxed",
			formats: []models.FormatDescriptor{
				webm(muxed("720p", "mx-webm")),
				muxed("720p", "mx-mp4"),
			},
			label: "720p",
			want:  "mx-mp4",
			found: true,
		},
		{
			name: "prefers mp4 among video-only",
			formats: []models.FormatDescriptor{
				webm(videoOnly("1080p", "vo-webm")),
				videoOnly("1080p", "vo-mp4"),
			},
			label: "1080p",
			want:  "vo-mp4",
			found: true,
		},
		{
			name: "muxed webm beats video-only mp4",
			formats: []models.FormatDescriptor{
				videoOnly("720p", "vo-mp4"),
				webm(muxed("720p", "mx-webm")),
			},
			label: "720p",
			want:  "mx-webm",
			found: true,
		},
		{
			name:    "webm only",
			formats: []models.FormatDescriptor{webm(videoOnly("720p", "a")), webm(videoOnly("720p", "b"))},
			label:   "720p",
			want:    "a",
			found:   true,
		},
		{
			name:    "no match",
			formats: []models.FormatDescriptor{videoOnly("480p", "a")},
			label:   "1080p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VideoFormat(tt.formats, tt.label)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got.MediaURL != tt.want {
				t.Fatalf("MediaURL = %q, want %q", got.MediaURL, tt.want)
			}
		})
	}
}

func TestTitleMenu(t *testing.T) {
	set := models.ResultSet{{Title: "First"}, {Title: "Second"}}
	want := []string{"1. First", "2. Second"}
	if got := TitleMenu(set); !reflect.DeepEqual(got, want) {
		t.Fatalf("TitleMenu = %v, want %v", got, want)
	}
}
