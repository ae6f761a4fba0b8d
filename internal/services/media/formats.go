package media

import (
	"fmt"

	"github.com/samber/lo"
	"norelock.dev/listenify/grabber/internal/models"
)

// FormatMenu is the fixed audio/video choice.
var FormatMenu = []string{"1. [audio]", "2. [video]"}

// QualityLabels returns the distinct labels of video-only formats in first-seen order.
func QualityLabels(formats []models.FormatDescriptor) []string {
	labels := lo.FilterMap(formats, func(f models.FormatDescriptor, _ int) (string, bool) {
		return f.QualityLabel, f.IsVideoOnly() && f.QualityLabel != ""
	})
	return lo.Uniq(labels)
}

// AudioFormat returns the first audio-only format.
func AudioFormat(formats []models.FormatDescriptor) (models.FormatDescriptor, bool) {
	return lo.Find(formats, func(f models.FormatDescriptor) bool {
		return f.IsAudioOnly() && f.MediaURL != ""
	})
}

// VideoContentType is the container video downloads are named after.
const VideoContentType = "video/mp4"

// VideoFormat returns the first format carrying label, preferring one with
// both tracks over a video-only rendition. Within each group an MP4 rendition
// wins over other containers so the saved .mp4 file matches its contents.
func VideoFormat(formats []models.FormatDescriptor, label string) (models.FormatDescriptor, bool) {
	withLabel := lo.Filter(formats, func(f models.FormatDescriptor, _ int) bool {
		return f.HasVideo && f.QualityLabel == label && f.MediaURL != ""
	})
	muxed, videoOnly := lo.FilterReject(withLabel, func(f models.FormatDescriptor, _ int) bool { return f.HasAudio })

	for _, group := range [][]models.FormatDescriptor{muxed, videoOnly} {
		if mp4, ok := lo.Find(group, isMP4); ok {
			return mp4, true
		}
		if len(group) > 0 {
			return group[0], true
		}
	}
	return models.FormatDescriptor{}, false
}

func isMP4(f models.FormatDescriptor) bool {
	return f.ContentType() == VideoContentType
}

// TitleMenu numbers result titles: "1. <title>".
func TitleMenu(set models.ResultSet) []string {
	return lo.Map(set, func(r models.ResultSummary, i int) string {
		return fmt.Sprintf("%d. %s", i+1, r.Title)
	})
}

// QualityMenu numbers quality labels: "1. [720p]".
func QualityMenu(labels []string) []string {
	return lo.Map(labels, func(label string, i int) string {
		return fmt.Sprintf("%d. [%s]", i+1, label)
	})
}
