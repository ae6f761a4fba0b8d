package models

// ResponseType names the payload carried by a selection response.
type ResponseType string

// Selection response types.
const (
	ResponseSearch        ResponseType = "search"
	ResponseSelectFormat  ResponseType = "selectFormat"
	ResponseSelectQuality ResponseType = "selectQuality"
	ResponseDownloadAudio ResponseType = "downloadAudio"
	ResponseDownloadVideo ResponseType = "downloadVideo"
)

// MenuResponse carries a numbered list of choices.
type MenuResponse struct {
	Type ResponseType `json:"type"`
	Data []string     `json:"data"`
}

// DownloadLink is the terminal payload when a URL is handed back.
type DownloadLink struct {
	Title       string `json:"title"`
	DownloadURL string `json:"downloadUrl"`
}

// DownloadResponse wraps a DownloadLink.
type DownloadResponse struct {
	Type ResponseType `json:"type"`
	Data DownloadLink `json:"data"`
}

// DirectLinkResponse is the payload of the /download shortcut.
type DirectLinkResponse struct {
	Title       string `json:"title"`
	DownloadURL string `json:"downloadURL"`
}
