package dto

// UploadIconResponse is returned after an icon is stored. Key goes into the event's icon_key.
type UploadIconResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
