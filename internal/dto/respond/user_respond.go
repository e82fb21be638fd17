package respond

// UserRespond is a profile summary for search results.
type UserRespond struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
	IsOnline bool   `json:"isOnline"`
	LastSeen string `json:"lastSeen,omitempty"`
}

// UploadRespond is the reference the blob store returned for an upload.
type UploadRespond struct {
	Url  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}
