package transfer

// FacebookPostResponse is returned by both /photos and /feed. Photo
// uploads carry the feed story id in post_id.
type FacebookPostResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

// PlatformPostID prefers post_id over id.
func (r FacebookPostResponse) PlatformPostID() string {
	if r.PostID != "" {
		return r.PostID
	}
	return r.ID
}

type FacebookPageInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FacebookErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}
