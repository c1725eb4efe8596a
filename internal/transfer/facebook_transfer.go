package transfer

// GraphResponse is the identifier-bearing body of a successful Graph API
// publish call. Feed and video posts answer with id, photo posts also carry post_id.
type GraphResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type AttachedMedia struct {
	MediaFbid string `json:"media_fbid"`
}

type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
