package model

// LikeResult is the authoritative state after a like toggle.
type LikeResult struct {
	CommentID  int64 `json:"comment_id"`
	Liked      bool  `json:"liked"`
	LikesCount int   `json:"likes_count"`
}
