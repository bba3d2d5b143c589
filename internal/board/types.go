package board

import "time"

// Post is a single board item as returned by the listing API. Author fields
// arrive denormalized, so no secondary lookup is needed to render one.
type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Likes          int       `json:"likes"`
	CommentCount   int       `json:"commentCount"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	Image          string    `json:"image,omitempty"`
}

// PostPage is one page of the listing response.
type PostPage struct {
	Items       []Post `json:"items"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalItems  int    `json:"totalItems"`
}

// Comment is a single comment on a post.
type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	Content        string    `json:"content"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	CreatedAt      time.Time `json:"createdAt"`
	Likes          int       `json:"likes"`
}

// UserSummary is the authenticated user's profile.
type UserSummary struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
}

// TokenPair is issued by the login and refresh endpoints. The access token
// lives in memory only; the refresh credential travels as an HTTP-only
// cookie handled by the client's jar.
type TokenPair struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// ListQuery describes one page request against the listing endpoint.
// Zero-value fields are omitted from the URL.
type ListQuery struct {
	Page        int
	Limit       int
	Query       string
	Sort        string
	Scope       string
	AccessToken string
}
