package server

import "github.com/Leopold1975/conduit/internal/conduit/domain/models"

type UserBody struct {
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	Bio         *string `json:"bio"`
	Image       *string `json:"image"`
	Token       string  `json:"token"`
	LockVersion int     `json:"lock_version"` //nolint:tagliatelle
}

type UserResponse struct {
	User UserBody `json:"user"`
}

func newUserResponse(u models.User, token string) UserResponse {
	return UserResponse{
		User: UserBody{
			Email:       u.Email,
			Username:    u.Username,
			Bio:         u.Bio,
			Image:       u.Image,
			Token:       token,
			LockVersion: u.LockVersion,
		},
	}
}

type ProfileResponse struct {
	Profile models.Profile `json:"profile"`
}

type ArticleResponse struct {
	Article models.Article `json:"article"`
}

type ArticlesResponse struct {
	Articles      []models.Article `json:"articles"`
	ArticlesCount int              `json:"articlesCount"`
}

func newArticlesResponse(articles []models.Article) ArticlesResponse {
	if articles == nil {
		articles = []models.Article{}
	}

	return ArticlesResponse{
		Articles:      articles,
		ArticlesCount: len(articles),
	}
}

type CommentResponse struct {
	Comment models.Comment `json:"comment"`
}

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
