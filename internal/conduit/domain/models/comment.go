package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ArticleID int64     `json:"-"`
	UserID    int64     `json:"-"`
	Author    Profile   `json:"author"`
}
