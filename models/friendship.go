package models

import "time"

// Friendship is one direction of a symmetric friend relation. Acceptance of a
// request writes both directions in one transaction.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"user_id"`
	FriendID  uint      `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Friend User `gorm:"foreignKey:FriendID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"friend"`
}

// Validate rejects self-friendship before the unique index ever sees the row.
func (f *Friendship) Validate() error {
	if f.UserID == f.FriendID {
		return &ValidationError{Field: "friend", Message: "users cannot be friends with themselves"}
	}
	return nil
}

// FriendRequest is a pending, one-directional invitation. It is deleted on
// both acceptance and rejection.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"to_user_id"`
	CreatedAt  time.Time `json:"created_at"`

	FromUser User `gorm:"foreignKey:FromUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"from_user"`
	ToUser   User `gorm:"foreignKey:ToUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Validate rejects self-requests.
func (r *FriendRequest) Validate() error {
	if r.FromUserID == r.ToUserID {
		return &ValidationError{Field: "to_user", Message: "you cannot send a friend request to yourself"}
	}
	return nil
}
