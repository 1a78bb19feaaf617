package models

import "time"

// Role is the access level stored on every user row.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Session struct {
	ID        string     `db:"id"`
	UserID    int64      `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// Active reports whether the session can still identify its user at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Post holds only the author's id; use Store.UserByID to reach the author.
type Post struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	Title     string    `db:"title"`
	Subtitle  string    `db:"subtitle"`
	Body      string    `db:"body"`
	ImgURL    string    `db:"img_url"`
	Date      string    `db:"date"`
	CreatedAt time.Time `db:"created_at"`
}

// PostView is a post joined with its author's display name.
type PostView struct {
	Post
	AuthorName string `db:"author_name"`
}

type Comment struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	PostID    int64     `db:"post_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// CommentView is a comment joined with its author's name and email.
type CommentView struct {
	Comment
	AuthorName  string `db:"author_name"`
	AuthorEmail string `db:"author_email"`
}

// Actor is whoever issued the current request. The zero value is anonymous.
type Actor struct {
	User *User
}

// Anonymous is the actor for requests without a valid session.
var Anonymous = Actor{}

func Authenticated(u *User) Actor {
	return Actor{User: u}
}

func (a Actor) IsAuthenticated() bool {
	return a.User != nil
}

func (a Actor) IsAdmin() bool {
	return a.User.IsAdmin()
}

// ID returns the user id, or 0 for anonymous actors.
func (a Actor) ID() int64 {
	if a.User == nil {
		return 0
	}
	return a.User.ID
}

// Role names the actor's access level for presentation: "anonymous",
// "member" or "admin".
func (a Actor) Role() string {
	if a.User == nil {
		return "anonymous"
	}
	return string(a.User.Role)
}
