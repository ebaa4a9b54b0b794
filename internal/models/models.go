package models

import "time"

// Object types shared by the like, mark and comment tables.
const (
	TypeBook    = 0
	TypeNote    = 1
	TypeComment = 2
	TypeReply   = 3
)

// Identity is the claim set embedded in an access token. It is derived
// from a user row at login and never read back from the database.
type Identity struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

type User struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	NickName string `json:"nick_name"`
	Email    string `json:"email"`
	PassHash []byte `json:"-"`
	Avatar   string `json:"avatar"`
	Info     string `json:"info"`
}

// PublicUser is the projection returned by list/lookup endpoints:
// no email, no password hash.
type PublicUser struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	NickName string `json:"nick_name"`
	Avatar   string `json:"avatar"`
	Info     string `json:"info"`
}

type Book struct {
	BookID     int64     `json:"book_id"`
	BookName   string    `json:"book_name"`
	UserID     int64     `json:"user_id"`
	IsPublic   bool      `json:"is_public"`
	Cover      string    `json:"cover"`
	CreateTime time.Time `json:"create_time"`

	UserName     string `json:"user_name,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	LikeCount    int64  `json:"like_count"`
	MarkCount    int64  `json:"mark_count"`
	CommentCount int64  `json:"comment_count"`
}

type Note struct {
	NoteID     int64     `json:"note_id"`
	NoteName   string    `json:"note_name"`
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	Tags       []string  `json:"tags"`
	Content    string    `json:"content"`
	CreateTime time.Time `json:"create_time"`

	UserName     string `json:"user_name,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	BookName     string `json:"book_name,omitempty"`
	LikeCount    int64  `json:"like_count"`
	MarkCount    int64  `json:"mark_count"`
	CommentCount int64  `json:"comment_count"`
}

type Comment struct {
	CommentID  int64     `json:"comment_id"`
	Content    string    `json:"content"`
	UserID     int64     `json:"user_id"`
	ObjectID   int64     `json:"object_id"`
	Type       int       `json:"type"`
	CreateTime time.Time `json:"create_time"`

	UserName  string `json:"user_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	LikeCount int64  `json:"like_count"`
	IsLiked   bool   `json:"is_liked"`
}

type Reply struct {
	ReplyID    int64     `json:"reply_id"`
	Type       int       `json:"type"`
	Content    string    `json:"content"`
	UserID     int64     `json:"user_id"`
	ObjectID   int64     `json:"object_id"`
	CommentID  int64     `json:"comment_id"`
	CreateTime time.Time `json:"create_time"`

	UserName string `json:"user_name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// HeatPoint is one day of the activity heat map: how many books, notes,
// comments and replies a user created, bucketed into levels 0-5.
type HeatPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
	Level int    `json:"level"`
}

// EmailMessage is the payload published to the mail queue.
type EmailMessage struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Code    string `json:"code"`
}
