package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatTitle is the placeholder a chat carries until the first
// round-trip derives a real title.
const DefaultChatTitle = "New Chat"

type User struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirstName       string    `gorm:"type:varchar(128)" json:"first_name"`
	LastName        string    `gorm:"type:varchar(128)" json:"last_name"`
	ProfileImageURL string    `gorm:"type:varchar(512)" json:"profile_image_url"`
	PasswordHash    string    `gorm:"type:varchar(128)" json:"-"`
	IsPro           bool      `gorm:"not null;default:false" json:"is_pro"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Message is an embedded value object; it lives inside Chat.Messages,
// not in its own table. Ordering is the slice position.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageList is the whole conversation stored as one JSON column.
// Every accepted round-trip replaces the entire sequence.
type MessageList []Message

func (m MessageList) Value() (driver.Value, error) {
	if m == nil {
		m = MessageList{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MessageList) Scan(src any) error {
	if src == nil {
		*m = MessageList{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("messages: unsupported scan type %T", src)
	}
	if len(b) == 0 {
		*m = MessageList{}
		return nil
	}
	return json.Unmarshal(b, m)
}

type Chat struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string      `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Title     string      `gorm:"type:varchar(255)" json:"title"`
	Messages  MessageList `gorm:"type:json;not null" json:"messages"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

type RedeemCode struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	UsedByID  *string    `gorm:"type:varchar(64);index" json:"used_by_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (RedeemCode) TableName() string { return "redeem_codes" }
