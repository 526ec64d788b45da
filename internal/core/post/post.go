package post

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"inkwell/internal/core/user"
)

const (
	TagTechnical = "technical"
	TagPersonal  = "personal"

	PrivacyPublic  = "public"
	PrivacyPrivate = "private"

	StatusDraft     = "draft"
	StatusPublished = "published"
)

// AllowedTags is the closed set a post may be labelled with.
var AllowedTags = []string{TagTechnical, TagPersonal}

// TagList stores the tag set as a JSON array in a single column.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TagList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TagList", src)
	}
}

func (t TagList) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

type Post struct {
	ID            uuid.UUID `gorm:"primary_key;type:char(36)"`
	Title         string    `gorm:"size:200;not null"`
	Slug          string    `gorm:"size:220;unique;not null"`
	Content       string    `gorm:"type:longtext;not null"`
	Excerpt       string    `gorm:"size:300"`
	// ExcerptSet marks an author-supplied excerpt; derived excerpts are
	// recomputed whenever content changes, author ones are kept.
	ExcerptSet    bool      `gorm:"not null;default:false"`
	Tags          TagList   `gorm:"type:json;not null"`
	Privacy       string    `gorm:"size:10;not null;default:public"`
	Status        string    `gorm:"size:10;not null;default:draft"`
	AuthorID      uuid.UUID `gorm:"type:char(36);not null;index"`
	Author        user.User `gorm:"foreignkey:AuthorID"`
	Views         int64     `gorm:"not null;default:0"`
	ReadTime      int       `gorm:"not null;default:1"`
	CoverImageURL string    `gorm:"size:500"`
	Featured      bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Like is one user's like on one post. The composite unique index is
// what keeps the likes set duplicate-free under concurrent toggles.
type Like struct {
	ID        uuid.UUID `gorm:"primary_key;type:char(36)"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_post_user"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_post_user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Like) TableName() string { return "post_likes" }
