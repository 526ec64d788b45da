package post

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"inkwell/internal/core/post"
	userPort "inkwell/internal/ports/user"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed")
	ErrSlugTaken    = errors.New("a post with this slug already exists")
	ErrAlreadyLiked = errors.New("post already liked by this user")
)

// FieldError and ValidationError are shared with the user port.
type (
	FieldError      = userPort.FieldError
	ValidationError = userPort.ValidationError
)

// ListFilter is an immutable query description built by the service and
// executed by the repository.
type ListFilter struct {
	ViewerID uuid.UUID // uuid.Nil for anonymous callers
	AuthorID uuid.UUID // scope to one author when set
	Tags     []string
	Search   string
	Page     int
	Limit    int
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type PostRepository interface {
	Create(ctx context.Context, p *post.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	FindBySlug(ctx context.Context, slug string) (*post.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	// List returns one page of published posts matching the filter,
	// content omitted, plus the total match count.
	List(ctx context.Context, f ListFilter) ([]*post.Post, int64, error)
	FindPublishedByIDs(ctx context.Context, ids []uuid.UUID) ([]*post.Post, error)
	TopByViews(ctx context.Context, limit int) ([]*post.Post, error)
	Update(ctx context.Context, p *post.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementViews must be a single atomic update, not read-modify-write.
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type LikeRepository interface {
	// Add returns ErrAlreadyLiked when the (post, user) pair exists;
	// the unique index makes this safe under concurrent double-submits.
	Add(ctx context.Context, postID, userID uuid.UUID) error
	// Remove reports whether a like was actually deleted.
	Remove(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context, postID uuid.UUID) (int64, error)
	CountForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

// TrendingRepository ranks posts by views outside the database.
type TrendingRepository interface {
	RecordView(ctx context.Context, postID string) error
	TopPosts(ctx context.Context, limit int64) ([]string, error)
	Remove(ctx context.Context, postID string) error
	Trim(ctx context.Context, keep int64) error
}

type CreateInput struct {
	Title         string
	Content       string
	Excerpt       string
	Tags          []string
	Privacy       string
	Status        string
	CoverImageURL string
	Featured      bool
}

// UpdateInput is a partial update; nil means "leave unchanged".
type UpdateInput struct {
	Title         *string
	Content       *string
	Excerpt       *string
	Tags          *[]string
	Privacy       *string
	Status        *string
	CoverImageURL *string
	Featured      *bool
}

type AuthorDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type PostDTO struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Content       string   `json:"content,omitempty"`
	Excerpt       string   `json:"excerpt"`
	Tags          []string `json:"tags"`
	Privacy       string   `json:"privacy"`
	Status        string   `json:"status"`
	Author        AuthorDTO `json:"author"`
	Likes         int64    `json:"likes"`
	LikedByViewer bool     `json:"likedByViewer"`
	Views         int64    `json:"views"`
	ReadTime      int      `json:"readTime"`
	CoverImageURL string   `json:"coverImage,omitempty"`
	Featured      bool     `json:"featured"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

type LikeResultDTO struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// Identity aliases the user port's caller identity so post use cases
// can be expressed against this package alone.
type Identity = userPort.Identity
