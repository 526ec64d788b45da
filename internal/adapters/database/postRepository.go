package database

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"inkwell/internal/config"
	"inkwell/internal/core/post"
	postPort "inkwell/internal/ports/post"
)

// PostRepositoryDatabase implements the post repository over gorm.
type PostRepositoryDatabase struct{}

func NewPostRepositoryDatabase() *PostRepositoryDatabase {
	return &PostRepositoryDatabase{}
}

func (repo *PostRepositoryDatabase) Create(ctx context.Context, p *post.Post) error {
	err := config.DB.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return postPort.ErrSlugTaken
	}
	return err
}

func (repo *PostRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	var p post.Post
	err := config.DB.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *PostRepositoryDatabase) FindBySlug(ctx context.Context, slug string) (*post.Post, error) {
	var p post.Post
	err := config.DB.WithContext(ctx).Preload("Author").Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *PostRepositoryDatabase) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	q := config.DB.WithContext(ctx).Model(&post.Post{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo *PostRepositoryDatabase) List(ctx context.Context, f postPort.ListFilter) ([]*post.Post, int64, error) {
	q := config.DB.WithContext(ctx).Model(&post.Post{}).
		Where("status = ?", post.StatusPublished)

	if f.ViewerID == uuid.Nil {
		q = q.Where("privacy = ?", post.PrivacyPublic)
	} else {
		q = q.Where("privacy = ? OR author_id = ?", post.PrivacyPublic, f.ViewerID)
	}

	if f.AuthorID != uuid.Nil {
		q = q.Where("author_id = ?", f.AuthorID)
	}

	if len(f.Tags) > 0 {
		// tags is a JSON array column; match any requested tag.
		tagQuery := config.DB
		for i, tag := range f.Tags {
			pattern := "%\"" + tag + "\"%"
			if i == 0 {
				tagQuery = tagQuery.Where("tags LIKE ?", pattern)
			} else {
				tagQuery = tagQuery.Or("tags LIKE ?", pattern)
			}
		}
		q = q.Where(tagQuery)
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*post.Post
	err := q.Omit("content").Preload("Author").
		Order("created_at DESC").
		Limit(f.Limit).Offset(f.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (repo *PostRepositoryDatabase) FindPublishedByIDs(ctx context.Context, ids []uuid.UUID) ([]*post.Post, error) {
	var posts []*post.Post
	err := config.DB.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, post.StatusPublished).
		Omit("content").Preload("Author").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (repo *PostRepositoryDatabase) TopByViews(ctx context.Context, limit int) ([]*post.Post, error) {
	var posts []*post.Post
	err := config.DB.WithContext(ctx).
		Where("status = ? AND privacy = ?", post.StatusPublished, post.PrivacyPublic).
		Omit("content").Preload("Author").
		Order("views DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (repo *PostRepositoryDatabase) Update(ctx context.Context, p *post.Post) error {
	err := config.DB.WithContext(ctx).Save(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return postPort.ErrSlugTaken
	}
	return err
}

// Delete removes the post and its likes in one transaction.
func (repo *PostRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) error {
	return config.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&post.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&post.Post{}).Error
	})
}

// IncrementViews is a single atomic UPDATE; concurrent readers never
// lose a count to a read-modify-write race.
func (repo *PostRepositoryDatabase) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return config.DB.WithContext(ctx).Model(&post.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}
