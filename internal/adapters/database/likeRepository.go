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

// LikeRepositoryDatabase implements the like repository over gorm. The
// unique (post_id, user_id) index does the duplicate prevention; this
// adapter only has to translate the constraint violation.
type LikeRepositoryDatabase struct{}

func NewLikeRepositoryDatabase() *LikeRepositoryDatabase {
	return &LikeRepositoryDatabase{}
}

func (repo *LikeRepositoryDatabase) Add(ctx context.Context, postID, userID uuid.UUID) error {
	like := &post.Like{
		ID:     uuid.Must(uuid.NewV4()),
		PostID: postID,
		UserID: userID,
	}
	err := config.DB.WithContext(ctx).Create(like).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return postPort.ErrAlreadyLiked
	}
	return err
}

func (repo *LikeRepositoryDatabase) Remove(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := config.DB.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&post.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (repo *LikeRepositoryDatabase) Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	err := config.DB.WithContext(ctx).Model(&post.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo *LikeRepositoryDatabase) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := config.DB.WithContext(ctx).Model(&post.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

func (repo *LikeRepositoryDatabase) CountForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		PostID uuid.UUID
		Total  int64
	}
	err := config.DB.WithContext(ctx).Model(&post.Like{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}
