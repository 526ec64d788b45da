package postapp

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	postEntity "inkwell/internal/core/post"
	postPort "inkwell/internal/ports/post"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	defaultTrendingSize = 10
	maxTrendingSize     = 20
)

type PostService struct {
	PostRepository postPort.PostRepository
	LikeRepository postPort.LikeRepository
	// TrendingRepository may be nil; every use degrades to the database.
	TrendingRepository postPort.TrendingRepository
	Logger             *zap.Logger
}

func NewPostService(
	postRepo postPort.PostRepository,
	likeRepo postPort.LikeRepository,
	trending postPort.TrendingRepository,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		PostRepository:     postRepo,
		LikeRepository:     likeRepo,
		TrendingRepository: trending,
		Logger:             logger,
	}
}

// List returns one page of published post summaries. Anonymous viewers
// see public posts; authenticated viewers additionally see their own
// private ones.
func (s *PostService) List(ctx context.Context, viewer postPort.Identity, page, limit int, tags []string, search string) ([]*postPort.PostDTO, *postPort.Pagination, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageSize
	}

	var errs []postPort.FieldError
	if page < 1 {
		errs = append(errs, postPort.FieldError{Field: "page", Message: "page must be at least 1"})
	}
	if limit < 1 || limit > MaxPageSize {
		errs = append(errs, postPort.FieldError{Field: "limit", Message: "limit must be between 1 and 50"})
	}
	errs = append(errs, validateTagFilter(tags)...)
	if len(errs) > 0 {
		return nil, nil, &postPort.ValidationError{Errors: errs}
	}

	filter := postPort.ListFilter{
		ViewerID: viewer.UserID,
		Tags:     tags,
		Search:   strings.TrimSpace(search),
		Page:     page,
		Limit:    limit,
	}

	posts, total, err := s.PostRepository.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	dtos, err := s.toSummaries(ctx, viewer, posts)
	if err != nil {
		return nil, nil, err
	}

	return dtos, paginate(page, limit, total), nil
}

// ListByAuthor is List scoped to one author.
func (s *PostService) ListByAuthor(ctx context.Context, viewer postPort.Identity, authorID string, page, limit int) ([]*postPort.PostDTO, *postPort.Pagination, error) {
	aid, err := uuid.FromString(authorID)
	if err != nil {
		return nil, nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "userId", Message: "user id is not a valid UUID"},
		}}
	}

	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if page < 1 || limit < 1 || limit > MaxPageSize {
		return nil, nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "page", Message: "page must be at least 1 and limit between 1 and 50"},
		}}
	}

	filter := postPort.ListFilter{
		ViewerID: viewer.UserID,
		AuthorID: aid,
		Page:     page,
		Limit:    limit,
	}

	posts, total, err := s.PostRepository.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	dtos, err := s.toSummaries(ctx, viewer, posts)
	if err != nil {
		return nil, nil, err
	}

	return dtos, paginate(page, limit, total), nil
}

// GetBySlug resolves one post for reading. Drafts exist only for their
// author; private posts are forbidden to everyone else. A public
// published post read by a non-author counts one view, atomically in
// the store and best-effort in the trending ranking.
func (s *PostService) GetBySlug(ctx context.Context, viewer postPort.Identity, slug string) (*postPort.PostDTO, error) {
	p, err := s.PostRepository.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, postPort.ErrNotFound
	}

	isAuthor := viewer.UserID == p.AuthorID
	if p.Status == postEntity.StatusDraft && !isAuthor {
		return nil, postPort.ErrNotFound
	}
	if p.Privacy == postEntity.PrivacyPrivate && !isAuthor {
		return nil, postPort.ErrForbidden
	}

	if !isAuthor && p.Privacy == postEntity.PrivacyPublic && p.Status == postEntity.StatusPublished {
		if err := s.PostRepository.IncrementViews(ctx, p.ID); err != nil {
			return nil, err
		}
		p.Views++
		if s.TrendingRepository != nil {
			if err := s.TrendingRepository.RecordView(ctx, p.ID.String()); err != nil {
				s.Logger.Warn("could not record view in trending ranking",
					zap.String("postID", p.ID.String()), zap.Error(err))
			}
		}
	}

	return s.toDTO(ctx, viewer, p, true)
}

// GetByID is the author's own full fetch, used to populate the edit
// form. Nobody else gets through, public post or not.
func (s *PostService) GetByID(ctx context.Context, viewer postPort.Identity, id string) (*postPort.PostDTO, error) {
	pid, err := uuid.FromString(id)
	if err != nil {
		return nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "id", Message: "post id is not a valid UUID"},
		}}
	}

	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, postPort.ErrNotFound
	}
	if viewer.UserID != p.AuthorID {
		return nil, postPort.ErrForbidden
	}

	return s.toDTO(ctx, viewer, p, true)
}

// Create validates the input, derives slug, excerpt and read time, and
// stores the post. A colliding slug is a hard conflict; there is no
// automatic disambiguation.
func (s *PostService) Create(ctx context.Context, author postPort.Identity, in postPort.CreateInput) (*postPort.PostDTO, error) {
	if in.Privacy == "" {
		in.Privacy = postEntity.PrivacyPublic
	}
	if in.Status == "" {
		in.Status = postEntity.StatusDraft
	}

	var errs []postPort.FieldError
	errs = append(errs, validateTitle(in.Title)...)
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, postPort.FieldError{Field: "content", Message: "content is required"})
	}
	errs = append(errs, validateTags(in.Tags)...)
	errs = append(errs, validateEnum("privacy", in.Privacy, postEntity.PrivacyPublic, postEntity.PrivacyPrivate)...)
	errs = append(errs, validateEnum("status", in.Status, postEntity.StatusDraft, postEntity.StatusPublished)...)
	errs = append(errs, validateExcerpt(in.Excerpt)...)
	errs = append(errs, validateCoverImage(in.CoverImageURL)...)
	if len(errs) > 0 {
		return nil, &postPort.ValidationError{Errors: errs}
	}

	slug := postEntity.Slugify(in.Title)
	if slug == "" {
		return nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "title", Message: "title does not produce a usable slug"},
		}}
	}
	taken, err := s.PostRepository.SlugExists(ctx, slug, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, postPort.ErrSlugTaken
	}

	p := &postEntity.Post{
		ID:            uuid.Must(uuid.NewV4()),
		Title:         strings.TrimSpace(in.Title),
		Slug:          slug,
		Content:       in.Content,
		Tags:          postEntity.TagList(in.Tags),
		Privacy:       in.Privacy,
		Status:        in.Status,
		AuthorID:      author.UserID,
		ReadTime:      postEntity.EstimateReadTime(in.Content),
		CoverImageURL: in.CoverImageURL,
		Featured:      in.Featured && author.IsAdmin(),
	}

	if in.Excerpt != "" {
		p.Excerpt = in.Excerpt
		p.ExcerptSet = true
	} else {
		p.Excerpt = postEntity.DeriveExcerpt(in.Content)
	}

	if err := s.PostRepository.Create(ctx, p); err != nil {
		return nil, err
	}

	return s.toDTO(ctx, author, p, true)
}

// Update applies a partial update. The author may change the allow-listed
// fields; an admin who is not the author may change only the featured
// flag. A title change regenerates the slug deterministically and fails
// with a conflict when another post owns the new slug.
func (s *PostService) Update(ctx context.Context, actor postPort.Identity, id string, in postPort.UpdateInput) (*postPort.PostDTO, error) {
	pid, err := uuid.FromString(id)
	if err != nil {
		return nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "id", Message: "post id is not a valid UUID"},
		}}
	}

	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, postPort.ErrNotFound
	}

	isAuthor := actor.UserID == p.AuthorID
	if !isAuthor {
		if !(actor.IsAdmin() && onlyFeatured(in)) {
			return nil, postPort.ErrForbidden
		}
	}

	var errs []postPort.FieldError
	if in.Title != nil {
		errs = append(errs, validateTitle(*in.Title)...)
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		errs = append(errs, postPort.FieldError{Field: "content", Message: "content is required"})
	}
	if in.Tags != nil {
		errs = append(errs, validateTags(*in.Tags)...)
	}
	if in.Privacy != nil {
		errs = append(errs, validateEnum("privacy", *in.Privacy, postEntity.PrivacyPublic, postEntity.PrivacyPrivate)...)
	}
	if in.Status != nil {
		errs = append(errs, validateEnum("status", *in.Status, postEntity.StatusDraft, postEntity.StatusPublished)...)
	}
	if in.Excerpt != nil {
		errs = append(errs, validateExcerpt(*in.Excerpt)...)
	}
	if in.CoverImageURL != nil {
		errs = append(errs, validateCoverImage(*in.CoverImageURL)...)
	}
	if len(errs) > 0 {
		return nil, &postPort.ValidationError{Errors: errs}
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) != p.Title {
		newSlug := postEntity.Slugify(*in.Title)
		if newSlug == "" {
			return nil, &postPort.ValidationError{Errors: []postPort.FieldError{
				{Field: "title", Message: "title does not produce a usable slug"},
			}}
		}
		if newSlug != p.Slug {
			taken, err := s.PostRepository.SlugExists(ctx, newSlug, p.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, postPort.ErrSlugTaken
			}
			p.Slug = newSlug
		}
		p.Title = strings.TrimSpace(*in.Title)
	}

	if in.Tags != nil {
		p.Tags = postEntity.TagList(*in.Tags)
	}
	if in.Privacy != nil {
		p.Privacy = *in.Privacy
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.CoverImageURL != nil {
		p.CoverImageURL = *in.CoverImageURL
	}
	if in.Featured != nil && actor.IsAdmin() {
		p.Featured = *in.Featured
	}

	if in.Excerpt != nil {
		if *in.Excerpt == "" {
			p.ExcerptSet = false
		} else {
			p.Excerpt = *in.Excerpt
			p.ExcerptSet = true
		}
	}
	if in.Content != nil {
		p.Content = *in.Content
		p.ReadTime = postEntity.EstimateReadTime(p.Content)
	}
	if !p.ExcerptSet && (in.Content != nil || in.Excerpt != nil) {
		p.Excerpt = postEntity.DeriveExcerpt(p.Content)
	}

	if err := s.PostRepository.Update(ctx, p); err != nil {
		return nil, err
	}

	return s.toDTO(ctx, actor, p, true)
}

// Delete removes a post for good. Author or admin only.
func (s *PostService) Delete(ctx context.Context, actor postPort.Identity, id string) error {
	pid, err := uuid.FromString(id)
	if err != nil {
		return &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "id", Message: "post id is not a valid UUID"},
		}}
	}

	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return err
	}
	if p == nil {
		return postPort.ErrNotFound
	}
	if actor.UserID != p.AuthorID && !actor.IsAdmin() {
		return postPort.ErrForbidden
	}

	if err := s.PostRepository.Delete(ctx, pid); err != nil {
		return err
	}

	if s.TrendingRepository != nil {
		if err := s.TrendingRepository.Remove(ctx, pid.String()); err != nil {
			s.Logger.Warn("could not remove post from trending ranking",
				zap.String("postID", pid.String()), zap.Error(err))
		}
	}
	return nil
}

// ToggleLike flips the caller's membership in the post's likes set and
// returns the new state. A concurrent double-submit of the same toggle
// resolves through the unique index rather than producing a duplicate.
func (s *PostService) ToggleLike(ctx context.Context, actor postPort.Identity, id string) (*postPort.LikeResultDTO, error) {
	pid, err := uuid.FromString(id)
	if err != nil {
		return nil, &postPort.ValidationError{Errors: []postPort.FieldError{
			{Field: "id", Message: "post id is not a valid UUID"},
		}}
	}

	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, postPort.ErrNotFound
	}
	if p.Privacy == postEntity.PrivacyPrivate && actor.UserID != p.AuthorID {
		return nil, postPort.ErrForbidden
	}

	liked, err := s.LikeRepository.Exists(ctx, pid, actor.UserID)
	if err != nil {
		return nil, err
	}

	if liked {
		if _, err := s.LikeRepository.Remove(ctx, pid, actor.UserID); err != nil {
			return nil, err
		}
		liked = false
	} else {
		switch err := s.LikeRepository.Add(ctx, pid, actor.UserID); err {
		case nil, postPort.ErrAlreadyLiked:
			liked = true
		default:
			return nil, err
		}
	}

	count, err := s.LikeRepository.Count(ctx, pid)
	if err != nil {
		return nil, err
	}

	return &postPort.LikeResultDTO{Liked: liked, Likes: count}, nil
}

// Trending returns the most viewed public published posts. The Redis
// ranking is authoritative when configured; otherwise the database
// view counter decides.
func (s *PostService) Trending(ctx context.Context, viewer postPort.Identity, limit int) ([]*postPort.PostDTO, error) {
	if limit <= 0 {
		limit = defaultTrendingSize
	}
	if limit > maxTrendingSize {
		limit = maxTrendingSize
	}

	var posts []*postEntity.Post
	if s.TrendingRepository != nil {
		ids, err := s.TrendingRepository.TopPosts(ctx, int64(limit))
		if err != nil {
			s.Logger.Warn("trending ranking unavailable, falling back to database", zap.Error(err))
		} else {
			posts, err = s.postsInRankingOrder(ctx, ids)
			if err != nil {
				return nil, err
			}
		}
	}
	if posts == nil {
		var err error
		posts, err = s.PostRepository.TopByViews(ctx, limit)
		if err != nil {
			return nil, err
		}
	}

	return s.toSummaries(ctx, viewer, posts)
}

func (s *PostService) postsInRankingOrder(ctx context.Context, ids []string) ([]*postEntity.Post, error) {
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.FromString(id)
		if err != nil {
			continue
		}
		uids = append(uids, uid)
	}
	if len(uids) == 0 {
		return []*postEntity.Post{}, nil
	}

	found, err := s.PostRepository.FindPublishedByIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*postEntity.Post, len(found))
	for _, p := range found {
		if p.Privacy == postEntity.PrivacyPublic {
			byID[p.ID] = p
		}
	}

	ordered := make([]*postEntity.Post, 0, len(uids))
	for _, uid := range uids {
		if p, ok := byID[uid]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (s *PostService) toSummaries(ctx context.Context, viewer postPort.Identity, posts []*postEntity.Post) ([]*postPort.PostDTO, error) {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	counts := map[uuid.UUID]int64{}
	if len(ids) > 0 {
		var err error
		counts, err = s.LikeRepository.CountForPosts(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	dtos := make([]*postPort.PostDTO, 0, len(posts))
	for _, p := range posts {
		dto := buildDTO(p, counts[p.ID], false, false)
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func (s *PostService) toDTO(ctx context.Context, viewer postPort.Identity, p *postEntity.Post, includeContent bool) (*postPort.PostDTO, error) {
	count, err := s.LikeRepository.Count(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	likedByViewer := false
	if !viewer.Anonymous() {
		likedByViewer, err = s.LikeRepository.Exists(ctx, p.ID, viewer.UserID)
		if err != nil {
			return nil, err
		}
	}

	return buildDTO(p, count, likedByViewer, includeContent), nil
}

func onlyFeatured(in postPort.UpdateInput) bool {
	return in.Featured != nil &&
		in.Title == nil && in.Content == nil && in.Excerpt == nil &&
		in.Tags == nil && in.Privacy == nil && in.Status == nil &&
		in.CoverImageURL == nil
}

func paginate(page, limit int, total int64) *postPort.Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &postPort.Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

func validateTitle(title string) []postPort.FieldError {
	title = strings.TrimSpace(title)
	if title == "" {
		return []postPort.FieldError{{Field: "title", Message: "title is required"}}
	}
	if len([]rune(title)) > 200 {
		return []postPort.FieldError{{Field: "title", Message: "title must be at most 200 characters"}}
	}
	return nil
}

func validateTags(tags []string) []postPort.FieldError {
	if len(tags) < 1 || len(tags) > 2 {
		return []postPort.FieldError{{Field: "tags", Message: "between 1 and 2 tags are required"}}
	}
	seen := map[string]bool{}
	for _, t := range tags {
		if !postEntity.TagList(postEntity.AllowedTags).Contains(t) {
			return []postPort.FieldError{{Field: "tags", Message: "tags must be one of: technical, personal"}}
		}
		if seen[t] {
			return []postPort.FieldError{{Field: "tags", Message: "tags must not repeat"}}
		}
		seen[t] = true
	}
	return nil
}

func validateTagFilter(tags []string) []postPort.FieldError {
	for _, t := range tags {
		if !postEntity.TagList(postEntity.AllowedTags).Contains(t) {
			return []postPort.FieldError{{Field: "tags", Message: "tags must be one of: technical, personal"}}
		}
	}
	return nil
}

func validateEnum(field, value string, allowed ...string) []postPort.FieldError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return []postPort.FieldError{{Field: field, Message: field + " must be one of: " + strings.Join(allowed, ", ")}}
}

func validateExcerpt(excerpt string) []postPort.FieldError {
	if len([]rune(excerpt)) > 300 {
		return []postPort.FieldError{{Field: "excerpt", Message: "excerpt must be at most 300 characters"}}
	}
	return nil
}

func validateCoverImage(coverImage string) []postPort.FieldError {
	if coverImage == "" {
		return nil
	}
	u, err := url.Parse(coverImage)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return []postPort.FieldError{{Field: "coverImage", Message: "cover image must be an http(s) URL"}}
	}
	return nil
}

func buildDTO(p *postEntity.Post, likes int64, likedByViewer, includeContent bool) *postPort.PostDTO {
	dto := &postPort.PostDTO{
		ID:            p.ID.String(),
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Tags:          []string(p.Tags),
		Privacy:       p.Privacy,
		Status:        p.Status,
		Author: postPort.AuthorDTO{
			ID:        p.AuthorID.String(),
			Username:  p.Author.Username,
			AvatarURL: p.Author.AvatarURL,
		},
		Likes:         likes,
		LikedByViewer: likedByViewer,
		Views:         p.Views,
		ReadTime:      p.ReadTime,
		CoverImageURL: p.CoverImageURL,
		Featured:      p.Featured,
		CreatedAt:     p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if includeContent {
		dto.Content = p.Content
	}
	return dto
}
