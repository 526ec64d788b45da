package postapp

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	postEntity "inkwell/internal/core/post"
	"inkwell/internal/core/user"
	postPort "inkwell/internal/ports/post"
)

// fakePostRepo is an in-memory stand-in faithful enough to exercise the
// service rules: clones on read, filters on list, atomic-ish counters.
type fakePostRepo struct {
	posts map[uuid.UUID]*postEntity.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[uuid.UUID]*postEntity.Post{}}
}

func clonePost(p *postEntity.Post) *postEntity.Post {
	cp := *p
	return &cp
}

func (r *fakePostRepo) Create(_ context.Context, p *postEntity.Post) error {
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *fakePostRepo) FindByID(_ context.Context, id uuid.UUID) (*postEntity.Post, error) {
	if p, ok := r.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (r *fakePostRepo) FindBySlug(_ context.Context, slug string) (*postEntity.Post, error) {
	for _, p := range r.posts {
		if p.Slug == slug {
			return clonePost(p), nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, p := range r.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) List(_ context.Context, f postPort.ListFilter) ([]*postEntity.Post, int64, error) {
	var matched []*postEntity.Post
	for _, p := range r.posts {
		if p.Status != postEntity.StatusPublished {
			continue
		}
		if p.Privacy == postEntity.PrivacyPrivate && p.AuthorID != f.ViewerID {
			continue
		}
		if f.AuthorID != uuid.Nil && p.AuthorID != f.AuthorID {
			continue
		}
		if len(f.Tags) > 0 {
			any := false
			for _, t := range f.Tags {
				if p.Tags.Contains(t) {
					any = true
				}
			}
			if !any {
				continue
			}
		}
		if f.Search != "" && !strings.Contains(p.Title, f.Search) && !strings.Contains(p.Content, f.Search) {
			continue
		}
		cp := clonePost(p)
		cp.Content = ""
		matched = append(matched, cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := f.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakePostRepo) FindPublishedByIDs(_ context.Context, ids []uuid.UUID) ([]*postEntity.Post, error) {
	var out []*postEntity.Post
	for _, id := range ids {
		if p, ok := r.posts[id]; ok && p.Status == postEntity.StatusPublished {
			cp := clonePost(p)
			cp.Content = ""
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) TopByViews(_ context.Context, limit int) ([]*postEntity.Post, error) {
	var out []*postEntity.Post
	for _, p := range r.posts {
		if p.Status == postEntity.StatusPublished && p.Privacy == postEntity.PrivacyPublic {
			cp := clonePost(p)
			cp.Content = ""
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) Update(_ context.Context, p *postEntity.Post) error {
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *fakePostRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	if p, ok := r.posts[id]; ok {
		p.Views++
	}
	return nil
}

type fakeLikeRepo struct {
	likes map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (r *fakeLikeRepo) Add(_ context.Context, postID, userID uuid.UUID) error {
	if r.likes[postID] == nil {
		r.likes[postID] = map[uuid.UUID]bool{}
	}
	if r.likes[postID][userID] {
		return postPort.ErrAlreadyLiked
	}
	r.likes[postID][userID] = true
	return nil
}

func (r *fakeLikeRepo) Remove(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	if r.likes[postID][userID] {
		delete(r.likes[postID], userID)
		return true, nil
	}
	return false, nil
}

func (r *fakeLikeRepo) Exists(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	return r.likes[postID][userID], nil
}

func (r *fakeLikeRepo) Count(_ context.Context, postID uuid.UUID) (int64, error) {
	return int64(len(r.likes[postID])), nil
}

func (r *fakeLikeRepo) CountForPosts(_ context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	for _, id := range postIDs {
		if n := len(r.likes[id]); n > 0 {
			counts[id] = int64(n)
		}
	}
	return counts, nil
}

func newTestService() (*PostService, *fakePostRepo, *fakeLikeRepo) {
	postRepo := newFakePostRepo()
	likeRepo := newFakeLikeRepo()
	svc := NewPostService(postRepo, likeRepo, nil, zap.NewNop())
	return svc, postRepo, likeRepo
}

func ident(role string) postPort.Identity {
	return postPort.Identity{UserID: uuid.Must(uuid.NewV4()), Role: role}
}

func validCreateInput() postPort.CreateInput {
	return postPort.CreateInput{
		Title:   "My First Post",
		Content: "Some honest words about writing software.",
		Tags:    []string{postEntity.TagTechnical},
		Privacy: postEntity.PrivacyPublic,
		Status:  postEntity.StatusPublished,
	}
}

func TestCreateDerivesFields(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	in := validCreateInput()
	in.Content = strings.Repeat("word ", 1000)

	dto, err := svc.Create(context.Background(), author, in)
	require.NoError(t, err)

	assert.Equal(t, "my-first-post", dto.Slug)
	assert.Equal(t, 5, dto.ReadTime)
	assert.NotEmpty(t, dto.Excerpt)
	assert.LessOrEqual(t, len([]rune(dto.Excerpt)), 153)
	assert.False(t, dto.Featured)
}

func TestCreateKeepsAuthorExcerpt(t *testing.T) {
	svc, _, _ := newTestService()

	in := validCreateInput()
	in.Excerpt = "A hand-written summary."

	dto, err := svc.Create(context.Background(), ident(user.RoleUser), in)
	require.NoError(t, err)
	assert.Equal(t, "A hand-written summary.", dto.Excerpt)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	cases := []struct {
		name   string
		mutate func(*postPort.CreateInput)
		field  string
	}{
		{"empty title", func(in *postPort.CreateInput) { in.Title = "  " }, "title"},
		{"long title", func(in *postPort.CreateInput) { in.Title = strings.Repeat("x", 201) }, "title"},
		{"empty content", func(in *postPort.CreateInput) { in.Content = "" }, "content"},
		{"no tags", func(in *postPort.CreateInput) { in.Tags = nil }, "tags"},
		{"too many tags", func(in *postPort.CreateInput) {
			in.Tags = []string{postEntity.TagTechnical, postEntity.TagPersonal, postEntity.TagTechnical}
		}, "tags"},
		{"unknown tag", func(in *postPort.CreateInput) { in.Tags = []string{"cooking"} }, "tags"},
		{"bad privacy", func(in *postPort.CreateInput) { in.Privacy = "secret" }, "privacy"},
		{"bad status", func(in *postPort.CreateInput) { in.Status = "archived" }, "status"},
		{"long excerpt", func(in *postPort.CreateInput) { in.Excerpt = strings.Repeat("x", 301) }, "excerpt"},
		{"bad cover image", func(in *postPort.CreateInput) { in.CoverImageURL = "ftp://nope" }, "coverImage"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), author, in)

			var verr *postPort.ValidationError
			require.ErrorAs(t, err, &verr)
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tc.field {
					found = true
				}
			}
			assert.True(t, found, "expected a %s field error, got %v", tc.field, verr.Errors)
		})
	}
}

func TestCreateSlugCollision(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), ident(user.RoleUser), validCreateInput())
	require.NoError(t, err)

	in := validCreateInput()
	in.Title = "My First POST" // same slug, different casing
	_, err = svc.Create(context.Background(), ident(user.RoleUser), in)
	assert.ErrorIs(t, err, postPort.ErrSlugTaken)
}

func TestCreateFeaturedOnlyForAdmin(t *testing.T) {
	svc, _, _ := newTestService()

	in := validCreateInput()
	in.Featured = true
	dto, err := svc.Create(context.Background(), ident(user.RoleUser), in)
	require.NoError(t, err)
	assert.False(t, dto.Featured)

	in.Title = "Another Post"
	dto, err = svc.Create(context.Background(), ident(user.RoleAdmin), in)
	require.NoError(t, err)
	assert.True(t, dto.Featured)
}

func TestGetBySlugPrivacy(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	in := validCreateInput()
	in.Privacy = postEntity.PrivacyPrivate
	created, err := svc.Create(context.Background(), author, in)
	require.NoError(t, err)

	// anonymous and other users are forbidden
	_, err = svc.GetBySlug(context.Background(), postPort.Identity{}, created.Slug)
	assert.ErrorIs(t, err, postPort.ErrForbidden)
	_, err = svc.GetBySlug(context.Background(), ident(user.RoleUser), created.Slug)
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	// the author always gets through
	dto, err := svc.GetBySlug(context.Background(), author, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.ID)
}

func TestGetBySlugDraftHiddenFromOthers(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	in := validCreateInput()
	in.Status = postEntity.StatusDraft
	created, err := svc.Create(context.Background(), author, in)
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), ident(user.RoleUser), created.Slug)
	assert.ErrorIs(t, err, postPort.ErrNotFound)

	_, err = svc.GetBySlug(context.Background(), author, created.Slug)
	assert.NoError(t, err)
}

func TestGetBySlugViewCounting(t *testing.T) {
	svc, repo, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)
	pid := uuid.Must(uuid.FromString(created.ID))

	// a non-author read counts one view
	dto, err := svc.GetBySlug(context.Background(), postPort.Identity{}, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dto.Views)
	assert.Equal(t, int64(1), repo.posts[pid].Views)

	// the author's own read does not
	dto, err = svc.GetBySlug(context.Background(), author, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dto.Views)
	assert.Equal(t, int64(1), repo.posts[pid].Views)
}

func TestGetByIDAuthorOnly(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	// public post, but the by-id fetch is for the edit form only
	_, err = svc.GetByID(context.Background(), ident(user.RoleUser), created.ID)
	assert.ErrorIs(t, err, postPort.ErrForbidden)
	_, err = svc.GetByID(context.Background(), ident(user.RoleAdmin), created.ID)
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	dto, err := svc.GetByID(context.Background(), author, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Content, dto.Content)
}

func TestUpdateOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	newTitle := "Edited Title"
	_, err = svc.Update(context.Background(), ident(user.RoleUser), created.ID, postPort.UpdateInput{Title: &newTitle})
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	// an admin may not edit content either, only the featured flag
	_, err = svc.Update(context.Background(), ident(user.RoleAdmin), created.ID, postPort.UpdateInput{Title: &newTitle})
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	featured := true
	dto, err := svc.Update(context.Background(), ident(user.RoleAdmin), created.ID, postPort.UpdateInput{Featured: &featured})
	require.NoError(t, err)
	assert.True(t, dto.Featured)
}

func TestUpdateTitleRegeneratesSlug(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	newTitle := "A Better Title"
	dto, err := svc.Update(context.Background(), author, created.ID, postPort.UpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "a-better-title", dto.Slug)
}

func TestUpdateTitleSlugCollision(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	_, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	second := validCreateInput()
	second.Title = "Second Post"
	created, err := svc.Create(context.Background(), author, second)
	require.NoError(t, err)

	collide := "My First Post"
	_, err = svc.Update(context.Background(), author, created.ID, postPort.UpdateInput{Title: &collide})
	assert.ErrorIs(t, err, postPort.ErrSlugTaken)
}

func TestUpdateContentRecomputesDerivedFields(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	longer := strings.Repeat("word ", 450)
	dto, err := svc.Update(context.Background(), author, created.ID, postPort.UpdateInput{Content: &longer})
	require.NoError(t, err)

	assert.Equal(t, 3, dto.ReadTime)
	assert.NotEqual(t, created.Excerpt, dto.Excerpt)
}

func TestUpdateKeepsAuthorExcerptOnContentChange(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	in := validCreateInput()
	in.Excerpt = "Author's own words."
	created, err := svc.Create(context.Background(), author, in)
	require.NoError(t, err)

	newContent := "Entirely rewritten content for this post."
	dto, err := svc.Update(context.Background(), author, created.ID, postPort.UpdateInput{Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, "Author's own words.", dto.Excerpt)
}

func TestDeleteAuthorOrAdmin(t *testing.T) {
	svc, repo, _ := newTestService()
	author := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ident(user.RoleUser), created.ID)
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), ident(user.RoleAdmin), created.ID))
	assert.Empty(t, repo.posts)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	svc, _, likeRepo := newTestService()
	author := ident(user.RoleUser)
	reader := ident(user.RoleUser)

	created, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	res, err := svc.ToggleLike(context.Background(), reader, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.Likes)

	res, err = svc.ToggleLike(context.Background(), reader, created.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(0), res.Likes)

	pid := uuid.Must(uuid.FromString(created.ID))
	assert.Empty(t, likeRepo.likes[pid])
}

func TestToggleLikePrivatePost(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	in := validCreateInput()
	in.Privacy = postEntity.PrivacyPrivate
	created, err := svc.Create(context.Background(), author, in)
	require.NoError(t, err)

	_, err = svc.ToggleLike(context.Background(), ident(user.RoleUser), created.ID)
	assert.ErrorIs(t, err, postPort.ErrForbidden)

	res, err := svc.ToggleLike(context.Background(), author, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
}

func TestListVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	pub := validCreateInput()
	_, err := svc.Create(context.Background(), author, pub)
	require.NoError(t, err)

	priv := validCreateInput()
	priv.Title = "Private Thoughts"
	priv.Privacy = postEntity.PrivacyPrivate
	_, err = svc.Create(context.Background(), author, priv)
	require.NoError(t, err)

	draft := validCreateInput()
	draft.Title = "Unfinished Draft"
	draft.Status = postEntity.StatusDraft
	_, err = svc.Create(context.Background(), author, draft)
	require.NoError(t, err)

	// anonymous: only the public published post
	posts, pagination, err := svc.List(context.Background(), postPort.Identity{}, 0, 0, nil, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "my-first-post", posts[0].Slug)
	assert.Empty(t, posts[0].Content)
	assert.Equal(t, int64(1), pagination.Total)

	// the author also sees their private post, never the draft
	posts, _, err = svc.List(context.Background(), author, 0, 0, nil, "")
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	// another authenticated user sees only public
	posts, _, err = svc.List(context.Background(), ident(user.RoleUser), 0, 0, nil, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestListValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.List(context.Background(), postPort.Identity{}, -1, 10, nil, "")
	var verr *postPort.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.List(context.Background(), postPort.Identity{}, 1, 51, nil, "")
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.List(context.Background(), postPort.Identity{}, 1, 10, []string{"cooking"}, "")
	assert.ErrorAs(t, err, &verr)
}

func TestListPagination(t *testing.T) {
	svc, _, _ := newTestService()
	author := ident(user.RoleUser)

	for i := 0; i < 5; i++ {
		in := validCreateInput()
		in.Title = "Post Number " + string(rune('A'+i))
		_, err := svc.Create(context.Background(), author, in)
		require.NoError(t, err)
	}

	posts, pagination, err := svc.List(context.Background(), postPort.Identity{}, 2, 2, nil, "")
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, int64(5), pagination.Total)
	assert.Equal(t, 3, pagination.Pages)
	assert.True(t, pagination.HasNext)
	assert.True(t, pagination.HasPrev)
}

func TestListByAuthorScoped(t *testing.T) {
	svc, _, _ := newTestService()
	alice := ident(user.RoleUser)
	bob := ident(user.RoleUser)

	_, err := svc.Create(context.Background(), alice, validCreateInput())
	require.NoError(t, err)

	other := validCreateInput()
	other.Title = "Bob Writes Too"
	_, err = svc.Create(context.Background(), bob, other)
	require.NoError(t, err)

	posts, _, err := svc.ListByAuthor(context.Background(), postPort.Identity{}, alice.UserID.String(), 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, alice.UserID.String(), posts[0].Author.ID)
}

func TestTrendingFallsBackToDatabase(t *testing.T) {
	svc, repo, _ := newTestService()
	author := ident(user.RoleUser)

	first, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)

	second := validCreateInput()
	second.Title = "The Popular One"
	popular, err := svc.Create(context.Background(), author, second)
	require.NoError(t, err)

	repo.posts[uuid.Must(uuid.FromString(popular.ID))].Views = 10
	repo.posts[uuid.Must(uuid.FromString(first.ID))].Views = 3

	posts, err := svc.Trending(context.Background(), postPort.Identity{}, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, popular.ID, posts[0].ID)
}
