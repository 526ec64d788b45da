package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"inkwell/internal/adapters/httpapi/middleware"
	postPort "inkwell/internal/ports/post"
	userPort "inkwell/internal/ports/user"
)

// UserUseCase is what the controllers need from the user service
// (inbound port).
type UserUseCase interface {
	Register(ctx context.Context, username, email, password string) (*userPort.UserDTO, error)
	Login(ctx context.Context, email, password string) (*userPort.LoginResponse, error)
	GetProfile(ctx context.Context, username string) (*userPort.UserDTO, error)
	UpdateProfile(ctx context.Context, actor userPort.Identity, bio, avatarURL *string) (*userPort.UserDTO, error)
}

type PostUseCase interface {
	List(ctx context.Context, viewer postPort.Identity, page, limit int, tags []string, search string) ([]*postPort.PostDTO, *postPort.Pagination, error)
	ListByAuthor(ctx context.Context, viewer postPort.Identity, authorID string, page, limit int) ([]*postPort.PostDTO, *postPort.Pagination, error)
	Trending(ctx context.Context, viewer postPort.Identity, limit int) ([]*postPort.PostDTO, error)
	GetBySlug(ctx context.Context, viewer postPort.Identity, slug string) (*postPort.PostDTO, error)
	GetByID(ctx context.Context, viewer postPort.Identity, id string) (*postPort.PostDTO, error)
	Create(ctx context.Context, author postPort.Identity, in postPort.CreateInput) (*postPort.PostDTO, error)
	Update(ctx context.Context, actor postPort.Identity, id string, in postPort.UpdateInput) (*postPort.PostDTO, error)
	Delete(ctx context.Context, actor postPort.Identity, id string) error
	ToggleLike(ctx context.Context, actor postPort.Identity, id string) (*postPort.LikeResultDTO, error)
}

// SetupRoutes wires the controllers; use cases are injected from main.
func SetupRoutes(userUC UserUseCase, postUC PostUseCase) *gin.Engine {
	r := gin.Default()
	uc := NewUserController(userUC)
	pc := NewPostController(postUC)

	r.POST("/auth/register", uc.Register)
	r.POST("/auth/login", uc.Login)
	r.GET("/users/:username", uc.GetProfile)
	r.PUT("/users/me", middleware.RequireAuth(), uc.UpdateMe)

	// Read endpoints are public but privacy-aware, so they carry the
	// optional variant of the auth middleware.
	r.GET("/posts", middleware.OptionalAuth(), pc.List)
	r.GET("/posts/trending", middleware.OptionalAuth(), pc.Trending)
	r.GET("/posts/user/:userId", middleware.OptionalAuth(), pc.ListByAuthor)
	r.GET("/posts/:slug", middleware.OptionalAuth(), pc.GetBySlug)
	r.GET("/posts/id/:id", middleware.RequireAuth(), pc.GetByID)

	r.POST("/posts", middleware.RequireAuth(), pc.Create)
	r.PUT("/posts/:id", middleware.RequireAuth(), pc.Update)
	r.DELETE("/posts/:id", middleware.RequireAuth(), pc.Delete)
	r.POST("/posts/:id/like", middleware.RequireAuth(), pc.ToggleLike)

	return r
}
