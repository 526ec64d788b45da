package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"inkwell/internal/adapters/httpapi/middleware"
	postPort "inkwell/internal/ports/post"
	userPort "inkwell/internal/ports/user"
)

type PostController struct{ pc PostUseCase }

func NewPostController(pc PostUseCase) *PostController { return &PostController{pc: pc} }

func (ctl *PostController) List(c *gin.Context) {
	page, limit, verr := pageParams(c)
	if verr != nil {
		respondError(c, verr)
		return
	}

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	posts, pagination, err := ctl.pc.List(c.Request.Context(), middleware.Identity(c), page, limit, tags, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "pagination": pagination})
}

func (ctl *PostController) ListByAuthor(c *gin.Context) {
	page, limit, verr := pageParams(c)
	if verr != nil {
		respondError(c, verr)
		return
	}

	posts, pagination, err := ctl.pc.ListByAuthor(c.Request.Context(), middleware.Identity(c), c.Param("userId"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "pagination": pagination})
}

func (ctl *PostController) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	posts, err := ctl.pc.Trending(c.Request.Context(), middleware.Identity(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (ctl *PostController) GetBySlug(c *gin.Context) {
	post, err := ctl.pc.GetBySlug(c.Request.Context(), middleware.Identity(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (ctl *PostController) GetByID(c *gin.Context) {
	post, err := ctl.pc.GetByID(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (ctl *PostController) Create(c *gin.Context) {
	var req struct {
		Title      string   `json:"title" binding:"required"`
		Content    string   `json:"content" binding:"required"`
		Excerpt    string   `json:"excerpt"`
		Tags       []string `json:"tags" binding:"required"`
		Privacy    string   `json:"privacy"`
		Status     string   `json:"status"`
		CoverImage string   `json:"coverImage"`
		Featured   bool     `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	post, err := ctl.pc.Create(c.Request.Context(), middleware.Identity(c), postPort.CreateInput{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Tags:          req.Tags,
		Privacy:       req.Privacy,
		Status:        req.Status,
		CoverImageURL: req.CoverImage,
		Featured:      req.Featured,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": post})
}

func (ctl *PostController) Update(c *gin.Context) {
	var req struct {
		Title      *string   `json:"title"`
		Content    *string   `json:"content"`
		Excerpt    *string   `json:"excerpt"`
		Tags       *[]string `json:"tags"`
		Privacy    *string   `json:"privacy"`
		Status     *string   `json:"status"`
		CoverImage *string   `json:"coverImage"`
		Featured   *bool     `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	post, err := ctl.pc.Update(c.Request.Context(), middleware.Identity(c), c.Param("id"), postPort.UpdateInput{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Tags:          req.Tags,
		Privacy:       req.Privacy,
		Status:        req.Status,
		CoverImageURL: req.CoverImage,
		Featured:      req.Featured,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated", "post": post})
}

func (ctl *PostController) Delete(c *gin.Context) {
	if err := ctl.pc.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (ctl *PostController) ToggleLike(c *gin.Context) {
	result, err := ctl.pc.ToggleLike(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// pageParams parses page and limit, leaving zero for "use the default".
func pageParams(c *gin.Context) (int, int, error) {
	var errs []userPort.FieldError

	page := 0
	if raw := c.Query("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, userPort.FieldError{Field: "page", Message: "page must be a number"})
		}
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, userPort.FieldError{Field: "limit", Message: "limit must be a number"})
		}
	}

	if len(errs) > 0 {
		return 0, 0, &userPort.ValidationError{Errors: errs}
	}
	return page, limit, nil
}
