package api

import (
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
)

// UserController exposes the directory mirror and identifier resolution.
type UserController struct {
	userService service.UserService
	resolver    service.ResolverService
}

// NewUserController creates a user controller.
func NewUserController(userService service.UserService, resolver service.ResolverService) *UserController {
	return &UserController{
		userService: userService,
		resolver:    resolver,
	}
}

// SyncUser upserts a user profile
// @Summary      Sync a user profile
// @Description  Upserts one profile from the external user directory
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user  body      service.SyncUserRequest  true  "profile payload"
// @Success      200   {object}  Response{data=model.UserProfile}
// @Router       /api/users/sync [post]
// @Security     BearerAuth
func (c *UserController) SyncUser(ctx *gin.Context) {
	var req service.SyncUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	profile, err := c.userService.Sync(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, profile)
}

type linkFirebaseRequest struct {
	FirebaseUID string `json:"firebase_uid" binding:"required"`
}

// LinkFirebase attaches an external-auth UID
// @Summary      Link a Firebase UID to a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "user id"
// @Param        link  body      linkFirebaseRequest  true  "uid payload"
// @Success      200   {object}  Response
// @Router       /api/users/{id}/link-firebase [post]
// @Security     BearerAuth
func (c *UserController) LinkFirebase(ctx *gin.Context) {
	var req linkFirebaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Fail(ctx, T(ctx, "error.bad_request"))
		return
	}

	if err := c.userService.LinkFirebase(ctx.Request.Context(), ctx.Param("id"), req.FirebaseUID); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"linked": true})
}

// GetUser returns one profile
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "user id"
// @Success      200  {object}  Response{data=model.UserProfile}
// @Router       /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	profile, err := c.userService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, profile)
}

// ResolveIdentifier maps an identifier to the canonical user id
// @Summary      Resolve a user identifier
// @Description  Accepts a UUID, email or external auth UID
// @Tags         users
// @Produce      json
// @Param        identifier  path      string  true  "identifier"
// @Success      200         {object}  Response
// @Router       /api/users/resolve/{identifier} [get]
func (c *UserController) ResolveIdentifier(ctx *gin.Context) {
	id, err := c.resolver.Resolve(ctx.Request.Context(), ctx.Param("identifier"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id})
}
