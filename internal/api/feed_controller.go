package api

import (
	"strconv"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/service"
	"github.com/gin-gonic/gin"
)

// FeedController reads the notification and post feeds.
type FeedController struct {
	feedService service.FeedService
}

// NewFeedController creates a feed controller.
func NewFeedController(feedService service.FeedService) *FeedController {
	return &FeedController{
		feedService: feedService,
	}
}

// ListNotifications lists notifications
// @Summary      List notifications
// @Tags         feed
// @Produce      json
// @Param        recipient  query     string  false  "recipient id or email"
// @Param        limit      query     int     false  "page size"
// @Param        offset     query     int     false  "page offset"
// @Success      200        {object}  Response{data=[]model.Notification}
// @Router       /api/notifications [get]
func (c *FeedController) ListNotifications(ctx *gin.Context) {
	limit, offset := feedPage(ctx)
	notifications, err := c.feedService.Notifications(ctx.Request.Context(), ctx.Query("recipient"), limit, offset)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, notifications)
}

// ListPosts lists posts
// @Summary      List posts
// @Tags         feed
// @Produce      json
// @Param        author  query     string  false  "author id or email"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200     {object}  Response{data=[]model.Post}
// @Router       /api/posts [get]
func (c *FeedController) ListPosts(ctx *gin.Context) {
	limit, offset := feedPage(ctx)
	posts, err := c.feedService.Posts(ctx.Request.Context(), ctx.Query("author"), limit, offset)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, posts)
}

func feedPage(ctx *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	return limit, offset
}
