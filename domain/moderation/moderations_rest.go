package moderation

import (
	"launchpad/bizerror"
	"launchpad/misc"
	"launchpad/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathReviews = "/v1/launch-reviews"
)

func RegisterModerationRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathReviews, middleWares...)
	g.GET("", handleQueryReviewQueue)
	g.POST(":id", handleReview)

	b := r.Group("/v1/launch-resubmissions", middleWares...)
	b.POST(":id", handleResubmit)
}

func handleQueryReviewQueue(c *gin.Context) {
	query := ReviewQueueQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryReviewQueueFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleReview(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	review := ReviewRequest{}
	if err := c.ShouldBindBodyWith(&review, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := ReviewLaunchFunc(id, &review, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleResubmit(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := ResubmitLaunchFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}
