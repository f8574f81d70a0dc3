package indices

import (
	"launchpad/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/index-syncs", middleWares...)
	g.POST("", handleCreateSyncRun)
}

func handleCreateSyncRun(c *gin.Context) {
	accepted, err := ScheduleNewSyncRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	if accepted {
		c.AbortWithStatus(http.StatusAccepted)
	} else {
		c.AbortWithStatus(http.StatusConflict)
	}
}
