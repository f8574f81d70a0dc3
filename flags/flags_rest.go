package flags

import (
	"errors"
	"launchpad/bizerror"
	"launchpad/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathFeatureFlags = "/v1/feature-flags"

	errUnknownFlag = errors.New("unknown feature flag")
)

type FlagUpdating struct {
	Enabled bool `json:"enabled"`
}

// RegisterFlagsRestAPI mounts the public flag snapshot and the admin toggle.
func RegisterFlagsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.GET(PathFeatureFlags, handleSnapshot)

	g := r.Group(PathFeatureFlags, middleWares...)
	g.PUT(":name", handleSaveFlag)
}

func handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, Active.Snapshot(c.Request.Context()))
}

func handleSaveFlag(c *gin.Context) {
	name := c.Param("name")
	if !isKnownFlag(name) {
		panic(&bizerror.ErrBadParam{Cause: errUnknownFlag})
	}
	updating := FlagUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := Active.SaveFlag(name, updating.Enabled, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "enabled": updating.Enabled})
}

func isKnownFlag(name string) bool {
	for _, known := range KnownFlags {
		if known == name {
			return true
		}
	}
	return false
}
