package misc

import (
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type PagedBody struct {
	List  interface{} `json:"data"`
	Total uint64      `json:"total"`
}

// BindingPathID parse the ":id" path parameter
func BindingPathID(c *gin.Context) (types.ID, error) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		return 0, errors.New("invalid id '" + c.Param("id") + "'")
	}
	return id, nil
}
