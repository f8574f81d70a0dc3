package testinfra

import (
	"launchpad/authority"
	"launchpad/session"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// ExecuteRequest runs the request against the router and returns the response
// status, body and recorder.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}

// BuildSession builds an authenticated session of the given role.
func BuildSession(uid types.ID, role authority.Role) *session.Session {
	return &session.Session{
		Token: "test-token",
		Identity: session.Identity{
			ID:   uid,
			Name: "user" + uid.String(),
			Role: role,
		},
	}
}
