package account

import (
	"net/http"

	"appbase/bizerror"
	"appbase/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathUsers = "/v1/users"
)

// RegisterUsersRestAPI signup is open, the rest sits behind the auth filter
func RegisterUsersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.POST(PathUsers, handleCreateUser)

	g := r.Group(PathUsers, middleWares...)
	g.GET("", handleQueryUsers)
	g.GET("/me", handleCurrentUser)
	g.PUT("/me/secret", handleUpdateSecret)
}

func handleCreateUser(c *gin.Context) {
	creation := UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateUserFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryUsers(c *gin.Context) {
	records, err := QueryUsersFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCurrentUser(c *gin.Context) {
	secCtx := session.FindSecurityContext(c)
	if secCtx == nil {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, &UserInfo{ID: secCtx.Identity.ID, Email: secCtx.Identity.Email,
		Name: secCtx.Identity.Name, DepartmentID: secCtx.Identity.DepartmentID,
		JobTitleID: secCtx.Identity.JobTitleID})
}

func handleUpdateSecret(c *gin.Context) {
	updating := BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateBasicAuthSecretFunc(&updating, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
