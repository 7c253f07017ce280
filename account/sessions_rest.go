package account

import (
	"net/http"
	"time"

	"appbase/bizerror"
	"appbase/persistence"
	"appbase/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var (
	PathSessions = "/v1/sessions"

	loginLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 20)
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterSessionsRestAPI(r *gin.Engine) {
	g := r.Group(PathSessions)
	g.POST("", handleLogin)
	g.DELETE("", handleLogout)
}

func handleLogin(c *gin.Context) {
	if !loginLimiter.Allow() {
		panic(bizerror.ErrTooManyRequests)
	}

	login := LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&User{Email: login.Email, Secret: HashSha256(login.Password)}).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			panic(bizerror.ErrUnauthenticated)
		}
		panic(err)
	}
	if !user.Active {
		panic(bizerror.ErrForbidden)
	}

	token := uuid.New().String()
	securityContext := session.Context{
		Token: token,
		Identity: session.Identity{ID: user.ID, Email: user.Email, Name: user.Name,
			DepartmentID: user.DepartmentID, JobTitleID: user.JobTitleID},
		Superuser:   user.Superuser,
		SigningTime: time.Now(),
	}
	session.TokenCache.Set(token, &securityContext, cache.DefaultExpiration)

	c.SetCookie(session.KeySecToken, token, int(session.TokenExpiration/time.Second), "/", "", false, false)
	c.JSON(http.StatusOK, &securityContext)
}

func handleLogout(c *gin.Context) {
	token := session.ExtractToken(c)
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}
