package notification

import (
	"net/http"

	"appbase/common"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathNotifications = "/v1/notifications"
)

func RegisterNotificationsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathNotifications, middleWares...)
	g.GET("", handleQueryNotifications)
	g.GET("count-unread", handleCountUnread)
	g.PUT(":id/read", handleMarkRead)
	g.PUT("read-all", handleMarkAllRead)
}

func handleQueryNotifications(c *gin.Context) {
	query := NotificationQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	records, err := QueryNotificationsFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCountUnread(c *gin.Context) {
	count, err := CountUnreadFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func handleMarkRead(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}
	if err := MarkReadFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleMarkAllRead(c *gin.Context) {
	if err := MarkAllReadFunc(session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
