package apps

import (
	"net/http"

	"appbase/bizerror"
	"appbase/common"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathApps = "/v1/apps"
)

func RegisterAppsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathApps, middleWares...)
	g.POST("", handleCreateApp)
	g.GET("", handleQueryApps)
	g.GET(":appId", handleDetailApp)
	g.PUT(":appId", handleUpdateAppBase)
	g.PUT(":appId/settings", handleUpdateAppSettings)
	g.DELETE(":appId", handleDeleteApp)
}

func handleCreateApp(c *gin.Context) {
	creation := AppCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateAppFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryApps(c *gin.Context) {
	query := AppQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	records, err := QueryAppsFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailApp(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	record, err := DetailAppFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateAppBase(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	updating := AppBaseUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdateAppBaseFunc(id, &updating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateAppSettings(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	updating := AppSettingsUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdateAppSettingsFunc(id, &updating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteApp(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	if err := DeleteAppFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
