package fields

import (
	"net/http"

	"appbase/bizerror"
	"appbase/common"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	PathFields = "/v1/fields"

	fieldValidator = validator.New()
)

func RegisterFieldsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathFields, middleWares...)
	g.GET("app/:appId", handleQueryFields)
	g.PUT("app/:appId", handleSyncFields)
}

func handleQueryFields(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	records, err := QueryFieldsFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleSyncFields(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}

	var creations []FieldCreation
	if err := c.ShouldBindBodyWith(&creations, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	for _, creation := range creations {
		if err := fieldValidator.Struct(creation); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
	}

	records, err := SyncFieldsFunc(id, creations, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
