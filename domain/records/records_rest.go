package records

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
	PathRecords = "/v1/records"
)

func RegisterRecordsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathRecords, middleWares...)
	g.POST("app/:appId", handleCreateRecord)
	g.GET("app/:appId", handleQueryRecords)
	g.GET("pending", handlePendingRecords)
	g.GET(":recordId", handleDetailRecord)
	g.PUT(":recordId", handleUpdateRecord)
	g.DELETE(":recordId", handleDeleteRecord)
	g.GET(":recordId/workflow/actions", handleQueryWorkflowActions)
	g.POST(":recordId/workflow/actions/:actionName", handleExecuteWorkflowAction)
}

func handleCreateRecord(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	creation := RecordCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateRecordFunc(id, &creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryRecords(c *gin.Context) {
	id, err := types.ParseID(c.Param("appId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("appId") + "'"})
		return
	}
	query := RecordQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	query.DataFilters = map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if key == "status" || key == "page" || key == "pageSize" || len(values) == 0 {
			continue
		}
		query.DataFilters[key] = values[0]
	}
	result, err := QueryRecordsFunc(id, query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handlePendingRecords(c *gin.Context) {
	result, err := PendingRecordsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleDetailRecord(c *gin.Context) {
	id, err := types.ParseID(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("recordId") + "'"})
		return
	}
	record, err := DetailRecordFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateRecord(c *gin.Context) {
	id, err := types.ParseID(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("recordId") + "'"})
		return
	}
	updating := RecordUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdateRecordFunc(id, &updating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteRecord(c *gin.Context) {
	id, err := types.ParseID(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("recordId") + "'"})
		return
	}
	if err := DeleteRecordFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleQueryWorkflowActions(c *gin.Context) {
	id, err := types.ParseID(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("recordId") + "'"})
		return
	}
	actions, err := QueryWorkflowActionsFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, actions)
}

func handleExecuteWorkflowAction(c *gin.Context) {
	id, err := types.ParseID(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("recordId") + "'"})
		return
	}
	invocation := WorkflowActionInvocation{}
	if err := c.ShouldBindBodyWith(&invocation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := ExecuteWorkflowActionFunc(id, c.Param("actionName"), &invocation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}
