package organization

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
	PathDepartments = "/v1/departments"
	PathJobTitles   = "/v1/job-titles"
)

func RegisterOrganizationRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	d := r.Group(PathDepartments, middleWares...)
	d.POST("", handleCreateDepartment)
	d.GET("", handleQueryDepartments)
	d.DELETE(":id", handleDeleteDepartment)

	j := r.Group(PathJobTitles, middleWares...)
	j.POST("", handleCreateJobTitle)
	j.GET("", handleQueryJobTitles)
	j.DELETE(":id", handleDeleteJobTitle)
}

func handleCreateDepartment(c *gin.Context) {
	creation := DepartmentCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateDepartmentFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryDepartments(c *gin.Context) {
	records, err := QueryDepartmentsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDeleteDepartment(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}
	if err := DeleteDepartmentFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleCreateJobTitle(c *gin.Context) {
	creation := JobTitleCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateJobTitleFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryJobTitles(c *gin.Context) {
	records, err := QueryJobTitlesFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDeleteJobTitle(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}
	if err := DeleteJobTitleFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
