package search

import (
	"net/http"

	"appbase/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathRecordSearch = "/v1/record-search"
)

func RegisterRecordSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathRecordSearch, middleWares...)
	g.GET("", handleSearchRecords)
}

func handleSearchRecords(c *gin.Context) {
	query := RecordSearchQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	result, err := SearchRecordsFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
