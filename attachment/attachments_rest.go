package attachment

import (
	"net/http"

	"appbase/bizerror"
	"appbase/common"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var (
	PathFiles = "/v1/files"
)

func RegisterFilesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathFiles, middleWares...)
	g.POST("", handleUploadFile)
	g.GET(":id", handleDownloadFile)
}

func handleUploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	file, err := fileHeader.Open()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer file.Close()

	record, err := UploadAttachmentFunc(c.Request.Context(), fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), fileHeader.Size, file, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleDownloadFile(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}
	record, body, err := DownloadAttachmentFunc(c.Request.Context(), id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.Name+`"`)
	c.Data(http.StatusOK, contentType, body)
}
