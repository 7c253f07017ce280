package testinfra

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx build security context
func BuildSecCtx(uid types.ID) *session.Context {
	return &session.Context{Token: "test-token-" + uid.String(),
		Identity: session.Identity{ID: uid, Name: "user-" + uid.String()}}
}

func BuildSuperuserSecCtx(uid types.ID) *session.Context {
	ctx := BuildSecCtx(uid)
	ctx.Superuser = true
	return ctx
}

// ExecuteRequest drives the engine with an in-memory request and returns
// status and response body.
func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}

func BuildJSONRequest(method, url, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
