package account_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"appbase/account"
	"appbase/bizerror"
	"appbase/session"
	"appbase/testinfra"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestLoginAPI(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	account.RegisterSessionsRestAPI(router)

	t.Run("should reject wrong credentials", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := account.CreateUser(&account.UserCreation{Email: "ann@example.com", Secret: "s3cret!"}, nil)
		Expect(err).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, account.PathSessions,
			strings.NewReader(`{"email":"ann@example.com","password":"wrong"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated", "message":"unauthenticated", "data":null}`))
	})

	t.Run("should issue token and cookie on success", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		info, err := account.CreateUser(&account.UserCreation{Email: "ann@example.com", Name: "Ann", Secret: "s3cret!"}, nil)
		Expect(err).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, account.PathSessions,
			strings.NewReader(`{"email":"ann@example.com","password":"s3cret!"}`))
		status, body, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"token"`))
		Expect(resp.Header().Get("Set-Cookie")).To(ContainSubstring(session.KeySecToken + "="))

		// the issued token is cached and resolves to the signed-in identity
		secCtx := session.Context{}
		start := strings.Index(body, `"token":"`) + len(`"token":"`)
		token := body[start : start+36]
		cached, found := session.TokenCache.Get(token)
		Expect(found).To(BeTrue())
		secCtx = *(cached.(*session.Context))
		Expect(secCtx.Identity.ID).To(Equal(info.ID))
		Expect(secCtx.Identity.Name).To(Equal("Ann"))
		Expect(secCtx.Superuser).To(BeFalse())
	})

	t.Run("logout clears the cached token", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := account.CreateUser(&account.UserCreation{Email: "ann@example.com", Secret: "s3cret!"}, nil)
		Expect(err).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, account.PathSessions,
			strings.NewReader(`{"email":"ann@example.com","password":"s3cret!"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		start := strings.Index(body, `"token":"`) + len(`"token":"`)
		token := body[start : start+36]

		req = httptest.NewRequest(http.MethodDelete, account.PathSessions, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))

		_, found := session.TokenCache.Get(token)
		Expect(found).To(BeFalse())
	})
}
