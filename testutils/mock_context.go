package testutils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func GetTestGinContext(w http.ResponseWriter, req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c
}

// AuthenticatedContext is GetTestGinContext with the user id the auth
// middleware would have set.
func AuthenticatedContext(w http.ResponseWriter, req *http.Request, userID uuid.UUID) *gin.Context {
	c := GetTestGinContext(w, req)
	c.Set("userID", userID)
	return c
}
