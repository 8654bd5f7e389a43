package controller

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

// CORS allows the browser demo to call the API from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// TwilioSignature rejects webhook calls whose X-Twilio-Signature does not
// match publicBaseURL + request path. An empty authToken disables the check.
func TwilioSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	if authToken == "" {
		return func(c *gin.Context) { c.Next() }
	}
	validator := client.NewRequestValidator(authToken)
	base := strings.TrimRight(publicBaseURL, "/")

	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for key := range c.Request.PostForm {
			params[key] = c.Request.PostForm.Get(key)
		}

		url := base + c.Request.URL.RequestURI()
		if !validator.Validate(url, params, c.GetHeader("X-Twilio-Signature")) {
			log.Printf("VOICE: Rejected request with invalid signature for %s", url)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
