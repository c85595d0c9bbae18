package utils

import "github.com/gin-gonic/gin"

// GenericErrorMessage is the only detail a client sees for unexpected
// failures.
const GenericErrorMessage = "Something went wrong"

func JSONSuccess(c *gin.Context, code int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(code, body)
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

func JSONErrors(c *gin.Context, code int, errors any) {
	c.JSON(code, gin.H{"success": false, "errors": errors})
}
