package i

import "github.com/gin-gonic/gin"

// Controller registers a resource's routes on the public and token-protected groups.
type Controller interface {
	RegisterPublic(*gin.RouterGroup)
	RegisterProtected(*gin.RouterGroup)
}
