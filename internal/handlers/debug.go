package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/registry"
	"messaging-service/internal/telemetry"
)

// RegisterDebugRoutes wires operator-only endpoints: an audit pipeline
// smoke check and live connection introspection. Disabled in normal
// deployments.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, reg *registry.Registry, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/connections/:user_id", func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		conns := reg.Connections(userID)
		out := make([]gin.H, 0, len(conns))
		for _, conn := range conns {
			out = append(out, gin.H{
				"id":           conn.ID,
				"device_id":    conn.DeviceID,
				"ip":           conn.IP,
				"connected_at": conn.ConnectedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID,
			"active":      len(conns),
			"connections": out,
		})
	})
}
