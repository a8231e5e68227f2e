package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewHandler(db *sqlx.DB, redisClient *redis.Client) *Handler {
	return &Handler{
		db:    db,
		redis: redisClient,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck verifies the dependencies a booking request actually needs.
// Redis only carries outbox fan-out, so a broker outage degrades
// notifications but does not make the API unready.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "database connection failed",
		})
		return
	}

	brokerStatus := "UNKNOWN"
	if h.redis != nil {
		brokerStatus = "UP"
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			brokerStatus = "DOWN"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"broker": brokerStatus,
		"time":   time.Now().UTC(),
	})
}
