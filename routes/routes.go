package routes

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"skillhub/middlewares"
	"skillhub/models"
	"skillhub/utils"
)

// deps is the handlers' dependency container, injected by main.
type deps struct {
	users  models.UserRepository
	resv   models.ReservationRepository
	events models.EventRepository
	inv    *utils.CacheInvalidator
}

func RegisterRoutes(
	server *gin.Engine,
	u models.UserRepository,
	rs models.ReservationRepository,
	e models.EventRepository,
	rdb *redis.Client,
	inv *utils.CacheInvalidator,
) {
	d := &deps{users: u, resv: rs, events: e, inv: inv}

	// Global per-IP limit.
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	// Credential endpoints get a much stricter per-IP limit.
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   2,
		IdleTTL: 10 * time.Minute,
	})
	server.POST("/register",
		authLimiter.Middleware(func(c *gin.Context) string { return "register:" + c.ClientIP() }),
		d.register,
	)
	server.POST("/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "login:" + c.ClientIP() }),
		d.login,
	)
	server.POST("/logout", d.logout)

	// Public reads. /me resolves the session when present but never rejects.
	server.GET("/me", middlewares.CurrentUser, d.me)
	server.GET("/events", d.getEvents)
	server.GET("/events/:id", d.getEvent)

	// Mutations sit behind the identity gate, a per-user limiter and a
	// per-user daily quota.
	auth := server.Group("/")
	auth.Use(middlewares.Authenticate)

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + strconv.FormatInt(c.GetInt64("userId"), 10)
	}))

	auth.Use(middlewares.Quota(rdb, middlewares.QuotaRule{
		Limit:  2000,
		Window: 24 * time.Hour,
		KeyFn: func(c *gin.Context) string {
			uid := c.GetInt64("userId")
			if uid == 0 {
				return ""
			}
			return fmt.Sprintf("quota:user:%d:day", uid)
		},
	}))

	auth.POST("/events", d.createEvent)
	auth.POST("/events/:id/book", d.reserveSeat)
	auth.DELETE("/bookings/:id", d.cancelBooking)
	auth.GET("/my-bookings", d.myBookings)
}

/* ---------------- error responses ---------------- */

var kindStatus = map[string]int{
	models.KindUnauthenticated:  http.StatusUnauthorized,
	models.KindNotFound:         http.StatusNotFound,
	models.KindAlreadyBooked:    http.StatusConflict,
	models.KindSoldOut:          http.StatusConflict,
	models.KindNotOwner:         http.StatusForbidden,
	models.KindAlreadyCancelled: http.StatusConflict,
	models.KindBusy:             http.StatusServiceUnavailable,
	models.KindValidation:       http.StatusBadRequest,
	models.KindStorage:          http.StatusInternalServerError,
}

var kindMessage = map[string]string{
	models.KindNotFound:         "Not found.",
	models.KindAlreadyBooked:    "You already have a booking for this event.",
	models.KindSoldOut:          "Event is sold out.",
	models.KindNotOwner:         "This booking belongs to another user.",
	models.KindAlreadyCancelled: "This booking was already cancelled.",
	models.KindBusy:             "The event is busy right now. Please retry.",
	models.KindStorage:          "Something went wrong. Try again later.",
}

// fail writes the structured error body for a coordinator/repository error.
// Clients branch on kind, never on message text.
func fail(c *gin.Context, err error) {
	kind := models.Kind(err)
	if kind == models.KindStorage {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	if kind == models.KindBusy {
		c.Header("Retry-After", "1")
	}
	c.JSON(kindStatus[kind], gin.H{"kind": kind, "message": kindMessage[kind]})
}

func failValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"kind": models.KindValidation, "message": message})
}
