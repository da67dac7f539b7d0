package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skillhub/middlewares"
	"skillhub/models"
	"skillhub/utils"
)

const sessionTTL = 24 * time.Hour

// POST /register
func (d *deps) register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "Missing fields.")
		return
	}

	u := models.User{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := d.users.Create(&u); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			failValidation(c, "Email already exists.")
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful."})
}

// POST /login
func (d *deps) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, "Missing fields.")
		return
	}

	user, err := d.users.ValidateCredentials(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"kind":    models.KindUnauthenticated,
			"message": "Invalid credentials.",
		})
		return
	}

	token, err := utils.GenerateToken(user.Email, user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.SetCookie(middlewares.SessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in.", "user": user, "token": token})
}

// POST /logout
func (d *deps) logout(c *gin.Context) {
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

// GET /me answers with the user or null, never an error, so clients can
// check session state without tripping the 401 path.
func (d *deps) me(c *gin.Context) {
	userId := c.GetInt64("userId")
	if userId == 0 {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	user, err := d.users.GetByID(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
