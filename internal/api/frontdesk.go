package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymdesk/internal/apperr"
	"gymdesk/internal/auth"
	"gymdesk/internal/member"
)

func (h *handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid login: %v", err))
		return
	}
	admin, err := h.Gate.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, apperr.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message": "Login Successful",
		"user":    admin.Username,
	}
	if h.opts.JWTSigningKey != "" {
		tok, err := auth.Issue(admin.Username, auth.RoleAdmin, h.opts.JWTIssuer, h.opts.JWTSigningKey, h.opts.AccessTTL)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["token"] = tok.AccessToken
		resp["expiresAt"] = tok.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) checkIn(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid check-in: %v", err))
		return
	}
	res, err := h.CheckIn.CheckIn(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// listAttendance returns the logs of ?date= (YYYY-MM-DD), defaulting to today.
func (h *handler) listAttendance(c *gin.Context) {
	var day member.Date
	if s := c.Query("date"); s != "" {
		d, err := member.ParseDate(s)
		if err != nil {
			respondError(c, apperr.Validation("%v", err))
			return
		}
		day = d
	}
	logs, err := h.Attendance.ListDay(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
