package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/member"
)

// getMembers lists every member, or returns one when ?id= is given.
func (h *handler) getMembers(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		v, err := h.Members.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
		return
	}
	views, err := h.Members.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *handler) postMembers(c *gin.Context) {
	if c.Query("action") == "checkin" {
		h.logVisit(c)
		return
	}
	var reg member.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		respondError(c, apperr.Validation("invalid member: %v", err))
		return
	}
	m, err := h.Members.Register(c.Request.Context(), reg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// logVisit records a check-in the front desk has already decided on.
func (h *handler) logVisit(c *gin.Context) {
	var req struct {
		MemberID string `json:"memberId"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid check-in: %v", err))
		return
	}
	if _, err := h.Attendance.Record(c.Request.Context(), attendance.Visit{MemberID: req.MemberID, Name: req.Name}); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Attendance Logged")
}

func (h *handler) updateMember(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	var d member.Details
	if err := c.ShouldBindJSON(&d); err != nil {
		respondError(c, apperr.Validation("invalid member: %v", err))
		return
	}
	if err := h.Members.Update(c.Request.Context(), id, d); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Update Successful")
}

// renewMember extends the membership; the body and its amount are optional.
func (h *handler) renewMember(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	var req struct {
		Amount amount `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperr.Validation("invalid renewal: %v", err))
		return
	}
	if req.Amount.set && req.Amount.value <= 0 {
		respondError(c, apperr.Validation("amount must be positive"))
		return
	}
	renewal, err := h.Members.Renew(c.Request.Context(), id, req.Amount.value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"newExpiry": renewal.NewExpiry})
}

func (h *handler) deleteMember(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	if err := h.Members.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Deleted")
}

func (h *handler) searchMembers(c *gin.Context) {
	views, err := h.Members.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// uploadPhoto accepts a multipart "file" or a JSON {"data": "<data URL>"}.
func (h *handler) uploadPhoto(c *gin.Context) {
	if h.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "image storage not configured"})
		return
	}
	id, ok := requireID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Members.Get(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	var (
		url string
		err error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			respondError(c, apperr.Validation("file field required"))
			return
		}
		f, ferr := fh.Open()
		if ferr != nil {
			respondError(c, ferr)
			return
		}
		data, ferr := io.ReadAll(f)
		f.Close()
		if ferr != nil {
			respondError(c, ferr)
			return
		}
		res, uerr := h.Photos.UploadBytes(ctx, id, data, fh.Filename)
		if res != nil {
			url = res.SecureURL
		}
		err = uerr
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			respondError(c, apperr.Validation(`provide {"data": "<base64 data URL>"}`))
			return
		}
		res, uerr := h.Photos.UploadBase64(ctx, id, body.Data)
		if res != nil {
			url = res.SecureURL
		}
		err = uerr
	}
	if err != nil {
		h.Logger.Error("photo upload failed", zap.String("member_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "image upload failed"})
		return
	}

	if err := h.Members.SetPhoto(ctx, id, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}
