package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"linkreg/internal/core"
)

type Handlers struct {
	svc     *core.Service
	baseURL string
	log     *slog.Logger
}

func NewHandlers(svc *core.Service, baseURL string, log *slog.Logger) *Handlers {
	return &Handlers{svc: svc, baseURL: baseURL, log: log}
}

type createLinkRequest struct {
	URL       string                   `json:"url"`
	MaxUses   int                      `json:"max_uses"`
	ExpiresAt core.Optional[time.Time] `json:"expires_at"`
	TTL       string                   `json:"ttl"`
}

type linkResponse struct {
	Code      string                   `json:"code"`
	ShortURL  string                   `json:"short_url"`
	URL       string                   `json:"url"`
	Used      int                      `json:"used"`
	MaxUses   int                      `json:"max_uses"`
	ExpiresAt core.Optional[time.Time] `json:"expires_at"`
	CreatedAt time.Time                `json:"created_at"`
	State     core.LinkState           `json:"state"`
}

// ---- endpoints ----

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) RegisterUser(c *gin.Context) {
	uid, err := h.svc.RegisterUser(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": uid.String()})
}

func (h *Handlers) GetUser(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}
	exists, err := h.svc.UserExists(c.Request.Context(), uid)
	if err != nil {
		h.internal(c, err)
		return
	}
	if !exists {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": uid.String()})
}

func (h *Handlers) ListLinks(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}
	links, err := h.svc.Links(c.Request.Context(), uid)
	if err != nil {
		h.internal(c, err)
		return
	}
	now := time.Now()
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, h.toResponse(l, now))
	}
	c.JSON(http.StatusOK, gin.H{"links": out})
}

func (h *Handlers) CreateLink(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}
	var in createLinkRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	if in.TTL != "" {
		if in.ExpiresAt.IsPresent() {
			jsonError(c, http.StatusBadRequest, "expires_at and ttl are mutually exclusive")
			return
		}
		ttl, err := time.ParseDuration(in.TTL)
		if err != nil || ttl <= 0 {
			jsonError(c, http.StatusBadRequest, "ttl must be a positive duration")
			return
		}
		in.ExpiresAt = core.Some(time.Now().Add(ttl))
	}

	link, err := h.svc.Shorten(c.Request.Context(), core.CreateRequest{
		Owner:     uid,
		URL:       in.URL,
		MaxUses:   in.MaxUses,
		ExpiresAt: in.ExpiresAt,
	})
	switch {
	case err == nil:
	case core.IsInvalidInput(err):
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	case core.IsUnknownOwner(err):
		jsonError(c, http.StatusNotFound, "user not found")
		return
	case core.IsConflict(err):
		jsonError(c, http.StatusConflict, "could not allocate a free code")
		return
	default:
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(link, time.Now()))
}

// DeleteLink answers 404 for both missing and foreign codes.
func (h *Handlers) DeleteLink(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}
	deleted, err := h.svc.Delete(c.Request.Context(), uid, c.Param("code"))
	if err != nil {
		h.internal(c, err)
		return
	}
	if !deleted {
		jsonError(c, http.StatusNotFound, "link not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// Redirect consumes one use. 302 rather than 301 so browsers do not cache past the limit.
func (h *Handlers) Redirect(c *gin.Context) {
	res, err := h.svc.Redeem(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.internal(c, err)
		return
	}
	target, ok := res.Get()
	if !ok {
		jsonError(c, http.StatusNotFound, "link not found or no longer usable")
		return
	}
	c.Redirect(http.StatusFound, core.RedirectTarget(target))
}

// ---- helpers ----

func (h *Handlers) toResponse(l core.Link, now time.Time) linkResponse {
	return linkResponse{
		Code:      l.Code,
		ShortURL:  h.baseURL + "/" + l.Code,
		URL:       l.Original,
		Used:      l.UsedCount,
		MaxUses:   l.MaxUses,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
		State:     l.State(now),
	}
}

func (h *Handlers) internal(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("request failed", "path", c.FullPath(), "error", err)
	jsonError(c, http.StatusInternalServerError, "internal error")
}

func userParam(c *gin.Context) (uuid.UUID, bool) {
	uid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid user id")
		return uuid.Nil, false
	}
	return uid, true
}

func jsonError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
