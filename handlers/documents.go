package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/service"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/middleware"
)

// DocumentsHandler exposes the document CRUD and version-history REST
// surface. All routes require an authenticated user.
type DocumentsHandler struct {
	svc *service.Service
}

func NewDocumentsHandler(svc *service.Service) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// Register routes under /documents on an already-authenticated group.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/documents")
	d.GET("", h.List)
	d.POST("", h.Create)
	d.GET("/:id", h.Get)
	d.PATCH("/:id", h.Rename)
	d.DELETE("/:id", h.Delete)
	d.POST("/:id/collaborators", h.AddCollaborator)
	d.DELETE("/:id/collaborators/:userId", h.RemoveCollaborator)
	d.GET("/:id/versions", h.ListVersions)
	d.GET("/:id/versions/:n", h.GetVersion)
	d.POST("/:id/versions/:n/restore", h.RestoreVersion)
}

func writeDocError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, repository.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permission"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidPermission), errors.Is(err, service.ErrOwnerCollaborator):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("document handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *DocumentsHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DocumentsHandler) Create(c *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Title, req.Content)
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentsHandler) Rename(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Rename(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Title); err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "renamed"})
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *DocumentsHandler) AddCollaborator(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required"`
		Permission string `json:"permission" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.AddCollaboratorByEmail(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Email, document.Permission(req.Permission))
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DocumentsHandler) RemoveCollaborator(c *gin.Context) {
	if err := h.svc.RemoveCollaborator(c.Request.Context(), c.Param("id"), middleware.UserID(c), c.Param("userId")); err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collaborator removed"})
}

func (h *DocumentsHandler) ListVersions(c *gin.Context) {
	list, err := h.svc.ListVersions(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DocumentsHandler) GetVersion(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version number"})
		return
	}
	v, err := h.svc.GetVersion(c.Request.Context(), c.Param("id"), middleware.UserID(c), n)
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *DocumentsHandler) RestoreVersion(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version number"})
		return
	}
	v, err := h.svc.RestoreVersion(c.Request.Context(), c.Param("id"), middleware.UserID(c), n)
	if err != nil {
		writeDocError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
