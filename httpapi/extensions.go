package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/domain"
)

type installExtensionDTO struct {
	URL string `json:"url" binding:"required"`
}

type toggleExtensionDTO struct {
	Enabled bool `json:"enabled"`
}

type extensionDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SourceURL   string    `json:"source_url"`
	Author      string    `json:"author"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toExtensionDTO(ext *domain.Extension) extensionDTO {
	return extensionDTO{
		ID:          ext.ID.String(),
		Name:        ext.Name,
		SourceURL:   ext.SourceURL,
		Author:      ext.Author,
		Enabled:     ext.Enabled,
		Description: ext.Description,
		UpdatedAt:   ext.UpdatedAt,
	}
}

// ListExtensions returns every installed extension.
func (h *Handler) ListExtensions(c *gin.Context) {
	exts, err := h.Server.Repo.GetExtensions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing extensions failed"})
		return
	}

	results := make([]extensionDTO, 0, len(exts))
	for _, ext := range exts {
		results = append(results, toExtensionDTO(ext))
	}
	c.JSON(http.StatusOK, gin.H{"extensions": results})
}

// InstallExtension installs an extension from a GitHub repository URL.
func (h *Handler) InstallExtension(c *gin.Context) {
	var in installExtensionDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ext, err := h.Server.InstallExtension(in.URL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toExtensionDTO(ext))
}

// ToggleExtension enables or disables an extension in the message pipeline.
func (h *Handler) ToggleExtension(c *gin.Context) {
	name := c.Param("name")

	var in toggleExtensionDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Server.Repo.SetExtensionEnabled(name, in.Enabled); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if runtime, found := h.Server.GetExtension(name); found {
		runtime.Data.Enabled = in.Enabled
	}
	c.Status(http.StatusNoContent)
}

// CheckExtensionUpdates reports which extensions have a newer release.
func (h *Handler) CheckExtensionUpdates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"updates": h.Server.CheckExtensionUpdates()})
}

// UpdateExtension pulls the latest release of an installed extension.
func (h *Handler) UpdateExtension(c *gin.Context) {
	name := c.Param("name")
	if err := h.Server.UpdateExtension(name); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveExtension uninstalls an extension.
func (h *Handler) RemoveExtension(c *gin.Context) {
	name := c.Param("name")

	if err := h.Server.Repo.RemoveExtension(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	for i, runtime := range h.Server.Extensions {
		if runtime.Data.Name == name {
			h.Server.Extensions = append(h.Server.Extensions[:i], h.Server.Extensions[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}
