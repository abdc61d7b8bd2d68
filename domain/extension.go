package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtensionRepository defines the interface for managing Lua extensions.
// It provides methods for retrieving, updating, and managing extension source code and settings.
type ExtensionRepository interface {
	// CreateExtension inserts a new extension row.
	CreateExtension(ext *Extension) error

	// GetExtensions retrieves all extensions, enabled or not.
	GetExtensions() ([]*Extension, error)

	// GetExtensionByName retrieves a single extension by its unique name.
	// It returns an error if no extension with the specified name is found.
	GetExtensionByName(name string) (*Extension, error)

	// SetExtensionEnabled toggles whether the extension participates in the
	// message pipeline.
	SetExtensionEnabled(name string, enabled bool) error

	// UpdateExtensionLuaCodeByName updates the Lua source code for a specific extension identified by its name.
	// It returns an error if the extension is not found.
	UpdateExtensionLuaCodeByName(name string, code string) error

	// GetExtensionSettingsByUUID retrieves the settings for a specific extension using its UUID.
	// Extension settings are returned as a map[string]any, allowing for flexible configuration.
	GetExtensionSettingsByUUID(id uuid.UUID) (map[string]any, error)

	// SetExtensionSettingsByUUID sets the settings for a specific extension using its UUID.
	// Extension settings are provided as a map[string]any.
	SetExtensionSettingsByUUID(id uuid.UUID, settings map[string]any) error

	// RemoveExtension deletes the extension by name.
	RemoveExtension(name string) error
}

// Extension represents the domain model for a Lua-based extension in Parley.
// Extensions run inside the message pipeline and may rewrite or drop outbound
// messages before they are persisted and broadcast.
type Extension struct {
	ID          uuid.UUID      // Unique identifier for the extension.
	Name        string         // The unique name of the extension.
	SourceURL   string         // The URL of the extension's source code repository.
	Author      string         // The name of the extension's author or creator.
	LuaContent  string         // The Lua source code of the extension.
	Enabled     bool           // A flag indicating whether the extension is currently active.
	Description string         // A brief description of the extension's functionality.
	Settings    map[string]any // A map of user-defined settings for the extension.
	UpdatedAt   time.Time      // The timestamp of the last update to the extension.
}
