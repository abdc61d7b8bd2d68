package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

var _ domain.ExtensionRepository = (*Repository)(nil)

// dbExtension represents the structure of an extension as stored in the database.
// It uses the Metadata type for its settings field to handle JSON serialization.
type dbExtension struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	SourceURL   string    `db:"source_url"`
	Author      string    `db:"author"`
	LuaContent  string    `db:"lua_content"`
	Enabled     bool      `db:"enabled"`
	Description string    `db:"description"`
	Settings    Metadata  `db:"settings"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toDomainExtension converts a dbExtension struct to its domain.Extension representation.
func toDomainExtension(dbExt *dbExtension) *domain.Extension {
	return &domain.Extension{
		ID:          dbExt.ID,
		Name:        dbExt.Name,
		SourceURL:   dbExt.SourceURL,
		Author:      dbExt.Author,
		LuaContent:  dbExt.LuaContent,
		Enabled:     dbExt.Enabled,
		Description: dbExt.Description,
		Settings:    map[string]any(dbExt.Settings),
		UpdatedAt:   dbExt.UpdatedAt,
	}
}

// CreateExtension implements the domain.ExtensionRepository interface.
func (repo *Repository) CreateExtension(ext *domain.Extension) error {
	query := `INSERT INTO extensions (id, name, source_url, author, lua_content, enabled, description, settings, updated_at)
	          VALUES (:id, :name, :source_url, :author, :lua_content, :enabled, :description, :settings, :updated_at)`

	_, err := repo.dbConn.NamedExec(query, &dbExtension{
		ID:          ext.ID,
		Name:        ext.Name,
		SourceURL:   ext.SourceURL,
		Author:      ext.Author,
		LuaContent:  ext.LuaContent,
		Enabled:     ext.Enabled,
		Description: ext.Description,
		Settings:    Metadata(ext.Settings),
		UpdatedAt:   ext.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting extension %s: %w", ext.Name, err)
	}

	return nil
}

// GetExtensions implements the domain.ExtensionRepository interface.
// It retrieves all extensions from the database and converts them to domain.Extension objects.
func (repo *Repository) GetExtensions() ([]*domain.Extension, error) {
	var dbExts []*dbExtension
	query := `SELECT * FROM extensions ORDER BY name ASC`

	err := repo.dbConn.Select(&dbExts, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all extensions: %w", err)
	}

	domainExts := make([]*domain.Extension, len(dbExts))
	for i, dbExt := range dbExts {
		domainExts[i] = toDomainExtension(dbExt)
	}

	return domainExts, nil
}

// GetExtensionByName implements the domain.ExtensionRepository interface.
func (repo *Repository) GetExtensionByName(name string) (*domain.Extension, error) {
	var dbExt dbExtension
	query := `SELECT * FROM extensions WHERE name = ?`

	err := repo.dbConn.Get(&dbExt, query, name)
	if err != nil {
		return nil, fmt.Errorf("fetching extension %s: %w", name, err)
	}

	return toDomainExtension(&dbExt), nil
}

// SetExtensionEnabled implements the domain.ExtensionRepository interface.
func (repo *Repository) SetExtensionEnabled(name string, enabled bool) error {
	result, err := repo.dbConn.Exec(`UPDATE extensions SET enabled = ?, updated_at = ? WHERE name = ?`,
		enabled, time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("toggling extension %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for extension %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("toggling extension %s: no such extension", name)
	}

	return nil
}

// UpdateExtensionLuaCodeByName implements the domain.ExtensionRepository interface.
func (repo *Repository) UpdateExtensionLuaCodeByName(name string, code string) error {
	result, err := repo.dbConn.Exec(`UPDATE extensions SET lua_content = ?, updated_at = ? WHERE name = ?`,
		code, time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("updating lua code for extension %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for extension %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating lua code for extension %s: no such extension", name)
	}

	return nil
}

// GetExtensionSettingsByUUID implements the domain.ExtensionRepository interface.
func (repo *Repository) GetExtensionSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	var settings Metadata
	query := `SELECT settings FROM extensions WHERE id = ?`

	err := repo.dbConn.Get(&settings, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching settings for extension %s: %w", id, err)
	}

	return map[string]any(settings), nil
}

// SetExtensionSettingsByUUID implements the domain.ExtensionRepository interface.
func (repo *Repository) SetExtensionSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	result, err := repo.dbConn.Exec(`UPDATE extensions SET settings = ?, updated_at = ? WHERE id = ?`,
		Metadata(settings), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating settings for extension %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for extension %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating settings for extension %s: no such extension", id)
	}

	return nil
}

// RemoveExtension implements the domain.ExtensionRepository interface.
func (repo *Repository) RemoveExtension(name string) error {
	result, err := repo.dbConn.Exec(`DELETE FROM extensions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("removing extension %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for extension %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("removing extension %s: no such extension", name)
	}

	return nil
}
