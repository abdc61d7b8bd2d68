package extensions

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

type mockChatService struct {
	GetConfigDirFunc     func() (string, error)
	WriteLogFunc         func(level string, message string, options ...func(log *domain.Log) error) error
	GetExtensionRepoFunc func() (domain.ExtensionRepository, error)
}

func (m *mockChatService) GetConfigDir() (string, error) {
	if m.GetConfigDirFunc != nil {
		return m.GetConfigDirFunc()
	}
	return "/tmp/parley-test", nil
}

func (m *mockChatService) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	if m.WriteLogFunc != nil {
		return m.WriteLogFunc(level, message, options...)
	}
	return nil
}

func (m *mockChatService) GetExtensionRepo() (domain.ExtensionRepository, error) {
	if m.GetExtensionRepoFunc != nil {
		return m.GetExtensionRepoFunc()
	}
	return nil, nil
}

type mockExtensionRepo struct {
	settingsStore map[uuid.UUID]map[string]any
	forceSetError bool
}

func (m *mockExtensionRepo) CreateExtension(ext *domain.Extension) error        { return nil }
func (m *mockExtensionRepo) GetExtensions() ([]*domain.Extension, error)        { return nil, nil }
func (m *mockExtensionRepo) SetExtensionEnabled(name string, enabled bool) error { return nil }
func (m *mockExtensionRepo) RemoveExtension(name string) error                   { return nil }
func (m *mockExtensionRepo) GetExtensionByName(name string) (*domain.Extension, error) {
	return nil, nil
}
func (m *mockExtensionRepo) UpdateExtensionLuaCodeByName(name string, code string) error { return nil }

func (m *mockExtensionRepo) GetExtensionSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	if settings, ok := m.settingsStore[id]; ok {
		return settings, nil
	}
	return make(map[string]any), nil
}

func (m *mockExtensionRepo) SetExtensionSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	if m.forceSetError {
		return errors.New("forced set error")
	}
	if m.settingsStore == nil {
		m.settingsStore = make(map[uuid.UUID]map[string]any)
	}
	m.settingsStore[id] = settings
	return nil
}

func setupTestExtension(t *testing.T, luaCode string, options ...func(*Runtime) error) (*Runtime, *mockChatService) {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}
	ext := &domain.Extension{
		ID:         id,
		Name:       "test-extension",
		LuaContent: luaCode,
	}
	runtime := &Runtime{Data: ext}

	mockService := &mockChatService{}

	err = runtime.PrepareState(mockService, options)
	if err != nil {
		t.Fatalf("preparing state: %v", err)
	}

	return runtime, mockService
}
