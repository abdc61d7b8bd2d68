package extensions

import (
	"fmt"

	"github.com/Shopify/go-lua"
	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

// extensionIDKey is the registry key under which the owning extension's ID is
// stored inside each Lua state.
const extensionIDKey = "parley_extension_id"

// ChatService is the narrow view of the server that Lua extensions are given.
// It is implemented by the root parley.Server and mocked in tests.
type ChatService interface {
	// GetConfigDir returns the path of the server's configuration directory.
	GetConfigDir() (string, error)

	// WriteLog persists a structured log entry.
	WriteLog(level string, message string, options ...func(log *domain.Log) error) error

	// GetExtensionRepo returns the repository used for extension settings.
	GetExtensionRepo() (domain.ExtensionRepository, error)
}

// Runtime binds one extension's Lua state to its stored metadata.
// Each extension owns a dedicated state; states are never shared.
type Runtime struct {
	Data  *domain.Extension // The extension row backing this runtime.
	state *lua.State        // The Lua interpreter state, prepared by PrepareState.
}

// PrepareState creates the Lua state for the extension, registers the parley
// library, applies any options, and executes the extension's source so its
// hook functions become defined globals.
func (runtime *Runtime) PrepareState(service ChatService, options []func(*Runtime) error) error {
	if runtime.Data == nil {
		return fmt.Errorf("preparing state: extension data is nil")
	}

	l := lua.NewState()
	lua.OpenLibraries(l)

	registerParleyLibrary(l, service)

	l.PushString(runtime.Data.ID.String())
	l.SetField(lua.RegistryIndex, extensionIDKey)

	runtime.state = l

	for _, option := range options {
		if err := option(runtime); err != nil {
			return fmt.Errorf("applying option on extension %s : %w", runtime.Data.Name, err)
		}
	}

	if err := lua.DoString(l, runtime.Data.LuaContent); err != nil {
		return fmt.Errorf("loading extension %s : %w", runtime.Data.Name, err)
	}

	return nil
}

// ExecuteLua runs a chunk of Lua code in the extension's prepared state.
func (runtime *Runtime) ExecuteLua(code string) error {
	if runtime.state == nil {
		return fmt.Errorf("extension %s : state not prepared", runtime.Data.Name)
	}
	return lua.DoString(runtime.state, code)
}

// State exposes the underlying Lua state, mainly for tests and options.
func (runtime *Runtime) State() *lua.State {
	return runtime.state
}

// getExtensionID reads the owning extension's ID back out of the Lua registry.
// It returns uuid.Nil when the state was not prepared through PrepareState.
func getExtensionID(l *lua.State) uuid.UUID {
	l.Field(lua.RegistryIndex, extensionIDKey)
	defer l.Pop(1)

	value, ok := l.ToString(-1)
	if !ok {
		return uuid.Nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}

	return id
}
