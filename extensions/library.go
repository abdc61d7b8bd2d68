package extensions

import (
	"fmt"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/google/uuid"
	"github.com/parley-chat/parley/core"
)

// registerParleyLibrary registers the `parley` global library and its
// sub-libraries into the Lua state. This is the main entry point for exposing
// the chat server's functionality to Lua scripts.
func registerParleyLibrary(l *lua.State, service ChatService) {
	funcs := []lua.RegistryFunction{
		// log writes a message to the server's log.
		//
		// @param message string The message to log.
		// @param level string (optional) The log level (e.g., "INFO", "WARN", "ERROR").
		// Defaults to "INFO".
		{Name: "log", Function: func(l *lua.State) int {
			message := lua.CheckString(l, 2)
			level := lua.OptString(l, 3, "INFO")
			if extID := getExtensionID(l); extID != uuid.Nil {
				err := service.WriteLog(level, message, core.LogWithExtensionID(extID))
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			} else {
				err := service.WriteLog(level, message)
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			}
			return 0
		}},
		// config returns the path to the server's configuration directory.
		//
		// @return string The configuration directory path.
		{Name: "config", Function: func(l *lua.State) int {
			config, err := service.GetConfigDir()
			if err != nil {
				l.PushString("")
				return 1
			}
			l.PushString(config)
			return 1
		}},
		// uuid generates a new UUIDv7 and returns it as a string.
		//
		// @return string The new UUID.
		{Name: "uuid", Function: func(l *lua.State) int {
			id, err := uuid.NewV7()
			if err != nil {
				lua.Errorf(l, "generating uuid: %s", err.Error())
				return 0
			}
			l.PushString(id.String())
			return 1
		}},
		// timestamp returns the current time as a Unix timestamp in milliseconds.
		//
		// @return number The current timestamp.
		{Name: "timestamp", Function: func(l *lua.State) int {
			l.PushNumber(float64(time.Now().UnixMilli()))
			return 1
		}},
	}

	lua.NewLibrary(l, funcs)
	l.SetGlobal("parley")

	registerSettingsLibrary(l, service)
	registerEncodingLibrary(l)
	registerStringsLibrary(l)
	registerHTTPLibrary(l, nil)
}
