package extensions

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"html"
	"net/url"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
)

// stringCodec is a pair of single-argument string transforms registered as a
// sub-table of parley.encoding. Decode may fail; encode never does.
type stringCodec struct {
	name       string
	encodeName string
	decodeName string
	encode     func(string) string
	decode     func(string) (string, error)
}

func stringCodecs() []stringCodec {
	return []stringCodec{
		{
			name:       "base64",
			encodeName: "encode",
			decodeName: "decode",
			encode: func(s string) string {
				return base64.StdEncoding.EncodeToString([]byte(s))
			},
			decode: func(s string) (string, error) {
				raw, err := base64.StdEncoding.DecodeString(s)
				return string(raw), err
			},
		},
		{
			name:       "hex",
			encodeName: "encode",
			decodeName: "decode",
			encode: func(s string) string {
				return hex.EncodeToString([]byte(s))
			},
			decode: func(s string) (string, error) {
				raw, err := hex.DecodeString(s)
				return string(raw), err
			},
		},
		{
			name:       "url",
			encodeName: "encode",
			decodeName: "decode",
			encode:     url.QueryEscape,
			decode:     url.QueryUnescape,
		},
		{
			// html uses escape/unescape so scripts read naturally when
			// sanitising message bodies.
			name:       "html",
			encodeName: "escape",
			decodeName: "unescape",
			encode:     html.EscapeString,
			decode: func(s string) (string, error) {
				return html.UnescapeString(s), nil
			},
		},
	}
}

// registerEncodingLibrary attaches parley.encoding with one sub-table per
// codec plus the json helpers.
func registerEncodingLibrary(l *lua.State) {
	l.Global("parley")

	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	l.NewTable()

	for _, codec := range stringCodecs() {
		codec := codec
		lua.NewLibrary(l, []lua.RegistryFunction{
			{Name: codec.encodeName, Function: func(l *lua.State) int {
				l.PushString(codec.encode(lua.CheckString(l, 2)))
				return 1
			}},
			{Name: codec.decodeName, Function: func(l *lua.State) int {
				input := lua.CheckString(l, 2)
				decoded, err := codec.decode(input)
				if err != nil {
					lua.Errorf(l, "decoding %s %s: %s", codec.name, input, err.Error())
					return 0
				}
				l.PushString(decoded)
				return 1
			}},
		})
		l.SetField(-2, codec.name)
	}

	lua.NewLibrary(l, jsonLibrary())
	l.SetField(-2, "json")

	l.SetField(-2, "encoding")
	l.Pop(1)
}

// deepExpand recursively walks a value. Strings that look like JSON objects
// or arrays are unmarshalled in place; anything that fails to parse is kept
// as the original string.
func deepExpand(v any) any {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
			(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
			var nested any
			if err := json.Unmarshal([]byte(val), &nested); err != nil {
				return val
			}
			return deepExpand(nested)
		}
		return val

	case map[string]any:
		for k, v := range val {
			val[k] = deepExpand(v)
		}
		return val

	case []any:
		for i, v := range val {
			val[i] = deepExpand(v)
		}
		return val

	default:
		return val
	}
}

// jsonLibrary backs parley.encoding.json. encode takes an optional indent
// width; decode expands nested JSON strings so scripts can reach into
// payloads that were serialised twice.
func jsonLibrary() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "encode", Function: func(l *lua.State) int {
			val := GoValue(l, 2)
			indent := lua.OptInteger(l, 3, 0)

			var jsonBytes []byte
			var err error
			if indent > 0 {
				jsonBytes, err = json.MarshalIndent(val, "", strings.Repeat(" ", indent))
			} else {
				jsonBytes, err = json.Marshal(val)
			}
			if err != nil {
				lua.Errorf(l, "marshalling json: %s", err.Error())
				return 0
			}

			l.PushString(string(jsonBytes))
			return 1
		}},
		{Name: "decode", Function: func(l *lua.State) int {
			inputString := lua.CheckString(l, 2)

			var decoded any
			if err := json.Unmarshal([]byte(inputString), &decoded); err != nil {
				lua.Errorf(l, "unmarshalling json: %s", err.Error())
				return 0
			}

			util.DeepPush(l, deepExpand(decoded))
			return 1
		}},
	}
}
