package extensions

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/google/uuid"
)

// requestBuilderType is the metatable name for RequestBuilder userdata.
const requestBuilderType = "RequestBuilder"

// RequestBuilder provides a fluent interface for constructing and sending
// HTTP requests from within Lua extensions, typically for webhook delivery.
type RequestBuilder struct {
	client      *http.Client      // HTTP client for sending requests
	method      string            // HTTP method (GET, POST, etc.)
	url         string            // Request URL
	body        string            // Request body content
	headers     http.Header       // HTTP headers
	cookies     map[string]string // Cookies to include
	contentType string            // Content type header value
}

// NewRequestBuilder creates a new RequestBuilder instance with the specified HTTP client.
func NewRequestBuilder(client *http.Client) *RequestBuilder {
	return &RequestBuilder{
		client:  client,
		headers: make(http.Header),
		cookies: make(map[string]string),
	}
}

// RegisterType registers a new user-defined type in the Lua state with
// associated methods and toString function. This enables Lua scripts to work
// with Go types through method calls.
func RegisterType(l *lua.State, name string, functions map[string]lua.Function, toString func(l *lua.State) int) {
	lua.NewMetaTable(l, name)
	l.PushGoFunction(FunctionIndex(functions))
	l.SetField(-2, "__index")
	l.PushGoFunction(toString)
	l.SetField(-2, "__tostring")
	l.Pop(1)
}

// FunctionIndex will check the field / method accessed and map it to the correct function
func FunctionIndex(functions map[string]lua.Function) func(l *lua.State) int {
	return func(l *lua.State) int {
		field := lua.CheckString(l, 2)
		if function, ok := functions[field]; ok {
			l.PushGoFunction(function)
		} else {
			l.PushNil()
		}
		return 1
	}
}

func checkRequestBuilder(l *lua.State) (*RequestBuilder, bool) {
	builder, ok := l.ToUserData(1).(*RequestBuilder)
	if !ok {
		l.PushString("Error: Invalid RequestBuilder object")
	}
	return builder, ok
}

// registerRequestBuilderType registers the RequestBuilder userdata type and
// installs `parley.http` with a constructor. Extensions use it to call out to
// webhooks when messages pass through the pipeline.
func registerRequestBuilderType(l *lua.State) {
	funcs := map[string]lua.Function{
		"Method": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			method, ok := l.ToString(2)
			if !ok || method == "" {
				l.PushString("Error: HTTP method cannot be empty")
				return 1
			}
			builder.method = strings.ToUpper(method)
			return 0
		},
		"URL": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			urlStr, ok := l.ToString(2)
			if !ok || urlStr == "" {
				l.PushString("Error: URL cannot be empty")
				return 1
			}
			builder.url = urlStr
			return 0
		},
		"Body": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			body, ok := l.ToString(2)
			if !ok {
				l.PushString("Error: Invalid body")
				return 1
			}
			builder.body = body
			return 0
		},
		"Header": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			name, nameOk := l.ToString(2)
			value, valueOk := l.ToString(3)
			if !nameOk || name == "" {
				l.PushString("Error: Header name cannot be empty")
				return 1
			}
			if !valueOk {
				l.PushString("Error: Invalid header value")
				return 1
			}
			builder.headers[name] = []string{value}
			if strings.ToLower(name) == "content-type" {
				builder.contentType = value
			}
			return 0
		},
		"Cookie": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			name, nameOk := l.ToString(2)
			value, valueOk := l.ToString(3)
			if !nameOk || name == "" {
				l.PushString("Error: Cookie name cannot be empty")
				return 1
			}
			if !valueOk {
				l.PushString("Error: Invalid cookie value")
				return 1
			}
			builder.cookies[name] = value
			return 0
		},
		"Send": func(l *lua.State) int {
			builder, ok := checkRequestBuilder(l)
			if !ok {
				return 1
			}
			if builder.method == "" || builder.url == "" {
				l.PushString("Error: Method and URL must be set before sending the request")
				return 1
			}

			var reqBody *bytes.Buffer
			switch builder.contentType {
			case "application/x-www-form-urlencoded":
				formData := url.Values{}
				for _, pair := range strings.Split(builder.body, "&") {
					parts := strings.SplitN(pair, "=", 2)
					if len(parts) == 2 {
						formData.Add(parts[0], parts[1])
					}
				}
				reqBody = bytes.NewBufferString(formData.Encode())
			default:
				reqBody = bytes.NewBuffer([]byte(builder.body))
			}

			req, err := http.NewRequest(builder.method, builder.url, reqBody)
			if err != nil {
				l.PushString(fmt.Sprintf("Error creating request: %v", err))
				return 1
			}
			req.Header = builder.headers
			for name, value := range builder.cookies {
				req.AddCookie(&http.Cookie{Name: name, Value: value})
			}
			if extID := getExtensionID(l); extID != uuid.Nil {
				req.Header.Set("x-extension-id", extID.String())
			}

			resp, err := builder.client.Do(req)
			if err != nil {
				l.PushString(fmt.Sprintf("Error sending request: %v", err))
				return 1
			}
			defer resp.Body.Close()

			responseBody, err := io.ReadAll(resp.Body)
			if err != nil {
				l.PushString(fmt.Sprintf("Error reading response: %v", err))
				return 1
			}

			l.PushString(string(responseBody))
			return 1
		},
	}

	RegisterType(l, requestBuilderType, funcs, func(l *lua.State) int {
		builder, ok := l.ToUserData(1).(*RequestBuilder)
		if !ok {
			l.PushString("Invalid Request Builder")
			return 1
		}
		l.PushString(fmt.Sprintf("Request Builder { %s %s }", builder.method, builder.url))
		return 1
	})
}

// registerHTTPLibrary installs `parley.http` into an already registered
// parley global.
func registerHTTPLibrary(l *lua.State, client *http.Client) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	registerRequestBuilderType(l)

	l.Global("parley")
	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	httpLibrary := []lua.RegistryFunction{
		// new_request returns a fresh RequestBuilder userdata.
		//
		// @return RequestBuilder The builder to configure and Send.
		{Name: "new_request", Function: func(l *lua.State) int {
			l.PushUserData(NewRequestBuilder(client))
			lua.SetMetaTableNamed(l, requestBuilderType)
			return 1
		}},
	}
	lua.NewLibrary(l, httpLibrary)
	l.SetField(-2, "http")
	l.Pop(1)
}
