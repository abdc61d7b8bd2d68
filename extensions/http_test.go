package extensions

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPLibrary(t *testing.T) {
	t.Run("should send a request built from lua", func(t *testing.T) {
		var gotMethod, gotBody, gotContentType, gotExtensionID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotContentType = r.Header.Get("Content-Type")
			gotExtensionID = r.Header.Get("x-extension-id")
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			fmt.Fprint(w, `{"ok":true}`)
		}))
		defer server.Close()

		runtime, _ := setupTestExtension(t, "")
		code := fmt.Sprintf(`
			local req = parley.http:new_request()
			req:Method("post")
			req:URL(%q)
			req:Header("Content-Type", "application/json")
			req:Body('{"text":"hello"}')
			response = req:Send()
		`, server.URL)
		if err := runtime.ExecuteLua(code); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if gotMethod != http.MethodPost {
			t.Errorf("\nwanted:\nPOST\ngot:\n%v", gotMethod)
		}
		if gotContentType != "application/json" {
			t.Errorf("\nwanted:\napplication/json\ngot:\n%v", gotContentType)
		}
		if gotBody != `{"text":"hello"}` {
			t.Errorf("\nwanted:\n{\"text\":\"hello\"}\ngot:\n%v", gotBody)
		}
		if gotExtensionID != runtime.Data.ID.String() {
			t.Errorf("\nwanted:\n%v\ngot:\n%v", runtime.Data.ID, gotExtensionID)
		}

		l := runtime.State()
		l.Global("response")
		response, ok := l.ToString(-1)
		if !ok || response != `{"ok":true}` {
			t.Errorf("\nwanted:\n{\"ok\":true}\ngot:\n%v", response)
		}
		l.Pop(1)
	})

	t.Run("should report an error for a request without a url", func(t *testing.T) {
		runtime, _ := setupTestExtension(t, "")
		code := `
			local req = parley.http:new_request()
			req:Method("get")
			result = req:Send()
		`
		if err := runtime.ExecuteLua(code); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		l := runtime.State()
		l.Global("result")
		result, _ := l.ToString(-1)
		if result != "Error: Method and URL must be set before sending the request" {
			t.Errorf("\nwanted:\nan error string\ngot:\n%v", result)
		}
		l.Pop(1)
	})

	t.Run("should encode form bodies", func(t *testing.T) {
		var gotBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
		}))
		defer server.Close()

		runtime, _ := setupTestExtension(t, "")
		code := fmt.Sprintf(`
			local req = parley.http:new_request()
			req:Method("post")
			req:URL(%q)
			req:Header("Content-Type", "application/x-www-form-urlencoded")
			req:Body("a=1&b=two words")
			req:Send()
		`, server.URL)
		if err := runtime.ExecuteLua(code); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if gotBody != "a=1&b=two+words" {
			t.Errorf("\nwanted:\na=1&b=two+words\ngot:\n%v", gotBody)
		}
	})
}
