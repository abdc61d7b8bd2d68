package extensions

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/parley-chat/parley/domain"
)

func TestSettingsLibrary(t *testing.T) {
	t.Run("parley.settings:set then get should roundtrip", func(t *testing.T) {
		ext, mockService := setupTestExtension(t, "")

		repo := &mockExtensionRepo{}
		mockService.GetExtensionRepoFunc = func() (domain.ExtensionRepository, error) {
			return repo, nil
		}

		luaCode := `
			parley.settings:set({banned_word = "spoilers", max_len = 200})
			return parley.settings:get()
		`
		err := ext.ExecuteLua(luaCode)
		if err != nil {
			t.Fatalf("executing lua: %v", err)
		}

		got := GoValue(ext.State(), -1)
		want := map[string]any{
			"banned_word": "spoilers",
			"max_len":     float64(200),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("wanted:\n%v\ngot:\n%v", want, got)
		}
	})

	t.Run("parley.settings:set with an empty table should store an empty map", func(t *testing.T) {
		ext, mockService := setupTestExtension(t, "")

		repo := &mockExtensionRepo{}
		mockService.GetExtensionRepoFunc = func() (domain.ExtensionRepository, error) {
			return repo, nil
		}

		err := ext.ExecuteLua(`parley.settings:set({})`)
		if err != nil {
			t.Fatalf("executing lua: %v", err)
		}

		stored, ok := repo.settingsStore[ext.Data.ID]
		if !ok {
			t.Fatalf("wanted:\nsettings stored\ngot:\nnothing")
		}
		if len(stored) != 0 {
			t.Errorf("wanted:\nempty map\ngot:\n%v", stored)
		}
	})

	t.Run("parley.settings:set should raise for non-table values", func(t *testing.T) {
		ext, mockService := setupTestExtension(t, "")

		repo := &mockExtensionRepo{}
		mockService.GetExtensionRepoFunc = func() (domain.ExtensionRepository, error) {
			return repo, nil
		}

		luaCode := `
			local ok, res = pcall(parley.settings.set, parley.settings, "not a table")
			if ok then
				return "expected error"
			end
			return res
		`
		err := ext.ExecuteLua(luaCode)
		if err != nil {
			t.Fatalf("executing lua: %v", err)
		}

		result, ok := GoValue(ext.State(), -1).(string)
		if !ok {
			t.Fatalf("wanted:\nstring error\ngot:\n%T", GoValue(ext.State(), -1))
		}
		if result == "expected error" {
			t.Errorf("wanted:\nraised error\ngot:\nnone")
		}
	})

	t.Run("parley.settings:get should raise when the repo is unavailable", func(t *testing.T) {
		ext, mockService := setupTestExtension(t, "")

		mockService.GetExtensionRepoFunc = func() (domain.ExtensionRepository, error) {
			return nil, errors.New("repo unavailable")
		}

		luaCode := `
			local ok, res = pcall(parley.settings.get, parley.settings)
			if ok then
				return "expected error"
			end
			return res
		`
		err := ext.ExecuteLua(luaCode)
		if err != nil {
			t.Fatalf("executing lua: %v", err)
		}

		result, _ := GoValue(ext.State(), -1).(string)
		if result == "expected error" {
			t.Errorf("wanted:\nraised error\ngot:\nnone")
		}
	})

	t.Run("parley.settings:set should surface repo failures", func(t *testing.T) {
		ext, mockService := setupTestExtension(t, "")

		repo := &mockExtensionRepo{forceSetError: true}
		mockService.GetExtensionRepoFunc = func() (domain.ExtensionRepository, error) {
			return repo, nil
		}

		luaCode := `
			local ok, res = pcall(parley.settings.set, parley.settings, {a = "b"})
			if ok then
				return "expected error"
			end
			return res
		`
		err := ext.ExecuteLua(luaCode)
		if err != nil {
			t.Fatalf("executing lua: %v", err)
		}

		result, ok := GoValue(ext.State(), -1).(string)
		if !ok {
			t.Fatalf("wanted:\nstring error\ngot:\n%T", GoValue(ext.State(), -1))
		}
		if !strings.Contains(result, "forced set error") {
			t.Errorf("wanted:\nerror containing 'forced set error'\ngot:\n%v", result)
		}
	})
}
