package extensions

import (
	"slices"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
)

func registerStringsLibrary(l *lua.State) {
	l.Global("parley")

	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	lua.NewLibrary(l, stringsLibrary())

	l.SetField(-2, "strings")

	l.Pop(1)
}

// transform wraps a single-argument string helper as a Lua library function.
func transform(name string, fn func(string) string) lua.RegistryFunction {
	return lua.RegistryFunction{Name: name, Function: func(l *lua.State) int {
		l.PushString(fn(lua.CheckString(l, 2)))
		return 1
	}}
}

// predicate wraps a two-argument boolean string helper.
func predicate(name string, fn func(string, string) bool) lua.RegistryFunction {
	return lua.RegistryFunction{Name: name, Function: func(l *lua.State) int {
		l.PushBoolean(fn(lua.CheckString(l, 2), lua.CheckString(l, 3)))
		return 1
	}}
}

func reverseString(s string) string {
	runes := []rune(s)
	slices.Reverse(runes)
	return string(runes)
}

// stringsLibrary returns the helpers available under `parley.strings`, the
// pieces of Go's strings package that message filters keep reaching for.
func stringsLibrary() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		transform("upper", strings.ToUpper),
		transform("lower", strings.ToLower),
		transform("trim", strings.TrimSpace),
		transform("reverse", reverseString),

		predicate("contains", strings.Contains),
		predicate("has_prefix", strings.HasPrefix),
		predicate("has_suffix", strings.HasSuffix),

		// len returns the byte length of a string.
		{Name: "len", Function: func(l *lua.State) int {
			l.PushInteger(len(lua.CheckString(l, 2)))
			return 1
		}},
		// replace swaps occurrences of target for replacement. The optional
		// fourth argument caps the number of replacements, -1 means all.
		{Name: "replace", Function: func(l *lua.State) int {
			inputString := lua.CheckString(l, 2)
			target := lua.CheckString(l, 3)
			replacement := lua.OptString(l, 4, "")
			occurences := lua.OptInteger(l, 5, -1)

			l.PushString(strings.Replace(inputString, target, replacement, occurences))
			return 1
		}},
		// split returns the parts of a string around a separator as a table.
		{Name: "split", Function: func(l *lua.State) int {
			inputString := lua.CheckString(l, 2)
			separator := lua.CheckString(l, 3)

			util.DeepPush(l, strings.Split(inputString, separator))
			return 1
		}},
	}
}
