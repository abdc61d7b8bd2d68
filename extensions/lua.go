package extensions

import (
	"fmt"
	"strconv"

	"github.com/Shopify/go-lua"
)

// GoValue converts the Lua value at the given stack index into a Go value.
// Tables whose keys are exactly 1..n become []any; every other table becomes
// a map[string]any with keys rendered as strings.
func GoValue(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		number, _ := l.ToNumber(index)
		return number
	case lua.TypeString:
		str, _ := l.ToString(index)
		return str
	case lua.TypeTable:
		return tableValue(l, index)
	default:
		return nil
	}
}

func tableValue(l *lua.State, index int) any {
	index = l.AbsIndex(index)

	entries := make(map[string]any)
	integerKeys := true
	maxIndex := 0

	l.PushNil()
	for l.Next(index) {
		value := GoValue(l, -1)

		var key string
		switch l.TypeOf(-2) {
		case lua.TypeNumber:
			number, _ := l.ToNumber(-2)
			whole := int(number)
			if float64(whole) != number || whole < 1 {
				integerKeys = false
			} else if whole > maxIndex {
				maxIndex = whole
			}
			key = strconv.FormatFloat(number, 'f', -1, 64)
		case lua.TypeString:
			key, _ = l.ToString(-2)
			integerKeys = false
		default:
			key = fmt.Sprintf("%v", GoValue(l, -2))
			integerKeys = false
		}

		entries[key] = value
		l.Pop(1)
	}

	if integerKeys && maxIndex == len(entries) {
		list := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			list = append(list, entries[strconv.Itoa(i)])
		}
		return list
	}

	return entries
}

// asMap coerces a GoValue result into a settings map. Empty Lua tables come
// back as empty slices, so those are treated as empty maps. Non-empty slices
// and scalars return nil.
func asMap(value any) map[string]any {
	switch val := value.(type) {
	case map[string]any:
		return val
	case []any:
		if len(val) == 0 {
			return map[string]any{}
		}
		return nil
	default:
		return nil
	}
}
