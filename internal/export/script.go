package export

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/lexrope/internal/document"
)

// ParseScript parses an edit script. A script is either a JSON array of
// edits or an object whose "edits" member is one. Each edit has an "op" of
// insert, delete or replace:
//
//	{"op": "insert", "at": 12, "text": "x"}
//	{"op": "delete", "start": 3, "end": 7}
//	{"op": "replace", "start": 3, "end": 7, "text": "abc"}
//
// An edit without "op" is a replace; its "end" defaults to "start".
func ParseScript(data []byte) ([]document.Edit, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidScript)
	}

	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get("edits")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of edits", ErrInvalidScript)
	}

	var (
		edits []document.Edit
		err   error
	)
	list.ForEach(func(key, value gjson.Result) bool {
		var e document.Edit
		e, err = parseEdit(value)
		if err != nil {
			err = fmt.Errorf("edit %d: %w", key.Int(), err)
			return false
		}
		edits = append(edits, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return edits, nil
}

func parseEdit(v gjson.Result) (document.Edit, error) {
	if !v.IsObject() {
		return document.Edit{}, fmt.Errorf("%w: edit is not an object", ErrInvalidScript)
	}

	switch op := v.Get("op").String(); op {
	case "insert":
		at, err := intField(v, "at")
		if err != nil {
			return document.Edit{}, err
		}
		return document.NewInsert(at, v.Get("text").String()), nil
	case "delete":
		start, end, err := rangeFields(v)
		if err != nil {
			return document.Edit{}, err
		}
		return document.NewDelete(start, end), nil
	case "replace", "":
		start, end, err := rangeFields(v)
		if err != nil {
			return document.Edit{}, err
		}
		return document.NewReplace(start, end, v.Get("text").String()), nil
	default:
		return document.Edit{}, fmt.Errorf("%w: unknown op %q", ErrInvalidScript, op)
	}
}

func rangeFields(v gjson.Result) (int, int, error) {
	start, err := intField(v, "start")
	if err != nil {
		return 0, 0, err
	}
	if !v.Get("end").Exists() {
		return start, start, nil
	}
	end, err := intField(v, "end")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func intField(v gjson.Result, name string) (int, error) {
	f := v.Get(name)
	if f.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidScript, name)
	}
	n := f.Int()
	if n < 0 || float64(n) != f.Num {
		return 0, fmt.Errorf("%w: %q must be a non-negative integer, got %s", ErrInvalidScript, name, f.Raw)
	}
	return int(n), nil
}
