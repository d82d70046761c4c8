package lexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds the execution of a language definition script.
const DefaultLuaTimeout = 2 * time.Second

// LoadLua runs a Lua script that returns a language definition table:
//
//	return {
//	  name = "ini",
//	  extensions = { ".ini" },
//	  blocks = { { open = "/*", close = "*/", kind = "comment_block" } },
//	  rules = { { pattern = ";.*", kind = "comment" } },
//	  keywords = { constant = { "true", "false" } },
//	}
//
// The script runs in a state with only the base, table, string and math
// libraries, and is cancelled when ctx is done.
func LoadLua(ctx context.Context, src string) (*Language, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibraries(L)

	ctx, cancel := context.WithTimeout(ctx, DefaultLuaTimeout)
	defer cancel()
	L.SetContext(ctx)

	fn, err := L.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLanguage, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLanguage, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: script returned %s, want table", ErrInvalidLanguage, ret.Type())
	}

	l, err := languageFromTable(tbl)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLuaFile reads and runs a Lua language definition.
func LoadLuaFile(ctx context.Context, path string) (*Language, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := LoadLua(ctx, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// LoadDir registers every *.lua language definition in dir and returns
// the number loaded. A missing directory is not an error.
func (r *Registry) LoadDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, path := range paths {
		l, err := LoadLuaFile(ctx, path)
		if err != nil {
			return loaded, err
		}
		if err := r.Register(l); err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
		loaded++
	}
	return loaded, nil
}

// openSafeLibraries opens only side-effect free Lua libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func languageFromTable(tbl *lua.LTable) (*Language, error) {
	name, err := stringField(tbl, "name")
	if err != nil {
		return nil, err
	}
	l := NewLanguage(name)

	if l.Extensions, err = stringList(tbl.RawGetString("extensions"), "extensions"); err != nil {
		return nil, err
	}

	blocks, err := tableList(tbl.RawGetString("blocks"), "blocks")
	if err != nil {
		return nil, err
	}
	for i, b := range blocks {
		open, err := stringField(b, "open")
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		closing, err := stringField(b, "close")
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		kind, err := kindField(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		l.AddBlock(open, closing, kind)
	}

	rules, err := tableList(tbl.RawGetString("rules"), "rules")
	if err != nil {
		return nil, err
	}
	for i, r := range rules {
		pattern, err := stringField(r, "pattern")
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		kind, err := kindField(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		l.AddRule(pattern, kind)
	}

	switch kw := tbl.RawGetString("keywords").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		var kwErr error
		kw.ForEach(func(k, v lua.LValue) {
			if kwErr != nil {
				return
			}
			kind, err := ParseKind(k.String())
			if err != nil {
				kwErr = fmt.Errorf("%w: keywords: %w", ErrInvalidLanguage, err)
				return
			}
			words, err := stringList(v, "keywords."+k.String())
			if err != nil {
				kwErr = err
				return
			}
			l.AddKeywords(kind, words...)
		})
		if kwErr != nil {
			return nil, kwErr
		}
	default:
		return nil, fmt.Errorf("%w: keywords must be a table, got %s", ErrInvalidLanguage, kw.Type())
	}

	return l, nil
}

func stringField(tbl *lua.LTable, key string) (string, error) {
	v, ok := tbl.RawGetString(key).(lua.LString)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidLanguage, key)
	}
	return string(v), nil
}

func kindField(tbl *lua.LTable) (Kind, error) {
	name, err := stringField(tbl, "kind")
	if err != nil {
		return KindInvalid, err
	}
	return ParseKind(name)
}

func stringList(v lua.LValue, what string) ([]string, error) {
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidLanguage, what)
	}
	out := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		s, ok := tbl.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a string", ErrInvalidLanguage, what, i)
		}
		out = append(out, string(s))
	}
	return out, nil
}

func tableList(v lua.LValue, what string) ([]*lua.LTable, error) {
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list of tables", ErrInvalidLanguage, what)
	}
	out := make([]*lua.LTable, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		t, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a table", ErrInvalidLanguage, what, i)
		}
		out = append(out, t)
	}
	return out, nil
}
