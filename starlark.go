package seedkey

import (
	"io"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// StarlarkTransform runs a user-provided derive(seed, mask) script
// for each derivation.
type StarlarkTransform struct {
	Mask uint32 // Mask passed to derive().

	name   string
	derive starlark.Callable
}

// LoadStarlark compiles a transform script. The script must define
// derive(seed, mask) returning an integer key; the result is masked
// to 32 bits.
func LoadStarlark(name string, src io.Reader) (st *StarlarkTransform, err error) {
	text, err := io.ReadAll(src)
	if err != nil {
		return
	}

	thread := &starlark.Thread{Name: name}
	opts := &syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(opts, thread, name, text, nil)
	if err != nil {
		return
	}

	value, ok := globals["derive"]
	if !ok {
		err = ErrStarlarkDerive
		return
	}
	derive, ok := value.(starlark.Callable)
	if !ok {
		err = ErrStarlarkDerive
		return
	}

	st = &StarlarkTransform{name: name, derive: derive}

	return
}

// LoadStarlarkFile compiles a transform script from a file and binds
// the mask.
func LoadStarlarkFile(path string, mask uint32) (st *StarlarkTransform, err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	st, err = LoadStarlark(filepath.Base(path), file)
	if err != nil {
		return
	}
	st.Mask = mask

	return
}

func (st *StarlarkTransform) Name() string {
	return st.name
}

// Derive calls the script's derive(seed, mask) on a fresh thread.
// Module globals are frozen after load, so concurrent calls are safe.
func (st *StarlarkTransform) Derive(seed uint32) (key uint32, err error) {
	thread := &starlark.Thread{Name: st.name}
	args := starlark.Tuple{
		starlark.MakeInt64(int64(seed)),
		starlark.MakeInt64(int64(st.Mask)),
	}

	result, err := starlark.Call(thread, st.derive, args, nil)
	if err != nil {
		return
	}

	value, ok := result.(starlark.Int)
	if !ok {
		err = ErrStarlarkResult
		return
	}
	key64, ok := value.Int64()
	if !ok {
		err = ErrStarlarkResult
		return
	}
	key = uint32(key64)

	return
}
