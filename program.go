package seedkey

import (
	"bytes"
	_ "embed"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/seedkey/vm"
)

//go:embed classic.ska
var classicSource []byte

var _defines = map[string]string{
	"ROUNDS_CLASSIC": fmt.Sprintf("%#v", DefaultRounds),
}

// Defines returns the equates this package contributes to assembly.
func Defines() iter.Seq2[string, string] {
	return maps.All(_defines)
}

// ProgramTransform runs a compiled algorithm program on a fresh
// machine for each derivation.
type ProgramTransform struct {
	name string
	prog *vm.Program
	mask uint32
}

// NewProgram wraps a compiled program as a Transform.
func NewProgram(name string, prog *vm.Program, mask uint32) *ProgramTransform {
	return &ProgramTransform{name: name, prog: prog, mask: mask}
}

func (pt *ProgramTransform) Name() string {
	return pt.name
}

func (pt *ProgramTransform) Derive(seed uint32) (key uint32, err error) {
	m := &vm.Machine{}
	return m.Run(pt.prog, seed, pt.mask)
}

// Classic returns the canonical transform compiled from its assembly
// source. It derives the same keys as SeedToKey.
func Classic(mask uint32) (tr Transform, err error) {
	asm := &vm.Assembler{}
	for equ, value := range Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(bytes.NewReader(classicSource))
	if err != nil {
		return
	}
	prog.Name = "classic"

	tr = NewProgram("classic", prog, mask)

	return
}
