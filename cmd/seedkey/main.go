// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// seedkey derives ECU security-access keys, assembles and runs
// seed-key algorithm programs, and manages known-answer vector sets.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ezrec/seedkey"
	"github.com/ezrec/seedkey/vector"
	"github.com/ezrec/seedkey/vm"
)

func parseHex32(option string, value string) uint32 {
	v64, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		log.Fatalf("%v %v: %v", option, value, err)
	}

	return uint32(v64)
}

// newAssembler predeclares the package and machine equates.
func newAssembler(verbose bool) *vm.Assembler {
	asm := &vm.Assembler{Verbose: verbose}

	for equ, value := range seedkey.Defines() {
		asm.Predefine(equ, value)
	}
	machine := &vm.Machine{}
	for equ, value := range machine.Defines() {
		asm.Predefine(equ, value)
	}

	return asm
}

func assembleFile(path string, verbose bool) *vm.Program {
	inf, err := os.Open(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	defer inf.Close()

	prog, err := newAssembler(verbose).Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	prog.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return prog
}

func loadContainer(path string) *vm.Program {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	prog := &vm.Program{}
	err = prog.UnmarshalBinary(data)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	return prog
}

func main() {
	var seedStr string
	var maskStr string
	var name string
	var assemble string
	var compile string
	var output string
	var run string
	var plugin string
	var kat string
	var count int
	var katSeed string
	var verify string
	var trace bool
	var verbose bool

	flag.StringVar(&seedStr, "s", "0", "Seed challenge, hex")
	flag.StringVar(&maskStr, "m", "0", "Secret mask, hex")
	flag.StringVar(&name, "t", "shiftxor", "Transform ("+strings.Join(seedkey.Names(), ", ")+")")
	flag.StringVar(&assemble, "a", "", ".ska algorithm to assemble and run")
	flag.StringVar(&compile, "c", "", ".ska algorithm to compile")
	flag.StringVar(&output, "o", "out.skc", "Compiled algorithm output")
	flag.StringVar(&run, "r", "", "Compiled .skc algorithm to run")
	flag.StringVar(&plugin, "p", "", "Starlark derive(seed, mask) plugin to run")
	flag.StringVar(&kat, "kat", "", "Known-answer vector file to generate")
	flag.IntVar(&count, "n", vector.DefaultCount, "Vector rows to generate")
	flag.StringVar(&katSeed, "kseed", "1", "Vector generator seed, hex")
	flag.StringVar(&verify, "verify", "", "Known-answer vector file to verify")
	flag.BoolVar(&trace, "trace", false, "Dump the execution trace")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	mask := parseHex32("-m", maskStr)
	seed := parseHex32("-s", seedStr)

	// Compile to a container, do not execute.
	if len(compile) != 0 {
		prog := assembleFile(compile, verbose)

		data, err := prog.MarshalBinary()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		err = os.WriteFile(output, data, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	// Select the transform.
	var tr seedkey.Transform
	var prog *vm.Program
	switch {
	case len(assemble) != 0:
		prog = assembleFile(assemble, verbose)
		tr = seedkey.NewProgram(prog.Name, prog, mask)
	case len(run) != 0:
		prog = loadContainer(run)
		tr = seedkey.NewProgram(prog.Name, prog, mask)
	case len(plugin) != 0:
		st, err := seedkey.LoadStarlarkFile(plugin, mask)
		if err != nil {
			log.Fatalf("%v: %v", plugin, err)
		}
		tr = st
	default:
		var err error
		tr, err = seedkey.New(name, mask)
		if err != nil {
			log.Fatalf("-t %v: %v", name, err)
		}
	}

	// Generate a known-answer vector set.
	if len(kat) != 0 {
		set, err := vector.Generate(tr, mask, count, parseHex32("-kseed", katSeed))
		if err != nil {
			log.Fatalf("%v: %v", kat, err)
		}

		ouf, err := os.Create(kat)
		if err != nil {
			log.Fatalf("%v: %v", kat, err)
		}
		defer ouf.Close()

		err = vector.Write(ouf, set)
		if err != nil {
			log.Fatalf("%v: %v", kat, err)
		}
		return
	}

	// Verify a known-answer vector set.
	if len(verify) != 0 {
		inf, err := os.Open(verify)
		if err != nil {
			log.Fatalf("%v: %v", verify, err)
		}
		defer inf.Close()

		set, err := vector.Read(inf)
		if err != nil {
			log.Fatalf("%v: %v", verify, err)
		}

		err = vector.Verify(set, tr)
		if err != nil {
			log.Fatalf("%v: %v", verify, err)
		}

		fmt.Printf("%v: %v rows ok\n", verify, len(set.Rows))
		return
	}

	// Derive a single key. Program transforms can dump a trace.
	if prog != nil && trace {
		machine := &vm.Machine{Verbose: verbose, Trace: &vm.Trace{}, TraceAll: true}

		key, err := machine.Run(prog, seed, mask)
		fmt.Print(machine.Trace.String())
		if err != nil {
			log.Fatalf("%v: %v", prog.Name, err)
		}

		fmt.Printf("0x%08X\n", key)
		return
	}

	key, err := tr.Derive(seed)
	if err != nil {
		log.Fatalf("%v: %v", tr.Name(), err)
	}

	fmt.Printf("0x%08X\n", key)
}
