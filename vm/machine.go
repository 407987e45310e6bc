// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/bits"

	"github.com/ezrec/seedkey/internal"
)

const (
	WATCHDOG_DEFAULT = 4096 // Default tick budget for a program run.
)

var _machine_defines = map[string]string{
	"VM_STACK_LIMIT": fmt.Sprintf("%#v", STACK_LIMIT),
	"VM_WATCHDOG":    fmt.Sprintf("%#v", WATCHDOG_DEFAULT),
}

// Machine executes compiled seed-key algorithm programs.
//
// The seed and mask inputs are exposed to programs as read-only value
// sources; the derived key is whatever value a 'done' instruction hands
// back. A watchdog tick budget bounds every run.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Seed uint32 // Input challenge, read-only to programs.
	Mask uint32 // Input secret mask, read-only to programs.

	Ip       uint32    // Current instruction pointer.
	Register [6]uint32 // Register bank.
	Stack    Stack     // Call/data stack.
	Cond     bool      // Current conditional execution state.
	Carry    bool      // Last bit shifted out by shl/shr.

	Ticks    int // Executed instruction counter.
	MaxTicks int // Watchdog budget; 0 selects WATCHDOG_DEFAULT.

	Trace    *Trace // Optional execution trace ring.
	TraceAll bool   // Record every tick, not just 'trace' instructions.

	code []Code
}

// Defines returns the equates the machine contributes to assembly.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_machine_defines), m.Trace.Defines())
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	regs := []string{
		"ip",
		"cond", "carry",
		"r0", "r1", "r2", "r3", "r4", "r5",
		"stack",
		"seed", "mask",
		"ticks",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "ip":
			val := m.Ip
			strval = fmt.Sprintf("%04X_%04X", val>>16, val&0xffff)
		case "cond":
			strval = fmt.Sprintf("%v", m.Cond)
		case "carry":
			strval = fmt.Sprintf("%v", m.Carry)
		case "r0", "r1", "r2", "r3", "r4", "r5":
			val := m.Register[byte(reg[1]-'0')]
			strval = fmt.Sprintf("%04X_%04X", val>>16, val&0xffff)
		case "stack":
			val, ok := m.Stack.Peek()
			if ok {
				strval = fmt.Sprintf("%04X_%04X", val>>16, val&0xffff)
			} else {
				strval = "----_----"
			}
		case "seed":
			val := m.Seed
			strval = fmt.Sprintf("%04X_%04X", val>>16, val&0xffff)
		case "mask":
			val := m.Mask
			strval = fmt.Sprintf("%04X_%04X", val>>16, val&0xffff)
		case "ticks":
			strval = fmt.Sprintf("%v", m.Ticks)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset loads a program and the seed/mask inputs, and clears all
// execution state: registers, stack, flags, counters, and the trace.
func (m *Machine) Reset(prog *Program, seed, mask uint32) {
	if m.Verbose {
		log.Printf("vm: reset")
	}

	m.code = m.code[:0]
	if prog != nil {
		for _, code := range prog.Codes() {
			m.code = append(m.code, code)
		}
	}

	m.Seed = seed
	m.Mask = mask

	clear(m.Register[:])
	m.Stack.Reset()
	m.Ip = 0
	m.Cond = false
	m.Carry = false
	m.Ticks = 0

	if m.Trace != nil {
		m.Trace.Reset()
	}
}

// FetchCode fetches the next instruction to execute.
func (m *Machine) FetchCode() (code Code, err error) {
	if len(m.code) == 0 {
		err = ErrNoProgram
		return
	}
	if uint64(m.Ip) >= uint64(len(m.code)) {
		err = ErrIpRange
		return
	}

	code = m.code[m.Ip]

	return
}

// Tick executes a single instruction cycle.
// It reports done=true when the program executed a 'done' instruction,
// along with the derived key.
func (m *Machine) Tick() (done bool, key uint32, err error) {
	max := m.MaxTicks
	if max <= 0 {
		max = WATCHDOG_DEFAULT
	}
	if m.Ticks >= max {
		err = ErrWatchdog
		return
	}

	code, err := m.FetchCode()
	if err != nil {
		return
	}

	return m.Execute(code)
}

// Run executes a program to completion and returns the derived key.
func (m *Machine) Run(prog *Program, seed, mask uint32) (key uint32, err error) {
	if prog == nil {
		err = ErrNoProgram
		return
	}

	m.Reset(prog, seed, mask)

	for {
		var done bool
		done, key, err = m.Tick()
		if err != nil {
			key = 0
			return
		}
		if done {
			return
		}
	}
}

// Execute executes a single decoded instruction.
func (m *Machine) Execute(code Code) (done bool, key uint32, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if m.Verbose {
		log.Printf("%03x: %v", m.Ip, code)
	}
	if m.TraceAll && m.Trace != nil {
		m.Trace.Append(m.snapshot(code, 0))
	}

	next_ip := m.Ip + 1

	no_op := MakeCodeAlu(COND_ALWAYS, ALU_OP_OR, IR_REG_R0, IR_CONST_0)

	cond := code.Cond()
	switch cond {
	case COND_ALWAYS:
		// pass
	case COND_NEVER:
		return done, key, ErrOpcode(code)
	case COND_TRUE:
		if !m.Cond {
			// Convert to no-op
			code = no_op
		}
	case COND_FALSE:
		if m.Cond {
			// Convert to no-op
			code = no_op
		}
	}

	imms := code.Immediates

	switch code.Class() {
	case OP_ALU:
		op, dst, arg := code.AluDecode()
		var val uint32
		val, imms, err = m.getValue(arg, imms)
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, ErrOpcodeArg2, err)
			return
		}
		var input uint32
		var set_target func(value uint32)
		input, set_target, err = m.irTarget(dst, op != ALU_OP_SET, &next_ip)
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, err)
			return
		}
		set_target(m.doAlu(op, input, val))
	case OP_COND:
		op, a_ir, b_ir := code.CondDecode()
		var a_u uint32
		var b_u uint32
		a_u, imms, err = m.getValue(a_ir, imms)
		if err != nil {
			err = errors.Join(ErrOpcodeCond, ErrOpcodeArg1, err)
			return
		}
		b_u, imms, err = m.getValue(b_ir, imms)
		if err != nil {
			err = errors.Join(ErrOpcodeCond, ErrOpcodeArg2, err)
			return
		}
		// Treat as signed.
		a := int32(a_u)
		b := int32(b_u)
		switch op {
		case COND_OP_EQ:
			m.Cond = a == b
		case COND_OP_NE:
			m.Cond = a != b
		case COND_OP_LT:
			m.Cond = a < b
		case COND_OP_LE:
			m.Cond = a <= b
		default:
			err = errors.Join(ErrOpcodeCond, ErrOpcodeOp)
			return
		}
	case OP_BIT:
		op, dst, arg := code.BitDecode()
		var val uint32
		val, imms, err = m.getValue(arg, imms)
		if err != nil {
			err = errors.Join(ErrOpcodeBit, ErrOpcodeArg2, err)
			return
		}
		var input uint32
		var set_target func(value uint32)
		input, set_target, err = m.irTarget(dst, true, &next_ip)
		if err != nil {
			err = errors.Join(ErrOpcodeBit, err)
			return
		}
		var output uint32
		switch op {
		case BIT_OP_ROL:
			output = bits.RotateLeft32(input, int(val&0x1f))
		case BIT_OP_ROR:
			output = bits.RotateLeft32(input, -int(val&0x1f))
		case BIT_OP_BSWAP:
			if arg != IR_CONST_0 {
				err = errors.Join(ErrOpcodeBit, ErrOpcodeArg2)
				return
			}
			output = bits.ReverseBytes32(input)
		case BIT_OP_NSWAP:
			if arg != IR_CONST_0 {
				err = errors.Join(ErrOpcodeBit, ErrOpcodeArg2)
				return
			}
			output = ((input & 0x0f0f0f0f) << 4) | ((input & 0xf0f0f0f0) >> 4)
		default:
			err = errors.Join(ErrOpcodeBit, ErrOpcodeOp)
			return
		}
		set_target(output)
	case OP_CTL:
		op, arg := code.CtlDecode()
		var val uint32
		val, imms, err = m.getValue(arg, imms)
		if err != nil {
			err = errors.Join(ErrOpcodeCtl, ErrOpcodeArg2, err)
			return
		}
		switch op {
		case CTL_OP_DONE:
			done = true
			key = val
		case CTL_OP_FAIL:
			err = ErrAlgorithmFail{Code: uint16(val & 0xffff)}
			return
		case CTL_OP_TRACE:
			if m.Trace != nil {
				m.Trace.Append(m.snapshot(code, val))
			}
		case CTL_OP_NOP:
			if arg != IR_CONST_0 {
				err = errors.Join(ErrOpcodeCtl, ErrOpcodeArg2)
				return
			}
		default:
			err = errors.Join(ErrOpcodeCtl, ErrOpcodeOp)
			return
		}
	default:
		err = ErrOpcodeDecode
		return
	}

	if len(imms) != 0 {
		err = ErrOpcodeImm
		return
	}

	m.Ip = next_ip
	m.Ticks += 1

	return
}

// irTarget resolves a writable destination to its input value and a
// setter. The stack destination pops its input when pop is set, and
// always pushes the result.
func (m *Machine) irTarget(dst CodeIR, pop bool, next_ip *uint32) (input uint32, set func(value uint32), err error) {
	if !dst.Writable() {
		err = ErrOpcodeArg1
		return
	}

	switch dst {
	case IR_IP:
		input = *next_ip
		set = func(value uint32) { *next_ip = value }
	case IR_STACK:
		if m.Stack.Full() {
			err = errors.Join(ErrOpcodeArg1, ErrStackFull)
			return
		}
		if pop {
			var ok bool
			input, ok = m.Stack.Pop()
			if !ok {
				err = errors.Join(ErrOpcodeArg1, ErrStackEmpty)
				return
			}
		}
		set = func(value uint32) { m.Stack.Push(value) }
	case IR_REG_R0, IR_REG_R1, IR_REG_R2, IR_REG_R3, IR_REG_R4, IR_REG_R5:
		reg := dst - IR_REG_R0
		input = m.Register[reg]
		set = func(value uint32) { m.Register[reg] = value }
	}

	return
}

// getValue gets the value specified by the CodeIR, based on machine
// state or value of the immediates that followed the opcode.
func (m *Machine) getValue(src CodeIR, imms_in []uint16) (value uint32, imms []uint16, err error) {
	imms = imms_in

	switch src {
	case IR_CONST_0:
		value = 0
	case IR_CONST_FFFFFFFF:
		value = 0xffffffff
	case IR_IMMEDIATE_16:
		if len(imms) < 1 {
			err = ErrOpcodeImm
			return
		}
		value = uint32(imms[0])
		imms = imms[1:]
	case IR_IMMEDIATE_32:
		if len(imms) < 2 {
			err = ErrOpcodeImm
			return
		}
		value = (uint32(imms[0]) << 16) | uint32(imms[1])
		imms = imms[2:]
	case IR_IP:
		// next_ip
		value = m.Ip + 1
	case IR_STACK:
		var ok bool
		value, ok = m.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
	case IR_REG_R0, IR_REG_R1, IR_REG_R2, IR_REG_R3, IR_REG_R4, IR_REG_R5:
		value = m.Register[src-IR_REG_R0]
	case IR_REG_SEED:
		value = m.Seed
	case IR_REG_MASK:
		value = m.Mask
	case IR_REG_CARRY:
		if m.Carry {
			value = 1
		}
	case IR_REG_TICKS:
		value = uint32(m.Ticks)
	default:
		panic("unknown IR")
	}

	return
}

// doAlu performs the requested ALU action, and returns the output value.
// Shifts with a nonzero count update the carry flag with the last bit
// shifted out.
func (m *Machine) doAlu(op CodeAluOp, input uint32, value uint32) (output uint32) {
	switch op {
	case ALU_OP_SET: // set
		output = value
	case ALU_OP_XOR: // xor
		output = input ^ value
	case ALU_OP_AND: // and
		output = input & value
	case ALU_OP_OR: // or
		output = input | value
	case ALU_OP_SHL: // shl
		value &= 0x1f // clamp to 31 bits of shift
		if value > 0 {
			m.Carry = (input>>(32-value))&1 != 0
		}
		output = input << value
	case ALU_OP_SHR: // shr
		value &= 0x1f // clamp to 31 bits of shift
		if value > 0 {
			m.Carry = (input>>(value-1))&1 != 0
		}
		output = input >> value
	case ALU_OP_ADD: // add
		output = input + value
	case ALU_OP_SUB: // sub
		output = input + ((^value) + 1)
	}

	return
}

// snapshot captures the pre-execution state for the trace ring.
func (m *Machine) snapshot(code Code, tag uint32) Record {
	return Record{
		Tick:     m.Ticks,
		Ip:       m.Ip,
		Word:     code.Word,
		Register: m.Register,
		Cond:     m.Cond,
		Carry:    m.Carry,
		Tag:      tag,
	}
}
