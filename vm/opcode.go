package vm

import (
	"fmt"
)

// CodeCond is a condition code.
type CodeCond int

//go:generate go tool stringer -linecomment -type=CodeCond
const (
	COND_ALWAYS = CodeCond(0) // .
	COND_TRUE   = CodeCond(1) // +
	COND_FALSE  = CodeCond(2) // -
	COND_NEVER  = CodeCond(3) // ~
)

// CodeClass is the type of opcode class.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	OP_ALU  = CodeClass(0) // alu
	OP_COND = CodeClass(1) // if
	OP_BIT  = CodeClass(2) // bit
	OP_CTL  = CodeClass(3) // ctl
)

// CodeAluOp is an ALU operation type.
type CodeAluOp int

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_SET = CodeAluOp(0) // set
	ALU_OP_XOR = CodeAluOp(1) // xor
	ALU_OP_AND = CodeAluOp(2) // and
	ALU_OP_OR  = CodeAluOp(3) // or
	ALU_OP_SHL = CodeAluOp(4) // shl
	ALU_OP_SHR = CodeAluOp(5) // shr
	ALU_OP_ADD = CodeAluOp(6) // add
	ALU_OP_SUB = CodeAluOp(7) // sub
)

// CodeCondOp is a conditional operation type.
type CodeCondOp int

//go:generate go tool stringer -linecomment -type=CodeCondOp
const (
	COND_OP_EQ = CodeCondOp(0) // eq
	COND_OP_NE = CodeCondOp(1) // ne
	COND_OP_LT = CodeCondOp(2) // lt
	COND_OP_LE = CodeCondOp(3) // le
)

// CodeBitOp is a bit-manipulation operation type.
type CodeBitOp int

//go:generate go tool stringer -linecomment -type=CodeBitOp
const (
	BIT_OP_ROL   = CodeBitOp(0) // rol
	BIT_OP_ROR   = CodeBitOp(1) // ror
	BIT_OP_BSWAP = CodeBitOp(2) // bswap
	BIT_OP_NSWAP = CodeBitOp(3) // nswap
)

// CodeCtlOp is a control operation type.
type CodeCtlOp int

//go:generate go tool stringer -linecomment -type=CodeCtlOp
const (
	CTL_OP_DONE  = CodeCtlOp(0) // done
	CTL_OP_FAIL  = CodeCtlOp(1) // fail
	CTL_OP_TRACE = CodeCtlOp(2) // trace
	CTL_OP_NOP   = CodeCtlOp(3) // nop
)

// CodeIR is an Immediate-or-Register decode type.
type CodeIR int

//go:generate go tool stringer -linecomment -type=CodeIR
const (
	IR_REG_R0         = CodeIR(0)  // r0
	IR_REG_R1         = CodeIR(1)  // r1
	IR_REG_R2         = CodeIR(2)  // r2
	IR_REG_R3         = CodeIR(3)  // r3
	IR_REG_R4         = CodeIR(4)  // r4
	IR_REG_R5         = CodeIR(5)  // r5
	IR_IP             = CodeIR(6)  // ip
	IR_STACK          = CodeIR(7)  // stack
	IR_REG_SEED       = CodeIR(8)  // seed
	IR_REG_MASK       = CodeIR(9)  // mask
	IR_REG_CARRY      = CodeIR(10) // carry
	IR_REG_TICKS      = CodeIR(11) // ticks
	IR_CONST_0        = CodeIR(12) // immz
	IR_CONST_FFFFFFFF = CodeIR(13) // immnz
	IR_IMMEDIATE_16   = CodeIR(14) // imm16
	IR_IMMEDIATE_32   = CodeIR(15) // imm32
)

// Writable returns true if the CodeIR represents a writable destination.
func (ir CodeIR) Writable() bool {
	return ir < IR_REG_SEED
}

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []Code
	LinkLabel string
}

// Code represents a single instruction word with optional immediate values.
type Code struct {
	Word       uint16
	Immediates []uint16
}

// makeCond creates an instruction with the specified condition code.
func makeCond(cond CodeCond, op uint16, imms ...uint16) Code {
	return Code{
		Word:       (uint16(cond) << 14) | op,
		Immediates: imms,
	}
}

// MakeCodeAlu creates an ALU operation instruction.
func MakeCodeAlu(cond CodeCond, op CodeAluOp, target, arg CodeIR, imms ...uint16) Code {
	return makeCond(cond, (uint16(OP_ALU)<<11)|(uint16(op)<<8)|((uint16(target)&0xf)<<4)|(uint16(arg)<<0), imms...)
}

// MakeCodeCond creates a conditional comparison instruction.
func MakeCodeCond(cond CodeCond, op CodeCondOp, arg_a, arg_b CodeIR, imms ...uint16) Code {
	return makeCond(cond, (uint16(OP_COND)<<11)|(uint16(op)<<8)|(uint16(arg_a)<<4)|(uint16(arg_b)<<0), imms...)
}

// MakeCodeBit creates a bit-manipulation instruction.
func MakeCodeBit(cond CodeCond, op CodeBitOp, target, arg CodeIR, imms ...uint16) Code {
	return makeCond(cond, (uint16(OP_BIT)<<11)|(uint16(op)<<8)|((uint16(target)&0xf)<<4)|(uint16(arg)<<0), imms...)
}

// MakeCodeCtl creates a control instruction.
func MakeCodeCtl(cond CodeCond, op CodeCtlOp, arg CodeIR, imms ...uint16) Code {
	return makeCond(cond, (uint16(OP_CTL)<<11)|(uint16(op)<<8)|(uint16(arg)<<0), imms...)
}

// Cond returns the condition code from the instruction word.
func (code Code) Cond() CodeCond {
	word := uint16(code.Word)
	return CodeCond((word >> 14) & 0x3)
}

// Class returns the operation class (ALU, COND, BIT, or CTL) from the instruction word.
func (code Code) Class() CodeClass {
	word := uint16(code.Word)
	return CodeClass((word >> 11) & 0x3)
}

// AluDecode decodes and returns the ALU operation, target register, and argument.
func (code Code) AluDecode() (op CodeAluOp, target, arg CodeIR) {
	word := uint16(code.Word)
	op = CodeAluOp((word >> 8) & 0x7)
	target = CodeIR((word >> 4) & 0xf)
	arg = CodeIR((word >> 0) & 0xf)
	return
}

// CondDecode decodes and returns the conditional operation and its two arguments.
func (code Code) CondDecode() (op CodeCondOp, arg1, arg2 CodeIR) {
	word := uint16(code.Word)
	op = CodeCondOp((word >> 8) & 0x7)
	arg1 = CodeIR((word >> 4) & 0xf)
	arg2 = CodeIR((word >> 0) & 0xf)
	return
}

// BitDecode decodes and returns the bit operation, target register, and count argument.
func (code Code) BitDecode() (op CodeBitOp, target, arg CodeIR) {
	word := uint16(code.Word)
	op = CodeBitOp((word >> 8) & 0x7)
	target = CodeIR((word >> 4) & 0xf)
	arg = CodeIR((word >> 0) & 0xf)
	return
}

// CtlDecode decodes and returns the control operation and its argument.
func (code Code) CtlDecode() (op CodeCtlOp, arg CodeIR) {
	word := uint16(code.Word)
	op = CodeCtlOp((word >> 8) & 0x7)
	arg = CodeIR((word >> 0) & 0xf)
	return
}

// ImmediateNeed returns the number of 16-bit immediate values required by this instruction.
func (code Code) ImmediateNeed() int {
	class := code.Class()

	a := IR_CONST_0
	b := IR_CONST_0

	switch class {
	case OP_ALU:
		_, _, a = code.AluDecode()
	case OP_COND:
		_, a, b = code.CondDecode()
	case OP_BIT:
		_, _, a = code.BitDecode()
	case OP_CTL:
		_, a = code.CtlDecode()
	}

	need := 0
	if a == IR_IMMEDIATE_16 {
		need += 1
	}
	if b == IR_IMMEDIATE_16 {
		need += 1
	}
	if a == IR_IMMEDIATE_32 {
		need += 2
	}
	if b == IR_IMMEDIATE_32 {
		need += 2
	}

	return need
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	cond := code.Cond()
	class := code.Class()

	var str string

	switch class {
	case OP_ALU:
		op, target, arg := code.AluDecode()
		str = fmt.Sprintf("%v.%v.%v", op.String(), target.String(), arg.String())
	case OP_COND:
		op, arg1, arg2 := code.CondDecode()
		str = fmt.Sprintf("%v.%v.%v", op.String(), arg1.String(), arg2.String())
	case OP_BIT:
		op, target, arg := code.BitDecode()
		str = fmt.Sprintf("%v.%v.%v", op.String(), target.String(), arg.String())
	case OP_CTL:
		op, arg := code.CtlDecode()
		str = fmt.Sprintf("%v.%v", op.String(), arg.String())
	}

	out = fmt.Sprintf("%v%v.%v imm:%#v", cond.String(), class.String(), str, code.Immediates)

	return
}
