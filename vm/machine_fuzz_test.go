package vm

import (
	"errors"
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzMachine(f *testing.F) {
	seeds := []uint16{
		0x0000, 0xffff,
		0x000e, 0x040e, 0x0676, 0x007e, 0x0067, 0x006f,
		0x080c, 0x09ac, 0x0b10, 0x406f, 0x580c, 0x9b0c,
		0x100e, 0x123c, 0x134c,
		0x1800, 0x190e, 0x1a0c, 0x1b0c,
	}
	for _, word := range seeds {
		f.Add(word, false, false, false)
		f.Add(word, true, true, true)
	}

	f.Fuzz(func(t *testing.T, word uint16, stack, cond, carry bool) {
		assert := assert.New(t)

		code := Code{Word: word,
			Immediates: []uint16{0x1B2B, 0x3B4B, 0x1A2A, 0x3A4A},
		}
		code.Immediates = code.Immediates[:code.ImmediateNeed()]

		m := &Machine{Seed: 0x600D5EED, Mask: 0x04C11DB7}
		m.Ip = 0x1ab
		m.Cond = cond
		m.Carry = carry
		m.Ticks = 7
		m.Register = [6]uint32{0x50607080, 0x51617181, 0x52627282, 0x53637383, 0x54647484, 0x55657585}
		if stack {
			m.Stack.Push(0xabcd1234)
		}

		pre_reg := m.Register

		pre_value := map[CodeIR]uint32{
			IR_REG_R0:         m.Register[0],
			IR_REG_R1:         m.Register[1],
			IR_REG_R2:         m.Register[2],
			IR_REG_R3:         m.Register[3],
			IR_REG_R4:         m.Register[4],
			IR_REG_R5:         m.Register[5],
			IR_IP:             m.Ip + 1, // next_ip
			IR_STACK:          0xabcd1234,
			IR_REG_SEED:       m.Seed,
			IR_REG_MASK:       m.Mask,
			IR_REG_CARRY:      0,
			IR_REG_TICKS:      uint32(m.Ticks),
			IR_CONST_0:        0,
			IR_CONST_FFFFFFFF: 0xffffffff,
		}
		if carry {
			pre_value[IR_REG_CARRY] = 1
		}

		done, key, err := m.Execute(code)

		code_str := fmt.Sprintf("0x%04x (%v) stack:%v cond:%v carry:%v\nmachine:%v",
			code.Word, code, stack, cond, carry, m.String())

		if err != nil {
			switch {
			case code.Cond() == COND_NEVER:
				// always rejected
			case errors.Is(err, ErrStackEmpty):
				if stack {
					// only a double pop can empty a one-entry stack
					assert.Equal(uint16(0x77), code.Word&0xff, code_str)
				} else {
					pops := (code.Word&0xf) == 7 || ((code.Word>>4)&0xf) == 7
					assert.True(pops, code_str)
				}
			case errors.Is(err, ErrOpcodeArg1):
				// read-only destination
				assert.Equal(uint16(0x8), (code.Word>>4)&0x8, code_str)
			case errors.Is(err, ErrOpcodeOp):
				assert.NotEqual(OP_ALU, code.Class(), code_str)
				assert.Equal(uint16(0x4), (code.Word>>8)&0x4, code_str)
			case errors.Is(err, ErrAlgorithmFail{}):
				assert.Equal(OP_CTL, code.Class(), code_str)
				op, _ := code.CtlDecode()
				assert.Equal(CTL_OP_FAIL, op, code_str)
			case errors.Is(err, ErrOpcodeArg2):
				switch code.Class() {
				case OP_BIT:
					op, _, arg := code.BitDecode()
					assert.True(op == BIT_OP_BSWAP || op == BIT_OP_NSWAP, code_str)
					assert.NotEqual(IR_CONST_0, arg, code_str)
				case OP_CTL:
					op, arg := code.CtlDecode()
					assert.Equal(CTL_OP_NOP, op, code_str)
					assert.NotEqual(IR_CONST_0, arg, code_str)
				default:
					assert.NoError(err, code_str)
				}
			default:
				assert.NoError(err, code_str)
			}
			return
		}

		assert.NotEqual(COND_NEVER, code.Cond(), code_str)
		assert.Equal(8, m.Ticks, code_str)

		skipped := (code.Cond() == COND_TRUE && !cond) ||
			(code.Cond() == COND_FALSE && cond)
		if skipped {
			assert.Equal(uint32(0x1ac), m.Ip, code_str)
			assert.Equal(pre_reg, m.Register, code_str)
			assert.Equal(cond, m.Cond, code_str)
			assert.Equal(carry, m.Carry, code_str)
			assert.False(done, code_str)
			return
		}

		imms := code.Immediates

		get_value := func(arg CodeIR, imms_in []uint16) (value uint32, imms []uint16) {
			imms = imms_in
			switch arg {
			case IR_IMMEDIATE_16:
				value = uint32(imms[0])
				imms = imms[1:]
			case IR_IMMEDIATE_32:
				value = (uint32(imms[0]) << 16) | uint32(imms[1])
				imms = imms[2:]
			default:
				value = pre_value[arg]
			}

			return
		}

		now_value := func(dst CodeIR) (output uint32) {
			switch dst {
			case IR_REG_R0, IR_REG_R1, IR_REG_R2, IR_REG_R3, IR_REG_R4, IR_REG_R5:
				output = m.Register[dst-IR_REG_R0]
			case IR_STACK:
				output, _ = m.Stack.Pop()
			case IR_IP:
				output = m.Ip
			}
			return
		}

		switch code.Class() {
		case OP_ALU:
			op, dst, arg := code.AluDecode()
			var value uint32
			value, imms = get_value(arg, imms)
			input := pre_value[dst]

			expect_carry := carry
			var expected uint32
			switch op {
			case ALU_OP_SET:
				expected = value
			case ALU_OP_XOR:
				expected = input ^ value
			case ALU_OP_AND:
				expected = input & value
			case ALU_OP_OR:
				expected = input | value
			case ALU_OP_SHL:
				count := value & 0x1f
				if count > 0 {
					expect_carry = (input>>(32-count))&1 != 0
				}
				expected = input << count
			case ALU_OP_SHR:
				count := value & 0x1f
				if count > 0 {
					expect_carry = (input>>(count-1))&1 != 0
				}
				expected = input >> count
			case ALU_OP_ADD:
				expected = input + value
			case ALU_OP_SUB:
				expected = input - value
			}

			assert.Equal(expected, now_value(dst), code_str)
			assert.Equal(expect_carry, m.Carry, code_str)
			assert.Equal(cond, m.Cond, code_str)
			if dst != IR_IP {
				assert.Equal(uint32(0x1ac), m.Ip, code_str)
			}
			assert.False(done, code_str)
		case OP_COND:
			op, a_ir, b_ir := code.CondDecode()
			var a_u, b_u uint32
			a_u, imms = get_value(a_ir, imms)
			b_u, imms = get_value(b_ir, imms)
			a := int32(a_u)
			b := int32(b_u)

			var expected bool
			switch op {
			case COND_OP_EQ:
				expected = a == b
			case COND_OP_NE:
				expected = a != b
			case COND_OP_LT:
				expected = a < b
			case COND_OP_LE:
				expected = a <= b
			}

			assert.Equal(expected, m.Cond, code_str)
			assert.Equal(pre_reg, m.Register, code_str)
			assert.Equal(carry, m.Carry, code_str)
			assert.Equal(uint32(0x1ac), m.Ip, code_str)
			assert.False(done, code_str)
		case OP_BIT:
			op, dst, arg := code.BitDecode()
			var value uint32
			value, imms = get_value(arg, imms)
			input := pre_value[dst]

			var expected uint32
			switch op {
			case BIT_OP_ROL:
				expected = bits.RotateLeft32(input, int(value&0x1f))
			case BIT_OP_ROR:
				expected = bits.RotateLeft32(input, -int(value&0x1f))
			case BIT_OP_BSWAP:
				expected = bits.ReverseBytes32(input)
			case BIT_OP_NSWAP:
				expected = ((input & 0x0f0f0f0f) << 4) | ((input & 0xf0f0f0f0) >> 4)
			}

			assert.Equal(expected, now_value(dst), code_str)
			assert.Equal(cond, m.Cond, code_str)
			assert.Equal(carry, m.Carry, code_str)
			if dst != IR_IP {
				assert.Equal(uint32(0x1ac), m.Ip, code_str)
			}
			assert.False(done, code_str)
		case OP_CTL:
			op, arg := code.CtlDecode()
			var value uint32
			value, imms = get_value(arg, imms)

			switch op {
			case CTL_OP_DONE:
				assert.True(done, code_str)
				assert.Equal(value, key, code_str)
			default:
				assert.False(done, code_str)
				assert.Equal(uint32(0), key, code_str)
			}
			assert.Equal(pre_reg, m.Register, code_str)
			assert.Equal(cond, m.Cond, code_str)
			assert.Equal(carry, m.Carry, code_str)
			assert.Equal(uint32(0x1ac), m.Ip, code_str)
		}

		assert.Equal(0, len(imms), code_str)
	})
}
