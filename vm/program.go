package vm

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"hash/crc32"
	"io"
	"iter"
)

// Container layout, big-endian:
//
//	[0:4]   magic "SKA" + format version '1'
//	[4]     name length
//	[5:..]  name
//	        code count (uint16)
//	        per code: word (uint16), immediate count (uint8),
//	                  immediates (uint16 each)
//	[-4:]   CRC-32 (IEEE) of everything before the trailer
const containerMagic = "SKA1"

type Program struct {
	Name    string
	Opcodes []Opcode
}

var _ encoding.BinaryMarshaler = (*Program)(nil)
var _ encoding.BinaryUnmarshaler = (*Program)(nil)

type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if ip >= uint16(op.Ip) && ip < uint16(op.Ip)+uint16(len(op.Codes)) {
			index := int(ip - uint16(op.Ip))
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  index,
			}
			break
		}
	}

	return
}

// Len returns the number of instruction codes in the program.
func (prog *Program) Len() (count int) {
	for _, op := range prog.Opcodes {
		count += len(op.Codes)
	}

	return
}

// Codes iterates over every (ip, code) pair of the program in
// execution order.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(ip uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			ip := uint16(op.Ip)
			for n, code := range op.Codes {
				if !yield(ip+uint16(n), code) {
					return
				}
			}
		}
	}
}

// MarshalBinary packs the program into its container format.
func (prog *Program) MarshalBinary() (data []byte, err error) {
	count := prog.Len()
	if count > 0xffff {
		err = ErrIpRange
		return
	}

	name := prog.Name
	if len(name) > 255 {
		err = ErrContainerName
		return
	}

	var buf bytes.Buffer
	buf.WriteString(containerMagic)
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)

	binary.Write(&buf, binary.BigEndian, uint16(count))
	for _, code := range prog.Codes() {
		binary.Write(&buf, binary.BigEndian, code.Word)
		buf.WriteByte(byte(len(code.Immediates)))
		for _, imm := range code.Immediates {
			binary.Write(&buf, binary.BigEndian, imm)
		}
	}

	sum := crc32.ChecksumIEEE(buf.Bytes())
	binary.Write(&buf, binary.BigEndian, sum)

	data = buf.Bytes()

	return
}

// UnmarshalBinary unpacks a container into the program. The listing
// information of the original source is not carried by the container;
// each code unpacks as its own listing entry.
func (prog *Program) UnmarshalBinary(data []byte) (err error) {
	if len(data) < len(containerMagic)+1+2+4 {
		err = ErrContainerTruncated
		return
	}

	sum := binary.BigEndian.Uint32(data[len(data)-4:])
	body := data[:len(data)-4]
	if crc32.ChecksumIEEE(body) != sum {
		err = ErrContainerChecksum
		return
	}

	if string(body[:3]) != containerMagic[:3] {
		err = ErrContainerMagic
		return
	}
	if body[3] != containerMagic[3] {
		err = ErrContainerVersion
		return
	}

	r := bytes.NewReader(body[4:])

	nameLen, err := r.ReadByte()
	if err != nil {
		err = ErrContainerTruncated
		return
	}
	name := make([]byte, int(nameLen))
	_, err = io.ReadFull(r, name)
	if err != nil {
		err = ErrContainerTruncated
		return
	}

	var count uint16
	err = binary.Read(r, binary.BigEndian, &count)
	if err != nil {
		err = ErrContainerTruncated
		return
	}

	opcodes := make([]Opcode, 0, int(count))
	for n := range int(count) {
		var word uint16
		err = binary.Read(r, binary.BigEndian, &word)
		if err != nil {
			err = ErrContainerTruncated
			return
		}
		immCount, _err := r.ReadByte()
		if _err != nil {
			err = ErrContainerTruncated
			return
		}
		var imms []uint16
		for range int(immCount) {
			var imm uint16
			err = binary.Read(r, binary.BigEndian, &imm)
			if err != nil {
				err = ErrContainerTruncated
				return
			}
			imms = append(imms, imm)
		}
		code := Code{Word: word, Immediates: imms}
		if code.ImmediateNeed() != int(immCount) {
			err = ErrOpcodeImm
			return
		}
		opcodes = append(opcodes, Opcode{Ip: n, Codes: []Code{code}})
	}

	if r.Len() != 0 {
		err = ErrContainerTruncated
		return
	}

	prog.Name = string(name)
	prog.Opcodes = opcodes

	return
}
