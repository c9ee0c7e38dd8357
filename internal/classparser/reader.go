package classparser

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode"
	"unicode/utf16"
)

// Constant pool tags
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// FormatError reports malformed class file content
type FormatError struct {
	Offset  int
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("class file: %s at offset %d", e.Message, e.Offset)
}

// reader is a bounds-checked big-endian cursor over class file bytes.
// The first failure sticks; later reads return zero values.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = &FormatError{Offset: r.pos, Message: fmt.Sprintf(format, args...)}
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail("unexpected end of data (need %d bytes)", n)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// constant is one decoded constant pool entry
type constant struct {
	tag   uint8
	str   string // Utf8
	value interface{}
	ref1  uint16 // Class/String/MethodType name index, NameAndType name, ...
	ref2  uint16
}

type constantPool []constant

func readConstantPool(r *reader) constantPool {
	count := int(r.u2())
	pool := make(constantPool, count)
	for i := 1; i < count && r.err == nil; i++ {
		c := constant{tag: r.u1()}
		switch c.tag {
		case tagUtf8:
			n := int(r.u2())
			c.str = decodeModifiedUTF8(r.bytes(n))
		case tagInteger:
			c.value = int32(r.u4())
		case tagFloat:
			c.value = math.Float32frombits(r.u4())
		case tagLong:
			hi, lo := r.u4(), r.u4()
			c.value = int64(uint64(hi)<<32 | uint64(lo))
		case tagDouble:
			hi, lo := r.u4(), r.u4()
			c.value = math.Float64frombits(uint64(hi)<<32 | uint64(lo))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.ref1 = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			c.ref1, c.ref2 = r.u2(), r.u2()
		case tagMethodHandle:
			r.u1()
			c.ref1 = r.u2()
		default:
			r.fail("unknown constant pool tag %d at index %d", c.tag, i)
		}
		pool[i] = c
		if c.tag == tagLong || c.tag == tagDouble {
			// 8-byte constants take two slots
			i++
		}
	}
	return pool
}

func (p constantPool) entry(r *reader, index uint16, tag uint8) *constant {
	if int(index) <= 0 || int(index) >= len(p) {
		r.fail("constant pool index %d out of range", index)
		return nil
	}
	c := &p[index]
	if c.tag != tag {
		r.fail("constant pool index %d: expected tag %d, found %d", index, tag, c.tag)
		return nil
	}
	return c
}

func (p constantPool) utf8(r *reader, index uint16) string {
	if c := p.entry(r, index, tagUtf8); c != nil {
		return c.str
	}
	return ""
}

// optionalUtf8 resolves an index that may legally be zero
func (p constantPool) optionalUtf8(r *reader, index uint16) string {
	if index == 0 {
		return ""
	}
	return p.utf8(r, index)
}

func (p constantPool) className(r *reader, index uint16) string {
	if c := p.entry(r, index, tagClass); c != nil {
		return p.utf8(r, c.ref1)
	}
	return ""
}

// constValue resolves an Integer/Float/Long/Double/String/Utf8 entry
func (p constantPool) constValue(r *reader, index uint16) interface{} {
	if int(index) <= 0 || int(index) >= len(p) {
		r.fail("constant pool index %d out of range", index)
		return nil
	}
	c := &p[index]
	switch c.tag {
	case tagUtf8:
		return c.str
	case tagString:
		return p.utf8(r, c.ref1)
	case tagInteger, tagFloat, tagLong, tagDouble:
		return c.value
	}
	r.fail("constant pool index %d is not a constant value (tag %d)", index, c.tag)
	return nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded as
// 0xC0 0x80 and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, uint16(unicode.ReplacementChar))
			i++
		}
	}
	return string(utf16.Decode(units))
}
