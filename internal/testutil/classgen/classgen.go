// Package classgen writes minimal JVM class files for tests. It emits only
// the structures route analysis reads: the constant pool, methods with a
// trivial Code attribute, local-variable tables, parameter names, signatures
// and annotations.
package classgen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
)

const (
	accPublic   = 0x0001
	accStatic   = 0x0008
	accSuper    = 0x0020
	accAbstract = 0x0400

	opReturn = 0xB1
)

// Enum is an enum constant element value
type Enum struct {
	Type string // dotted enum class name
	Name string
}

// Class is a class literal element value
type Class struct {
	Type string // dotted class name
}

// Annotation describes an annotation to attach to a class, method or parameter.
// Values may hold string, int, int64, bool, Enum, Class, Annotation, []string
// or []interface{} of those.
type Annotation struct {
	Type   string // dotted annotation class name
	Values map[string]interface{}
}

// Ann builds an annotation from alternating name/value pairs
func Ann(typeName string, pairs ...interface{}) Annotation {
	a := Annotation{Type: typeName, Values: map[string]interface{}{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		a.Values[pairs[i].(string)] = pairs[i+1]
	}
	return a
}

// ClassBuilder accumulates the definition of one class file
type ClassBuilder struct {
	name       string
	super      string
	access     uint16
	signature  string
	visible    []Annotation
	invisible  []Annotation
	interfaces []string
	methods    []*MethodBuilder
}

// New starts a public class extending java.lang.Object
func New(name string) *ClassBuilder {
	return &ClassBuilder{
		name:   name,
		super:  "java.lang.Object",
		access: accPublic | accSuper,
	}
}

// Super sets the superclass
func (c *ClassBuilder) Super(name string) *ClassBuilder {
	c.super = name
	return c
}

// Implements adds an interface
func (c *ClassBuilder) Implements(name string) *ClassBuilder {
	c.interfaces = append(c.interfaces, name)
	return c
}

// Signature sets the generic class signature
func (c *ClassBuilder) Signature(sig string) *ClassBuilder {
	c.signature = sig
	return c
}

// Annotate adds runtime-visible class annotations
func (c *ClassBuilder) Annotate(anns ...Annotation) *ClassBuilder {
	c.visible = append(c.visible, anns...)
	return c
}

// AnnotateInvisible adds class-retained class annotations
func (c *ClassBuilder) AnnotateInvisible(anns ...Annotation) *ClassBuilder {
	c.invisible = append(c.invisible, anns...)
	return c
}

// Method adds a public instance method and returns its builder
func (c *ClassBuilder) Method(name, desc string) *MethodBuilder {
	m := &MethodBuilder{
		name:   name,
		desc:   desc,
		access: accPublic,
	}
	c.methods = append(c.methods, m)
	return m
}

// InternalName returns the slashed class name
func (c *ClassBuilder) InternalName() string {
	return internal(c.name)
}

type arg struct {
	name      string
	desc      string
	signature string
	localName string
	visible   []Annotation
	invisible []Annotation
	skipLocal bool
}

// ArgOption customizes a formal parameter
type ArgOption func(*arg)

// WithSignature sets the generic signature recorded in the local-variable type table
func WithSignature(sig string) ArgOption {
	return func(a *arg) { a.signature = sig }
}

// WithAnnotations attaches runtime-visible parameter annotations
func WithAnnotations(anns ...Annotation) ArgOption {
	return func(a *arg) { a.visible = append(a.visible, anns...) }
}

// WithInvisible attaches class-retained parameter annotations
func WithInvisible(anns ...Annotation) ArgOption {
	return func(a *arg) { a.invisible = append(a.invisible, anns...) }
}

// LocalName records the parameter under a different local-variable name
func LocalName(name string) ArgOption {
	return func(a *arg) { a.localName = name }
}

// SkipLocal omits the parameter from the local-variable table
func SkipLocal() ArgOption {
	return func(a *arg) { a.skipLocal = true }
}

type local struct {
	name      string
	desc      string
	signature string
}

// MethodBuilder accumulates the definition of one method
type MethodBuilder struct {
	name         string
	desc         string
	access       uint16
	signature    string
	visible      []Annotation
	invisible    []Annotation
	args         []arg
	locals       []local
	noParameters bool
	noLocals     bool
}

// Annotate adds runtime-visible method annotations
func (m *MethodBuilder) Annotate(anns ...Annotation) *MethodBuilder {
	m.visible = append(m.visible, anns...)
	return m
}

// AnnotateInvisible adds class-retained method annotations
func (m *MethodBuilder) AnnotateInvisible(anns ...Annotation) *MethodBuilder {
	m.invisible = append(m.invisible, anns...)
	return m
}

// Signature sets the generic method signature
func (m *MethodBuilder) Signature(sig string) *MethodBuilder {
	m.signature = sig
	return m
}

// Arg declares the next formal parameter. desc must agree with the method descriptor.
func (m *MethodBuilder) Arg(name, desc string, opts ...ArgOption) *MethodBuilder {
	a := arg{name: name, desc: desc}
	for _, opt := range opts {
		opt(&a)
	}
	m.args = append(m.args, a)
	return m
}

// Local adds a non-parameter local variable after the parameters
func (m *MethodBuilder) Local(name, desc, signature string) *MethodBuilder {
	m.locals = append(m.locals, local{name: name, desc: desc, signature: signature})
	return m
}

// Static marks the method static (no "this" slot)
func (m *MethodBuilder) Static() *MethodBuilder {
	m.access |= accStatic
	return m
}

// Abstract marks the method abstract (no Code attribute)
func (m *MethodBuilder) Abstract() *MethodBuilder {
	m.access |= accAbstract
	return m
}

// NoParameters omits the MethodParameters attribute
func (m *MethodBuilder) NoParameters() *MethodBuilder {
	m.noParameters = true
	return m
}

// NoLocals omits the local-variable tables
func (m *MethodBuilder) NoLocals() *MethodBuilder {
	m.noLocals = true
	return m
}

// Bytes serializes the class file
func (c *ClassBuilder) Bytes() []byte {
	p := newPool()
	body := &bytes.Buffer{}

	u2(body, c.access)
	u2(body, p.class(c.name))
	if c.super == "" {
		u2(body, 0)
	} else {
		u2(body, p.class(c.super))
	}
	u2(body, uint16(len(c.interfaces)))
	for _, iface := range c.interfaces {
		u2(body, p.class(iface))
	}
	u2(body, 0) // fields

	u2(body, uint16(len(c.methods)))
	for _, m := range c.methods {
		m.write(body, p)
	}

	var attrs []attribute
	if c.signature != "" {
		attrs = append(attrs, p.signature(c.signature))
	}
	attrs = appendAnnotations(attrs, p, c.visible, c.invisible)
	writeAttributes(body, p, attrs)

	out := &bytes.Buffer{}
	u4(out, 0xCAFEBABE)
	u2(out, 0)  // minor
	u2(out, 52) // major: Java 8
	p.write(out)
	out.Write(body.Bytes())
	return out.Bytes()
}

func (m *MethodBuilder) write(w *bytes.Buffer, p *pool) {
	u2(w, m.access)
	u2(w, p.utf8(m.name))
	u2(w, p.utf8(m.desc))

	var attrs []attribute
	if m.access&accAbstract == 0 {
		attrs = append(attrs, m.code(p))
	}
	if m.signature != "" {
		attrs = append(attrs, p.signature(m.signature))
	}
	if !m.noParameters && len(m.args) > 0 {
		buf := &bytes.Buffer{}
		buf.WriteByte(byte(len(m.args)))
		for _, a := range m.args {
			u2(buf, p.utf8(a.name))
			u2(buf, 0)
		}
		attrs = append(attrs, attribute{name: "MethodParameters", data: buf.Bytes()})
	}
	attrs = appendAnnotations(attrs, p, m.visible, m.invisible)

	var visible, invisible [][]Annotation
	hasVisible, hasInvisible := false, false
	for _, a := range m.args {
		visible = append(visible, a.visible)
		invisible = append(invisible, a.invisible)
		hasVisible = hasVisible || len(a.visible) > 0
		hasInvisible = hasInvisible || len(a.invisible) > 0
	}
	if hasVisible {
		attrs = append(attrs, attribute{name: "RuntimeVisibleParameterAnnotations", data: parameterAnnotations(p, visible)})
	}
	if hasInvisible {
		attrs = append(attrs, attribute{name: "RuntimeInvisibleParameterAnnotations", data: parameterAnnotations(p, invisible)})
	}
	writeAttributes(w, p, attrs)
}

func (m *MethodBuilder) code(p *pool) attribute {
	type entry struct {
		name, desc, signature string
		slot                  int
	}
	var entries []entry
	slot := 0
	if m.access&accStatic == 0 {
		entries = append(entries, entry{name: "this", desc: "Ljava/lang/Object;", slot: 0})
		slot = 1
	}
	for _, a := range m.args {
		name := a.name
		if a.localName != "" {
			name = a.localName
		}
		if !a.skipLocal {
			entries = append(entries, entry{name: name, desc: a.desc, signature: a.signature, slot: slot})
		}
		slot += width(a.desc)
	}
	for _, l := range m.locals {
		entries = append(entries, entry{name: l.name, desc: l.desc, signature: l.signature, slot: slot})
		slot += width(l.desc)
	}

	var attrs []attribute
	if !m.noLocals {
		table := &bytes.Buffer{}
		types := &bytes.Buffer{}
		typeCount := 0
		u2(table, uint16(len(entries)))
		for _, e := range entries {
			u2(table, 0) // start_pc
			u2(table, 1) // length
			u2(table, p.utf8(e.name))
			u2(table, p.utf8(e.desc))
			u2(table, uint16(e.slot))
			if e.signature != "" {
				typeCount++
				u2(types, 0)
				u2(types, 1)
				u2(types, p.utf8(e.name))
				u2(types, p.utf8(e.signature))
				u2(types, uint16(e.slot))
			}
		}
		attrs = append(attrs, attribute{name: "LocalVariableTable", data: table.Bytes()})
		if typeCount > 0 {
			data := &bytes.Buffer{}
			u2(data, uint16(typeCount))
			data.Write(types.Bytes())
			attrs = append(attrs, attribute{name: "LocalVariableTypeTable", data: data.Bytes()})
		}
	}

	buf := &bytes.Buffer{}
	u2(buf, 1)            // max_stack
	u2(buf, uint16(slot)) // max_locals
	u4(buf, 1)
	buf.WriteByte(opReturn)
	u2(buf, 0) // exception table
	writeAttributes(buf, p, attrs)
	return attribute{name: "Code", data: buf.Bytes()}
}

func width(desc string) int {
	if desc == "J" || desc == "D" {
		return 2
	}
	return 1
}

type attribute struct {
	name string
	data []byte
}

func writeAttributes(w *bytes.Buffer, p *pool, attrs []attribute) {
	u2(w, uint16(len(attrs)))
	for _, a := range attrs {
		u2(w, p.utf8(a.name))
		u4(w, uint32(len(a.data)))
		w.Write(a.data)
	}
}

func appendAnnotations(attrs []attribute, p *pool, visible, invisible []Annotation) []attribute {
	if len(visible) > 0 {
		attrs = append(attrs, attribute{name: "RuntimeVisibleAnnotations", data: annotations(p, visible)})
	}
	if len(invisible) > 0 {
		attrs = append(attrs, attribute{name: "RuntimeInvisibleAnnotations", data: annotations(p, invisible)})
	}
	return attrs
}

func parameterAnnotations(p *pool, table [][]Annotation) []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte(byte(len(table)))
	for _, anns := range table {
		buf.Write(annotations(p, anns))
	}
	return buf.Bytes()
}

func annotations(p *pool, anns []Annotation) []byte {
	buf := &bytes.Buffer{}
	u2(buf, uint16(len(anns)))
	for _, a := range anns {
		writeAnnotation(buf, p, a)
	}
	return buf.Bytes()
}

func writeAnnotation(w *bytes.Buffer, p *pool, a Annotation) {
	u2(w, p.utf8(descriptor(a.Type)))
	names := make([]string, 0, len(a.Values))
	for name := range a.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	u2(w, uint16(len(names)))
	for _, name := range names {
		u2(w, p.utf8(name))
		writeElementValue(w, p, a.Values[name])
	}
}

func writeElementValue(w *bytes.Buffer, p *pool, v interface{}) {
	switch v := v.(type) {
	case string:
		w.WriteByte('s')
		u2(w, p.utf8(v))
	case int:
		w.WriteByte('I')
		u2(w, p.integer(int32(v)))
	case int64:
		w.WriteByte('J')
		u2(w, p.long(v))
	case bool:
		w.WriteByte('Z')
		i := int32(0)
		if v {
			i = 1
		}
		u2(w, p.integer(i))
	case Enum:
		w.WriteByte('e')
		u2(w, p.utf8(descriptor(v.Type)))
		u2(w, p.utf8(v.Name))
	case Class:
		w.WriteByte('c')
		u2(w, p.utf8(descriptor(v.Type)))
	case Annotation:
		w.WriteByte('@')
		writeAnnotation(w, p, v)
	case []string:
		w.WriteByte('[')
		u2(w, uint16(len(v)))
		for _, s := range v {
			writeElementValue(w, p, s)
		}
	case []interface{}:
		w.WriteByte('[')
		u2(w, uint16(len(v)))
		for _, e := range v {
			writeElementValue(w, p, e)
		}
	default:
		panic(fmt.Sprintf("classgen: unsupported element value %T", v))
	}
}

type pool struct {
	buf     bytes.Buffer
	next    uint16
	entries map[string]uint16
}

func newPool() *pool {
	return &pool{next: 1, entries: map[string]uint16{}}
}

func (p *pool) add(key string, slots uint16, write func(*bytes.Buffer)) uint16 {
	if i, ok := p.entries[key]; ok {
		return i
	}
	i := p.next
	write(&p.buf)
	p.entries[key] = i
	p.next += slots
	return i
}

func (p *pool) utf8(s string) uint16 {
	return p.add("U"+s, 1, func(b *bytes.Buffer) {
		encoded := modifiedUTF8(s)
		b.WriteByte(1)
		u2(b, uint16(len(encoded)))
		b.Write(encoded)
	})
}

func (p *pool) class(name string) uint16 {
	nameIndex := p.utf8(internal(name))
	return p.add("C"+name, 1, func(b *bytes.Buffer) {
		b.WriteByte(7)
		u2(b, nameIndex)
	})
}

func (p *pool) integer(v int32) uint16 {
	return p.add(fmt.Sprintf("I%d", v), 1, func(b *bytes.Buffer) {
		b.WriteByte(3)
		u4(b, uint32(v))
	})
}

func (p *pool) long(v int64) uint16 {
	return p.add(fmt.Sprintf("J%d", v), 2, func(b *bytes.Buffer) {
		b.WriteByte(5)
		u4(b, uint32(uint64(v)>>32))
		u4(b, uint32(v))
	})
}

func (p *pool) signature(sig string) attribute {
	buf := &bytes.Buffer{}
	u2(buf, p.utf8(sig))
	return attribute{name: "Signature", data: buf.Bytes()}
}

func (p *pool) write(w *bytes.Buffer) {
	u2(w, p.next)
	w.Write(p.buf.Bytes())
}

func modifiedUTF8(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
		}
	}
	return out
}

func internal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func descriptor(typeName string) string {
	return "L" + internal(typeName) + ";"
}

func u2(w *bytes.Buffer, v uint16) {
	_ = binary.Write(w, binary.BigEndian, v)
}

func u4(w *bytes.Buffer, v uint32) {
	_ = binary.Write(w, binary.BigEndian, v)
}
