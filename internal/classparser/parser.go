package classparser

import (
	"strconv"
	"strings"

	"route-recon/internal/logger"
)

const classMagic = 0xCAFEBABE

// Access flags used by the analysis
const (
	AccPublic    = 0x0001
	AccStatic    = 0x0008
	AccSynthetic = 0x1000
	AccBridge    = 0x0040
	AccAbstract  = 0x0400
	AccEnum      = 0x4000
)

// Annotation represents a compiled annotation with its element values
type Annotation struct {
	Desc       string                 // e.g., "Lio/jooby/annotations/GET;"
	Attributes map[string]interface{} // e.g., {"value": []interface{}{"/users"}}
}

// EnumValue is an enum constant used as an annotation element value
type EnumValue struct {
	Desc string // e.g., "Ljavax/ws/rs/core/MediaType;"
	Name string // e.g., "APPLICATION_JSON"
}

// ClassValue is a class literal used as an annotation element value
type ClassValue struct {
	Desc string // e.g., "Ljava/lang/String;"
}

// Param represents a formal method parameter
type Param struct {
	Name                 string       // declared name (from MethodParameters or the local-variable table)
	Annotations          []Annotation // runtime-visible parameter annotations
	InvisibleAnnotations []Annotation // class-retained parameter annotations
}

// LocalVariable represents a local-variable table entry
type LocalVariable struct {
	Name      string // e.g., "id"
	Desc      string // e.g., "Ljava/lang/String;"
	Signature string // generic signature, "" when not generic
	Index     int    // local slot
	StartPC   int
}

// Method represents a compiled Java method
type Method struct {
	Name                 string          // e.g., "getUser"
	Desc                 string          // e.g., "(Ljava/lang/String;)Lcom/example/User;"
	Signature            string          // generic signature, "" when absent
	Access               int             // access flags
	Params               []Param         // formal parameters in declaration order
	LocalVariables       []LocalVariable // debug local-variable table
	Annotations          []Annotation    // runtime-visible method annotations
	InvisibleAnnotations []Annotation    // class-retained method annotations
	HasCode              bool            // false for abstract/native methods

	// HasInvisibleParameterAnnotations is set when the compiler emitted a
	// class-retained parameter annotation table (Kotlin always does)
	HasInvisibleParameterAnnotations bool
}

// JavaClass represents a parsed class file
type JavaClass struct {
	Name                 string       // internal name, e.g., "com/example/UserController"
	SuperName            string       // internal name of the superclass, "" for java/lang/Object
	Interfaces           []string     // internal names of implemented interfaces
	Signature            string       // generic class signature
	Access               int          // access flags
	Annotations          []Annotation // runtime-visible class annotations
	InvisibleAnnotations []Annotation // class-retained class annotations
	Methods              []*Method    // declared methods in class file order
}

// ClassName returns the dotted form of the class name
func (jc *JavaClass) ClassName() string {
	return strings.ReplaceAll(jc.Name, "/", ".")
}

// IsEnum reports whether the class file declares an enum
func (jc *JavaClass) IsEnum() bool {
	return jc.Access&AccEnum != 0
}

// IsStatic reports whether the method is static
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// IsSynthetic reports whether the method was generated by the compiler
func (m *Method) IsSynthetic() bool {
	return m.Access&(AccSynthetic|AccBridge) != 0
}

// TypeName returns the dotted class name of the annotation type
func (a Annotation) TypeName() string {
	return DescriptorToClassName(a.Desc)
}

// DescriptorToClassName converts "Lcom/example/Foo;" to "com.example.Foo".
// Non-object descriptors are returned unchanged.
func DescriptorToClassName(desc string) string {
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		return strings.ReplaceAll(desc[1:len(desc)-1], "/", ".")
	}
	return desc
}

// ClassNameToDescriptor converts "com.example.Foo" (or "com/example/Foo") to "Lcom/example/Foo;"
func ClassNameToDescriptor(name string) string {
	return "L" + InternalName(name) + ";"
}

// InternalName converts a dotted class name to its internal (slashed) form
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// ParseClassFile parses compiled class bytes and extracts the metadata the
// route analysis needs. Instructions are skipped; only attributes are decoded.
func ParseClassFile(data []byte) (*JavaClass, error) {
	r := &reader{data: data}

	if magic := r.u4(); r.err == nil && magic != classMagic {
		r.fail("bad magic 0x%08X", magic)
	}
	r.u2() // minor
	r.u2() // major

	pool := readConstantPool(r)
	if r.err != nil {
		return nil, r.err
	}

	jc := &JavaClass{
		Methods:    []*Method{},
		Interfaces: []string{},
	}
	jc.Access = int(r.u2())
	jc.Name = pool.className(r, r.u2())
	if superIndex := r.u2(); superIndex != 0 {
		jc.SuperName = pool.className(r, superIndex)
	}

	interfaces := int(r.u2())
	for i := 0; i < interfaces && r.err == nil; i++ {
		jc.Interfaces = append(jc.Interfaces, pool.className(r, r.u2()))
	}

	// Fields carry nothing the route analysis uses
	fields := int(r.u2())
	for i := 0; i < fields && r.err == nil; i++ {
		r.skip(6)
		skipAttributes(r)
	}

	methods := int(r.u2())
	for i := 0; i < methods && r.err == nil; i++ {
		jc.Methods = append(jc.Methods, readMethod(r, pool))
	}

	attributes := int(r.u2())
	for i := 0; i < attributes && r.err == nil; i++ {
		name := pool.utf8(r, r.u2())
		length := int(r.u4())
		end := r.pos + length
		switch name {
		case "Signature":
			jc.Signature = pool.utf8(r, r.u2())
		case "RuntimeVisibleAnnotations":
			jc.Annotations = readAnnotations(r, pool)
		case "RuntimeInvisibleAnnotations":
			jc.InvisibleAnnotations = readAnnotations(r, pool)
		}
		seek(r, end)
	}

	if r.err != nil {
		return nil, r.err
	}

	logger.Debug("[CLASS] Parsed %s: %d methods", jc.ClassName(), len(jc.Methods))
	return jc, nil
}

func readMethod(r *reader, pool constantPool) *Method {
	m := &Method{
		Access: int(r.u2()),
	}
	m.Name = pool.utf8(r, r.u2())
	m.Desc = pool.utf8(r, r.u2())

	var (
		paramNames     []string
		hasParamNames  bool
		visibleParams  [][]Annotation
		invisibleParam [][]Annotation
		typeSignatures []LocalVariable
	)

	attributes := int(r.u2())
	for i := 0; i < attributes && r.err == nil; i++ {
		name := pool.utf8(r, r.u2())
		length := int(r.u4())
		end := r.pos + length
		switch name {
		case "Code":
			m.HasCode = true
			var types []LocalVariable
			m.LocalVariables, types = readCode(r, pool)
			typeSignatures = append(typeSignatures, types...)
		case "Signature":
			m.Signature = pool.utf8(r, r.u2())
		case "MethodParameters":
			hasParamNames = true
			count := int(r.u1())
			for j := 0; j < count && r.err == nil; j++ {
				paramNames = append(paramNames, pool.optionalUtf8(r, r.u2()))
				r.u2() // access flags
			}
		case "RuntimeVisibleAnnotations":
			m.Annotations = readAnnotations(r, pool)
		case "RuntimeInvisibleAnnotations":
			m.InvisibleAnnotations = readAnnotations(r, pool)
		case "RuntimeVisibleParameterAnnotations":
			visibleParams = readParameterAnnotations(r, pool)
		case "RuntimeInvisibleParameterAnnotations":
			m.HasInvisibleParameterAnnotations = true
			invisibleParam = readParameterAnnotations(r, pool)
		}
		seek(r, end)
	}

	mergeTypeSignatures(m.LocalVariables, typeSignatures)

	count := countParameters(m.Desc)
	if count < 0 {
		r.fail("malformed method descriptor %q", m.Desc)
		return m
	}
	m.Params = make([]Param, count)
	for i := range m.Params {
		switch {
		case hasParamNames && i < len(paramNames) && paramNames[i] != "":
			m.Params[i].Name = paramNames[i]
		default:
			m.Params[i].Name = m.localNameForParameter(i)
		}
		m.Params[i].Annotations = parameterAnnotations(visibleParams, count, i, m.Name == constructorName)
		m.Params[i].InvisibleAnnotations = parameterAnnotations(invisibleParam, count, i, m.Name == constructorName)
	}
	return m
}

// constructorName is the method name of instance initializers
const constructorName = "<init>"

// parameterAnnotations aligns a parameter annotation table with the formal
// parameters. Method tables are indexed from the first parameter, so a
// trailing parameter left out of the table gets no annotations. javac omits
// leading synthetic constructor parameters, so a shorter constructor table is
// aligned to the end of the parameter list.
func parameterAnnotations(table [][]Annotation, count, i int, ctor bool) []Annotation {
	if len(table) == 0 {
		return nil
	}
	j := i
	if ctor && count > len(table) {
		j = i - (count - len(table))
	}
	if j < 0 || j >= len(table) {
		return nil
	}
	return table[j]
}

// localNameForParameter recovers a parameter name from the local-variable
// table when the MethodParameters attribute is missing. Parameters occupy the
// first slots after "this"; long and double take two slots each.
func (m *Method) localNameForParameter(i int) string {
	slot := 0
	if !m.IsStatic() {
		slot = 1
	}
	for j, width := range parameterSlotWidths(m.Desc) {
		if j == i {
			break
		}
		slot += width
	}
	for _, lv := range m.LocalVariables {
		if lv.Index == slot && lv.StartPC == 0 {
			return lv.Name
		}
	}
	return "arg" + strconv.Itoa(i)
}

func readCode(r *reader, pool constantPool) (locals []LocalVariable, types []LocalVariable) {
	r.skip(4) // max_stack, max_locals
	codeLength := int(r.u4())
	r.skip(codeLength)
	exceptions := int(r.u2())
	r.skip(exceptions * 8)

	attributes := int(r.u2())
	for i := 0; i < attributes && r.err == nil; i++ {
		name := pool.utf8(r, r.u2())
		length := int(r.u4())
		end := r.pos + length
		switch name {
		case "LocalVariableTable":
			locals = append(locals, readLocalVariables(r, pool)...)
		case "LocalVariableTypeTable":
			types = append(types, readLocalVariables(r, pool)...)
		}
		seek(r, end)
	}
	return locals, types
}

// readLocalVariables reads LocalVariableTable and LocalVariableTypeTable
// entries; both share a layout, the latter storing a signature in Desc.
func readLocalVariables(r *reader, pool constantPool) []LocalVariable {
	count := int(r.u2())
	vars := make([]LocalVariable, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		lv := LocalVariable{StartPC: int(r.u2())}
		r.u2() // length
		lv.Name = pool.utf8(r, r.u2())
		lv.Desc = pool.utf8(r, r.u2())
		lv.Index = int(r.u2())
		vars = append(vars, lv)
	}
	return vars
}

func mergeTypeSignatures(locals []LocalVariable, types []LocalVariable) {
	for _, t := range types {
		for i := range locals {
			if locals[i].Index == t.Index && locals[i].StartPC == t.StartPC && locals[i].Name == t.Name {
				locals[i].Signature = t.Desc
			}
		}
	}
}

func readParameterAnnotations(r *reader, pool constantPool) [][]Annotation {
	count := int(r.u1())
	table := make([][]Annotation, count)
	for i := 0; i < count && r.err == nil; i++ {
		table[i] = readAnnotations(r, pool)
	}
	return table
}

func readAnnotations(r *reader, pool constantPool) []Annotation {
	count := int(r.u2())
	annotations := make([]Annotation, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		annotations = append(annotations, readAnnotation(r, pool))
	}
	return annotations
}

func readAnnotation(r *reader, pool constantPool) Annotation {
	a := Annotation{
		Desc:       pool.utf8(r, r.u2()),
		Attributes: make(map[string]interface{}),
	}
	pairs := int(r.u2())
	for i := 0; i < pairs && r.err == nil; i++ {
		name := pool.utf8(r, r.u2())
		a.Attributes[name] = readElementValue(r, pool)
	}
	return a
}

func readElementValue(r *reader, pool constantPool) interface{} {
	tag := r.u1()
	switch tag {
	case 'B', 'C', 'I', 'S':
		v, _ := pool.constValue(r, r.u2()).(int32)
		if tag == 'C' {
			return string(rune(v))
		}
		return int64(v)
	case 'Z':
		v, _ := pool.constValue(r, r.u2()).(int32)
		return v != 0
	case 'J':
		v, _ := pool.constValue(r, r.u2()).(int64)
		return v
	case 'F':
		v, _ := pool.constValue(r, r.u2()).(float32)
		return float64(v)
	case 'D':
		v, _ := pool.constValue(r, r.u2()).(float64)
		return v
	case 's':
		return pool.utf8(r, r.u2())
	case 'e':
		desc := pool.utf8(r, r.u2())
		return EnumValue{Desc: desc, Name: pool.utf8(r, r.u2())}
	case 'c':
		return ClassValue{Desc: pool.utf8(r, r.u2())}
	case '@':
		nested := readAnnotation(r, pool)
		return &nested
	case '[':
		count := int(r.u2())
		values := make([]interface{}, 0, count)
		for i := 0; i < count && r.err == nil; i++ {
			values = append(values, readElementValue(r, pool))
		}
		return values
	}
	r.fail("unknown element value tag %q", tag)
	return nil
}

func skipAttributes(r *reader) {
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		r.u2()
		r.skip(int(r.u4()))
	}
}

// seek moves to the declared end of an attribute so unread trailing bytes
// of known attributes do not desynchronize the cursor.
func seek(r *reader, end int) {
	if r.err != nil {
		return
	}
	if end < r.pos || end > len(r.data) {
		r.fail("attribute overruns its declared length")
		return
	}
	r.pos = end
}

// countParameters counts the formal parameters of a method descriptor,
// returning -1 for a malformed descriptor.
func countParameters(desc string) int {
	widths := parameterSlotWidths(desc)
	if widths == nil && !strings.HasPrefix(desc, "()") {
		return -1
	}
	return len(widths)
}

// parameterSlotWidths returns the local slot width of each parameter in a
// method descriptor, or nil when the descriptor is malformed.
func parameterSlotWidths(desc string) []int {
	if !strings.HasPrefix(desc, "(") {
		return nil
	}
	widths := []int{}
	for i := 1; i < len(desc); {
		switch desc[i] {
		case ')':
			return widths
		case 'J', 'D':
			widths = append(widths, 2)
			i++
		case 'B', 'C', 'F', 'I', 'S', 'Z':
			widths = append(widths, 1)
			i++
		case 'L':
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return nil
			}
			widths = append(widths, 1)
			i += end + 1
		case '[':
			j := i
			for j < len(desc) && desc[j] == '[' {
				j++
			}
			if j >= len(desc) {
				return nil
			}
			if desc[j] == 'L' {
				end := strings.IndexByte(desc[j:], ';')
				if end < 0 {
					return nil
				}
				j += end
			}
			widths = append(widths, 1)
			i = j + 1
		default:
			return nil
		}
	}
	return nil
}
