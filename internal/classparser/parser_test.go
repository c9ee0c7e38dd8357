package classparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-recon/internal/testutil/classgen"
)

func TestParseClassFile_ClassStructure(t *testing.T) {
	data := classgen.New("com.example.UserController").
		Super("com.example.BaseController").
		Implements("java.io.Serializable").
		Signature("Lcom/example/BaseController<Lcom/example/User;>;").
		Annotate(classgen.Ann("io.jooby.annotations.Path", "value", []string{"/users"})).
		AnnotateInvisible(classgen.Ann("kotlin.Metadata")).
		Bytes()

	jc, err := ParseClassFile(data)
	require.NoError(t, err)

	assert.Equal(t, "com/example/UserController", jc.Name)
	assert.Equal(t, "com.example.UserController", jc.ClassName())
	assert.Equal(t, "com/example/BaseController", jc.SuperName)
	assert.Equal(t, []string{"java/io/Serializable"}, jc.Interfaces)
	assert.Equal(t, "Lcom/example/BaseController<Lcom/example/User;>;", jc.Signature)

	require.Len(t, jc.Annotations, 1)
	assert.Equal(t, "io.jooby.annotations.Path", jc.Annotations[0].TypeName())
	assert.Equal(t, []interface{}{"/users"}, jc.Annotations[0].Attributes["value"])

	require.Len(t, jc.InvisibleAnnotations, 1)
	assert.Equal(t, "kotlin.Metadata", jc.InvisibleAnnotations[0].TypeName())
}

func TestParseClassFile_MethodAttributes(t *testing.T) {
	c := classgen.New("com.example.UserController")
	c.Method("find", "(Ljava/lang/String;JLjava/util/List;)Ljava/util/Optional;").
		Signature("(Ljava/lang/String;JLjava/util/List<Ljava/lang/Integer;>;)Ljava/util/Optional<Lcom/example/User;>;").
		Annotate(classgen.Ann("io.jooby.annotations.GET", "value", "/{id}")).
		Arg("id", "Ljava/lang/String;", classgen.WithAnnotations(classgen.Ann("io.jooby.annotations.PathParam"))).
		Arg("limit", "J", classgen.WithInvisible(classgen.Ann("org.jetbrains.annotations.Nullable"))).
		Arg("tags", "Ljava/util/List;", classgen.WithSignature("Ljava/util/List<Ljava/lang/Integer;>;")).
		Local("result", "Ljava/lang/Object;", "")

	jc, err := ParseClassFile(c.Bytes())
	require.NoError(t, err)
	require.Len(t, jc.Methods, 1)

	m := jc.Methods[0]
	assert.Equal(t, "find", m.Name)
	assert.Equal(t, "(Ljava/lang/String;JLjava/util/List;)Ljava/util/Optional;", m.Desc)
	assert.Contains(t, m.Signature, "Ljava/util/Optional<Lcom/example/User;>;")
	assert.True(t, m.HasCode)
	assert.False(t, m.IsStatic())

	require.Len(t, m.Params, 3)
	assert.Equal(t, "id", m.Params[0].Name)
	assert.Equal(t, "limit", m.Params[1].Name)
	assert.Equal(t, "tags", m.Params[2].Name)

	require.Len(t, m.Params[0].Annotations, 1)
	assert.Equal(t, "io.jooby.annotations.PathParam", m.Params[0].Annotations[0].TypeName())
	assert.Empty(t, m.Params[1].Annotations)
	require.Len(t, m.Params[1].InvisibleAnnotations, 1)
	assert.Equal(t, "org.jetbrains.annotations.Nullable", m.Params[1].InvisibleAnnotations[0].TypeName())
	assert.True(t, m.HasInvisibleParameterAnnotations)

	// this(0) id(1) limit(2,3) tags(4) result(5)
	slots := map[string]int{}
	for _, lv := range m.LocalVariables {
		slots[lv.Name] = lv.Index
	}
	assert.Equal(t, map[string]int{"this": 0, "id": 1, "limit": 2, "tags": 4, "result": 5}, slots)

	for _, lv := range m.LocalVariables {
		if lv.Name == "tags" {
			assert.Equal(t, "Ljava/util/List;", lv.Desc)
			assert.Equal(t, "Ljava/util/List<Ljava/lang/Integer;>;", lv.Signature)
		}
	}
}

func TestParseClassFile_ParameterNamesFromLocals(t *testing.T) {
	c := classgen.New("com.example.Legacy")
	c.Method("instance", "(JLjava/lang/String;)V").
		NoParameters().
		Arg("big", "J").
		Arg("name", "Ljava/lang/String;")
	c.Method("static", "(DI)V").
		Static().
		NoParameters().
		Arg("ratio", "D").
		Arg("count", "I")
	c.Method("stripped", "(I)V").
		NoParameters().
		NoLocals().
		Arg("lost", "I")

	jc, err := ParseClassFile(c.Bytes())
	require.NoError(t, err)
	require.Len(t, jc.Methods, 3)

	assert.False(t, jc.Methods[0].HasInvisibleParameterAnnotations)
	assert.Equal(t, "big", jc.Methods[0].Params[0].Name)
	assert.Equal(t, "name", jc.Methods[0].Params[1].Name)

	assert.True(t, jc.Methods[1].IsStatic())
	assert.Equal(t, "ratio", jc.Methods[1].Params[0].Name)
	assert.Equal(t, "count", jc.Methods[1].Params[1].Name)

	assert.Empty(t, jc.Methods[2].LocalVariables)
	assert.Equal(t, "arg0", jc.Methods[2].Params[0].Name)
}

func TestParseClassFile_ElementValues(t *testing.T) {
	c := classgen.New("com.example.Values")
	c.Method("all", "()V").Annotate(classgen.Ann("com.example.Everything",
		"text", "hello",
		"number", 42,
		"big", int64(1)<<40,
		"flag", true,
		"media", classgen.Enum{Type: "com.example.Media", Name: "JSON"},
		"type", classgen.Class{Type: "java.lang.String"},
		"nested", classgen.Ann("com.example.Inner", "value", "x"),
		"list", []interface{}{"a", 1},
	))

	jc, err := ParseClassFile(c.Bytes())
	require.NoError(t, err)

	attrs := jc.Methods[0].Annotations[0].Attributes
	assert.Equal(t, "hello", attrs["text"])
	assert.Equal(t, int64(42), attrs["number"])
	assert.Equal(t, int64(1)<<40, attrs["big"])
	assert.Equal(t, true, attrs["flag"])
	assert.Equal(t, EnumValue{Desc: "Lcom/example/Media;", Name: "JSON"}, attrs["media"])
	assert.Equal(t, ClassValue{Desc: "Ljava/lang/String;"}, attrs["type"])

	nested, ok := attrs["nested"].(*Annotation)
	require.True(t, ok)
	assert.Equal(t, "com.example.Inner", nested.TypeName())
	assert.Equal(t, "x", nested.Attributes["value"])

	assert.Equal(t, []interface{}{"a", int64(1)}, attrs["list"])
}

func TestParseClassFile_AbstractMethod(t *testing.T) {
	c := classgen.New("com.example.Api")
	c.Method("list", "()Ljava/util/List;").Abstract()

	jc, err := ParseClassFile(c.Bytes())
	require.NoError(t, err)
	assert.False(t, jc.Methods[0].HasCode)
	assert.Empty(t, jc.Methods[0].LocalVariables)
	assert.Empty(t, jc.Methods[0].Params)
}

func TestParseClassFile_Malformed(t *testing.T) {
	valid := classgen.New("com.example.Ok").Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, valid[4:]...)},
		{"truncated pool", valid[:12]},
		{"truncated body", valid[:len(valid)-3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClassFile(tt.data)
			require.Error(t, err)
			var formatErr *FormatError
			assert.True(t, errors.As(err, &formatErr), "expected FormatError, got %T", err)
		})
	}
}

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("getUser"), "getUser"},
		{"encoded nul", []byte{'a', 0xC0, 0x80, 'b'}, "a\x00b"},
		{"two byte", []byte{0xC3, 0xA9}, "é"},
		{"three byte", []byte{0xE4, 0xBD, 0xA0}, "你"},
		// U+1F600 as a surrogate pair, each half three bytes
		{"surrogate pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeModifiedUTF8(tt.input))
		})
	}
}

func TestDescriptorHelpers(t *testing.T) {
	assert.Equal(t, "com.example.Foo", DescriptorToClassName("Lcom/example/Foo;"))
	assert.Equal(t, "I", DescriptorToClassName("I"))
	assert.Equal(t, "Lcom/example/Foo;", ClassNameToDescriptor("com.example.Foo"))
	assert.Equal(t, "com/example/Foo", InternalName("com.example.Foo"))

	assert.Equal(t, []int{1, 1, 1, 1}, parameterSlotWidths("(I[JLjava/lang/String;[[Ljava/lang/Object;)V"))
	assert.Equal(t, []int{2, 1, 2}, parameterSlotWidths("(JZD)V"))
	assert.Equal(t, 0, countParameters("()V"))
	assert.Equal(t, -1, countParameters("(Q)V"))
}

func TestParameterAnnotations_Alignment(t *testing.T) {
	nullable := []Annotation{{Desc: "Lorg/jetbrains/annotations/Nullable;"}}
	table := [][]Annotation{nullable, nil}

	// A method table shorter than the parameter list leaves the trailing
	// parameter unannotated
	assert.Equal(t, nullable, parameterAnnotations(table, 3, 0, false))
	assert.Nil(t, parameterAnnotations(table, 3, 1, false))
	assert.Nil(t, parameterAnnotations(table, 3, 2, false))

	// A constructor table skips the leading synthetic parameter
	assert.Nil(t, parameterAnnotations(table, 3, 0, true))
	assert.Equal(t, nullable, parameterAnnotations(table, 3, 1, true))
	assert.Nil(t, parameterAnnotations(table, 3, 2, true))

	assert.Nil(t, parameterAnnotations(nil, 2, 0, false))
}

func TestJavaClass_IsEnum(t *testing.T) {
	assert.True(t, (&JavaClass{Access: AccPublic | AccEnum}).IsEnum())
	assert.False(t, (&JavaClass{Access: AccPublic}).IsEnum())
}
