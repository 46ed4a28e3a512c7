package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dexkit/internal/format"
	"github.com/joshuapare/dexkit/internal/testutil/dexbuild"
)

func TestStringDataShorterThanDeclared(t *testing.T) {
	img := dexbuild.Hello().Build()
	b := img.Bytes
	// "run" is 03 'r' 'u' 'n' 00; end it after two characters.
	b[img.Layout.StringData[dexbuild.HelloStrRun]+3] = 0
	format.Seal(b)

	verr := mustFail(t, b)
	assert.Equal(t, CategoryEncoding, verr.Category)
	assert.Equal(t, "String data shorter than indicated utf16_size 3", verr.Message)
}

func TestStringDataEncoding(t *testing.T) {
	tests := []struct {
		name    string
		at      int
		val     byte
		message string
	}{
		{"illegal start byte", 1, 0x80, "Illegal start byte 80 in string data"},
		{"longer than size", 0, 0x02, "String longer than indicated size 2"},
		{"bad continuation byte", 1, 0xc1, "Illegal continuation byte 75 in string data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := dexbuild.Hello().Build()
			b := img.Bytes
			b[img.Layout.StringData[dexbuild.HelloStrRun]+tt.at] = tt.val
			format.Seal(b)

			verr := mustFail(t, b)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestNonZeroPadding(t *testing.T) {
	img := dexbuild.Hello().Build()
	b := img.Bytes
	// The encoded arrays end unaligned, so the code section is preceded by
	// padding.
	code := img.Layout.Code[0]
	b[code-1] = 1
	format.Seal(b)

	verr := mustFail(t, b)
	assert.Equal(t, CategoryAlignment, verr.Category)
	assert.Equal(t, code-1, verr.Offset)
	assert.Contains(t, verr.Message, "Non-zero padding 1 before section of type 8193")
}

func TestClassDataFieldOrder(t *testing.T) {
	f := dexbuild.Hello()
	for i := 0; i < 4; i++ {
		f.Fields = append(f.Fields, dexbuild.FieldRef{
			Class: dexbuild.HelloTypeHello, Type: dexbuild.HelloTypeI, Name: dexbuild.HelloStrValue,
		})
	}
	f.Classes[0].StaticFields = []dexbuild.Field{
		{Idx: 5, Flags: format.AccStatic},
		{Idx: 3, Flags: format.AccStatic},
	}

	verr := buildFail(t, f)
	assert.Equal(t, CategoryOrder, verr.Category)
	assert.Equal(t, "out-of-order static field indexes 5 and 3", verr.Message)

	// A zero delta repeats the previous index and is rejected as well.
	f.Classes[0].StaticFields = []dexbuild.Field{
		{Idx: 3, Flags: format.AccStatic},
		{Idx: 3, Flags: format.AccStatic},
	}
	verr = buildFail(t, f)
	assert.Equal(t, CategoryOrder, verr.Category)
	assert.Equal(t, "out-of-order static field indexes 3 and 3", verr.Message)
}

func TestClassDataStructure(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *dexbuild.Class)
		category Category
		message  string
	}{
		{
			name:     "static field without static flag",
			mutate:   func(c *dexbuild.Class) { c.StaticFields[0].Flags = format.AccPublic },
			category: CategoryPolicy,
			message:  "Static/instance field not in expected list",
		},
		{
			name:     "field index out of range",
			mutate:   func(c *dexbuild.Class) { c.InstanceFields[0].Idx = 9 },
			category: CategoryReference,
			message:  "Bad index for class_data_item field_idx: 9 >= 2",
		},
		{
			name:     "virtual shares a direct index",
			mutate:   func(c *dexbuild.Class) { c.VirtualMethods[0].Idx = dexbuild.HelloMethodInit },
			category: CategoryDuplicate,
			message:  "Found virtual method with same index as direct method: 0",
		},
		{
			name: "repeated virtual index",
			mutate: func(c *dexbuild.Class) {
				c.VirtualMethods = append(c.VirtualMethods, c.VirtualMethods[0])
			},
			category: CategoryOrder,
			message:  "out-of-order virtual method indexes 1 and 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dexbuild.Hello()
			tt.mutate(&f.Classes[0])

			verr := buildFail(t, f)
			assert.Equal(t, tt.category, verr.Category)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestCodeItem(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *dexbuild.Code)
		message string
	}{
		{"ins exceed registers", func(c *dexbuild.Code) { c.Registers = 1 }, "ins_size (2) > registers_size (1)"},
		{"outs exceed registers", func(c *dexbuild.Code) { c.Outs = 6 }, "outs_size (6) > registers_size (2)"},
		{"try start past end", func(c *dexbuild.Code) { c.Tries[0].Start = 2 }, "Invalid try_item start_addr: 2"},
		{"try too long", func(c *dexbuild.Code) { c.Tries[0].Count = 3 }, "Invalid try_item insn_count: 3"},
		{"bogus handler offset", func(c *dexbuild.Code) { c.Tries[0].HandlerOff = 2 }, "Bogus handler offset: 2"},
		{"catch-all past end", func(c *dexbuild.Code) { c.Handlers = []byte{0x01, 0x00, 0x05} }, "Invalid handler catch_all_addr: 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dexbuild.Hello()
			tt.mutate(f.Classes[0].VirtualMethods[0].Code)

			verr := buildFail(t, f)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestCodeItemSmallOuts(t *testing.T) {
	f := dexbuild.Hello()
	f.Classes[0].VirtualMethods[0].Code.Outs = 5
	require.NoError(t, Verify(f.Build().Bytes, "small-outs.dex", Options{}))
}

func TestDebugInfo(t *testing.T) {
	// Hello has 9 strings and 4 types. Index operands are uleb128p1, so
	// 0x7f names index 0x7e.
	tests := []struct {
		name     string
		debug    []byte
		category Category
		message  string
	}{
		{"too many parameters", []byte{0x00, 0x81, 0x80, 0x04, 0x00}, CategoryBounds,
			"Invalid parameters_size: 10001"},
		{"bad parameter name", []byte{0x00, 0x01, 0x7f, 0x00}, CategoryReference,
			"Bad index for debug_info_item parameter_name: 7e >= 9"},
		{"start local register", []byte{0x00, 0x00, 0x03, 0x80, 0x80, 0x04, 0x00, 0x00, 0x00}, CategoryBounds,
			"Bad reg_num for opcode 3"},
		{"end local register", []byte{0x00, 0x00, 0x05, 0x80, 0x80, 0x04, 0x00}, CategoryBounds,
			"Bad reg_num for opcode 5"},
		{"restart local register", []byte{0x00, 0x00, 0x06, 0xff, 0xff, 0x07, 0x00}, CategoryBounds,
			"Bad reg_num for opcode 6"},
		{"start local name", []byte{0x00, 0x00, 0x03, 0x00, 0x7f, 0x00, 0x00}, CategoryReference,
			"Bad index for DBG_START_LOCAL name_idx: 7e >= 9"},
		{"start local type", []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x7f, 0x00}, CategoryReference,
			"Bad index for DBG_START_LOCAL type_idx: 7e >= 4"},
		{"extended type", []byte{0x00, 0x00, 0x04, 0x00, 0x01, 0x05, 0x00, 0x00}, CategoryReference,
			"Bad index for DBG_START_LOCAL_EXTENDED type_idx: 4 >= 4"},
		{"extended signature", []byte{0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x7f, 0x00}, CategoryReference,
			"Bad index for DBG_START_LOCAL_EXTENDED sig_idx: 7e >= 9"},
		{"set file", []byte{0x00, 0x00, 0x09, 0x0a, 0x00}, CategoryReference,
			"Bad index for DBG_SET_FILE name_idx: 9 >= 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dexbuild.Hello()
			f.Classes[0].DirectMethods[0].Code.Debug = tt.debug

			verr := buildFail(t, f)
			assert.Equal(t, tt.category, verr.Category)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestDebugInfoAllOpcodes(t *testing.T) {
	f := dexbuild.Hello()
	f.Classes[0].DirectMethods[0].Code.Debug = []byte{
		0x01, 0x01, 0x09, // line 1, one parameter named "value"
		0x03, 0x00, 0x08, 0x01, // start local v0 "run" I
		0x04, 0x00, 0x07, 0x04, 0x06, // start local extended v0 "count" LHello; "VI"
		0x05, 0x00, // end local v0
		0x06, 0x00, // restart local v0
		0x07, 0x08, // prologue end, epilogue begin
		0x09, 0x00, // set file to none
		0x01, 0x01, // advance pc
		0x02, 0x7f, // advance line -1
		0x0a, 0xff, // special opcodes
		0x00,
	}
	require.NoError(t, Verify(f.Build().Bytes, "debug.dex", Options{}))
}

func TestDebugInfoTruncated(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		message string
	}{
		{"missing end sequence", []byte{0x00, 0x01, 0x01}, "List too large for debug_info opcode: 3+1*1 > 3"},
		{"unterminated operand", []byte{0x00, 0x00, 0x01, 0x80}, "Read out of bounds"},
		{"unterminated line start", []byte{0x80}, "Read out of bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.data, testLocation, Options{})
			v.hdr.StringIDs.Size = 9

			err := v.checkIntraDebugInfoItem()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestEncodedValues(t *testing.T) {
	deep := dexbuild.Int(1)
	for i := 0; i < 600; i++ {
		deep = dexbuild.ArrayValue(deep)
	}

	tests := []struct {
		name     string
		values   []byte
		category Category
		message  string
	}{
		{"bogus type", dexbuild.Array([]byte{0x05}), CategoryEncoding,
			"Bad encoded_array value: Bogus encoded_value value_type 5"},
		{"wide boolean", dexbuild.Array([]byte{byte(format.ValueBoolean) | 2<<format.ValueArgShift}), CategoryEncoding,
			"Bad encoded_array value: Bad encoded_value boolean size 2"},
		{"string out of range", dexbuild.Array(dexbuild.String(40)), CategoryReference,
			"Bad encoded_array value: Bad index for encoded_value string: 28 >= 9"},
		{"nested array arg", dexbuild.Array([]byte{byte(format.ValueArray) | 1<<format.ValueArgShift, 0}), CategoryEncoding,
			"Bad encoded_array value: Bad encoded_value array value_arg 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dexbuild.Hello()
			f.Classes[0].StaticValues = tt.values
			verr := buildFail(t, f)
			assert.Equal(t, tt.category, verr.Category)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	t.Run("nesting limit", func(t *testing.T) {
		f := dexbuild.Hello()
		f.Classes[0].StaticValues = dexbuild.Array(deep)
		verr := buildFail(t, f)
		assert.Contains(t, verr.Message, "encoded_value nesting too deep")
	})
}

func TestRedefinedClass(t *testing.T) {
	f := dexbuild.Hello()
	f.Classes = append(f.Classes, f.Classes[0])

	verr := buildFail(t, f)
	assert.Equal(t, CategoryDuplicate, verr.Category)
	assert.Equal(t, "Redefinition of class with type idx: '1'", verr.Message)
}

func TestMethodHandles(t *testing.T) {
	f := dexbuild.Hello()
	f.MethodHandles = []dexbuild.MethodHandle{
		{Type: format.MethodHandleStaticGet, Idx: dexbuild.HelloFieldCount},
		{Type: format.MethodHandleInvokeStatic, Idx: dexbuild.HelloMethodRun},
	}
	require.NoError(t, strict(f.Build().Bytes))

	f.MethodHandles[0].Type = 0x20
	verr := buildFail(t, f)
	assert.Equal(t, CategoryEncoding, verr.Category)
	assert.Equal(t, "Bad method handle type 20", verr.Message)

	f.MethodHandles[0] = dexbuild.MethodHandle{Type: format.MethodHandleStaticPut, Idx: 7}
	verr = buildFail(t, f)
	assert.Equal(t, "Bad index for method_handle_item field_idx: 7 >= 2", verr.Message)
}

func helloAnnotations() *dexbuild.Annotations {
	return &dexbuild.Annotations{
		Class: []dexbuild.Annotation{{
			Visibility: format.VisibilityRuntime,
			Type:       dexbuild.HelloTypeHello,
			Elements: []dexbuild.Element{
				{Name: dexbuild.HelloStrCount, Value: dexbuild.Int(1)},
				{Name: dexbuild.HelloStrValue, Value: dexbuild.String(dexbuild.HelloStrRun)},
			},
		}},
		Fields: []dexbuild.MemberAnnotations{{
			Idx: dexbuild.HelloFieldValue,
			Set: []dexbuild.Annotation{{Visibility: format.VisibilityBuild, Type: dexbuild.HelloTypeObject}},
		}},
		Methods: []dexbuild.MemberAnnotations{{
			Idx: dexbuild.HelloMethodRun,
			Set: []dexbuild.Annotation{{Visibility: format.VisibilitySystem, Type: dexbuild.HelloTypeObject}},
		}},
		Parameters: []dexbuild.ParameterAnnotations{{
			Idx: dexbuild.HelloMethodRun,
			Sets: [][]dexbuild.Annotation{
				{{Visibility: format.VisibilityRuntime, Type: dexbuild.HelloTypeHello}},
			},
		}},
	}
}

func TestAnnotations(t *testing.T) {
	f := dexbuild.Hello()
	f.Classes[0].Annotations = helloAnnotations()
	require.NoError(t, strict(f.Build().Bytes))

	t.Run("visibility", func(t *testing.T) {
		f := dexbuild.Hello()
		f.Classes[0].Annotations = helloAnnotations()
		f.Classes[0].Annotations.Class[0].Visibility = 5
		assert.Equal(t, "Bad annotation visibility: 5", buildFail(t, f).Message)
	})

	t.Run("element order", func(t *testing.T) {
		f := dexbuild.Hello()
		a := helloAnnotations()
		el := a.Class[0].Elements
		el[0], el[1] = el[1], el[0]
		f.Classes[0].Annotations = a
		verr := buildFail(t, f)
		assert.Equal(t, CategoryOrder, verr.Category)
		assert.Equal(t, "Out-of-order annotation_element name_idx: 8 then 6", verr.Message)
	})

	t.Run("method order", func(t *testing.T) {
		f := dexbuild.Hello()
		a := helloAnnotations()
		a.Methods = []dexbuild.MemberAnnotations{a.Methods[0], a.Methods[0]}
		a.Methods[1].Idx = dexbuild.HelloMethodInit
		f.Classes[0].Annotations = a
		assert.Equal(t, "Out-of-order method_idx for annotation: 1 then 0", buildFail(t, f).Message)
	})

	t.Run("foreign member", func(t *testing.T) {
		f := dexbuild.Hello()
		a := helloAnnotations()
		a.Fields = nil
		a.Methods[0].Idx = dexbuild.HelloMethodObjInit
		a.Parameters = nil
		f.Classes[0].Annotations = a
		verr := buildFail(t, f)
		assert.Equal(t, CategoryReference, verr.Category)
		assert.Equal(t, "Invalid annotations_directory_item", verr.Message)
	})
}

func TestHiddenapiClassData(t *testing.T) {
	f := dexbuild.Hello()
	f.Classes[0].Hiddenapi = []uint32{
		format.HiddenapiSdk,
		format.HiddenapiBlocked | format.HiddenapiDomainCorePlatform,
		format.HiddenapiMaxTargetR,
		format.HiddenapiUnsupported,
	}
	require.NoError(t, strict(f.Build().Bytes))

	f.Classes[0].Hiddenapi[1] = 7
	verr := buildFail(t, f)
	assert.Equal(t, CategoryEncoding, verr.Category)
	assert.Equal(t, "Hiddenapi class data flags invalid (7) for field 1", verr.Message)

	f.Classes[0].Hiddenapi = []uint32{0, 0, 0}
	verr = buildFail(t, f)
	assert.Equal(t, CategoryBounds, verr.Category)
	assert.Contains(t, verr.Message, "Hiddenapi class data value out of bounds")
	assert.Contains(t, verr.Message, "for method 1")
}
