package dexbuild

import "github.com/joshuapare/dexkit/internal/format"

// String indices of the Hello fixture.
const (
	HelloStrInit   = 0 // "<init>"
	HelloStrI      = 1 // "I"
	HelloStrHello  = 2 // "LHello;"
	HelloStrObject = 3 // "Ljava/lang/Object;"
	HelloStrV      = 4 // "V"
	HelloStrVI     = 5 // "VI"
	HelloStrCount  = 6 // "count"
	HelloStrRun    = 7 // "run"
	HelloStrValue  = 8 // "value"
)

// Type indices of the Hello fixture.
const (
	HelloTypeI      = 0
	HelloTypeHello  = 1
	HelloTypeObject = 2
	HelloTypeV      = 3
)

// Member indices of the Hello fixture.
const (
	HelloFieldCount    = 0 // static int count
	HelloFieldValue    = 1 // int value
	HelloMethodInit    = 0 // Hello.<init>()V
	HelloMethodRun     = 1 // Hello.run(I)V
	HelloMethodObjInit = 2 // Object.<init>()V
)

// Hello returns a small valid file equivalent to
//
//	public class Hello {
//	    static int count = 42;
//	    public int value;
//	    public Hello() { super(); }
//	    public void run(int x) { try { } catch (Throwable t) { } }
//	}
//
// Each call returns a fresh value so tests may modify it.
func Hello() *File {
	return &File{
		Strings: []string{
			"<init>", "I", "LHello;", "Ljava/lang/Object;", "V", "VI", "count", "run", "value",
		},
		Types: []uint32{HelloStrI, HelloStrHello, HelloStrObject, HelloStrV},
		Protos: []Proto{
			{Shorty: HelloStrV, Return: HelloTypeV},
			{Shorty: HelloStrVI, Return: HelloTypeV, Params: []uint16{HelloTypeI}},
		},
		Fields: []FieldRef{
			{Class: HelloTypeHello, Type: HelloTypeI, Name: HelloStrCount},
			{Class: HelloTypeHello, Type: HelloTypeI, Name: HelloStrValue},
		},
		Methods: []MethodRef{
			{Class: HelloTypeHello, Proto: 0, Name: HelloStrInit},
			{Class: HelloTypeHello, Proto: 1, Name: HelloStrRun},
			{Class: HelloTypeObject, Proto: 0, Name: HelloStrInit},
		},
		Classes: []Class{{
			Type:        HelloTypeHello,
			AccessFlags: format.AccPublic,
			Superclass:  HelloTypeObject,
			SourceFile:  NoIndex,
			StaticFields: []Field{
				{Idx: HelloFieldCount, Flags: format.AccStatic},
			},
			InstanceFields: []Field{
				{Idx: HelloFieldValue, Flags: format.AccPublic},
			},
			DirectMethods: []Method{{
				Idx:   HelloMethodInit,
				Flags: format.AccPublic | format.AccConstructor,
				Code: &Code{
					Registers: 1, Ins: 1, Outs: 1,
					// invoke-direct {v0}, Object.<init>; return-void
					Insns: []uint16{0x1070, HelloMethodObjInit, 0x0000, 0x000e},
					Debug: []byte{0x01, 0x00, 0x0e, 0x00},
				},
			}},
			VirtualMethods: []Method{{
				Idx:   HelloMethodRun,
				Flags: format.AccPublic,
				Code: &Code{
					Registers: 2, Ins: 2,
					// nop; return-void
					Insns:    []uint16{0x0000, 0x000e},
					Tries:    []Try{{Start: 0, Count: 1, HandlerOff: 1}},
					Handlers: Handlers(Handler{CatchAll: true}),
				},
			}},
			StaticValues: Array(Int(42)),
		}},
	}
}

// HelloBytes builds the Hello fixture.
func HelloBytes() []byte {
	return Hello().Build().Bytes
}
