package dexbuild

import (
	"encoding/binary"
	"sort"
	"unicode/utf16"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

type writer struct {
	b []byte
}

func (w *writer) pos() int      { return len(w.b) }
func (w *writer) u8(v byte)     { w.b = append(w.b, v) }
func (w *writer) u16(v uint16)  { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *writer) u32(v uint32)  { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *writer) uleb(v uint32) { w.b = buf.AppendULEB128(w.b, v) }
func (w *writer) raw(p []byte)  { w.b = append(w.b, p...) }
func (w *writer) put32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.b[off:], v)
}
func (w *writer) put16(off int, v uint16) {
	binary.LittleEndian.PutUint16(w.b[off:], v)
}

func (w *writer) align4() {
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
}

// reserve appends n zero bytes and returns their offset.
func (w *writer) reserve(n int) int {
	off := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return off
}

// sectionTracker collects map entries for non-empty sections.
type sectionTracker struct {
	items []format.MapItem
}

func (s *sectionTracker) add(t format.MapItemType, off, count int) {
	if count == 0 {
		return
	}
	s.items = append(s.items, format.MapItem{Type: t, Size: uint32(count), Offset: uint32(off)})
}

type annotationSet struct {
	items []Annotation
	off   int
}

type refList struct {
	sets []*annotationSet
	off  int
}

type directory struct {
	class   *annotationSet
	fields  []*annotationSet
	methods []*annotationSet
	params  []*refList
	off     int
}

// Build lays out f as a sealed dex image.
func (f *File) Build() *Image {
	w := &writer{b: make([]byte, format.HeaderSize)}
	var lay Layout
	var secs sectionTracker
	nClasses := len(f.Classes)

	lay.StringIDs = w.reserve(format.StringIDSize * len(f.Strings))
	lay.TypeIDs = w.reserve(format.TypeIDSize * len(f.Types))
	lay.ProtoIDs = w.reserve(format.ProtoIDSize * len(f.Protos))
	lay.FieldIDs = w.reserve(format.FieldIDSize * len(f.Fields))
	lay.MethodIDs = w.reserve(format.MethodIDSize * len(f.Methods))
	lay.ClassDefs = w.reserve(format.ClassDefSize * nClasses)
	lay.DataOff = w.pos()

	// Method handles.
	start := w.pos()
	for _, mh := range f.MethodHandles {
		w.u16(mh.Type)
		w.u16(0)
		w.u16(mh.Idx)
		w.u16(0)
	}
	secs.add(format.TypeMethodHandleItem, start, len(f.MethodHandles))

	// String data.
	start = w.pos()
	lay.StringData = make([]int, len(f.Strings))
	for i, s := range f.Strings {
		lay.StringData[i] = w.pos()
		units, enc := EncodeMUTF8(s)
		w.uleb(units)
		w.raw(enc)
		w.u8(0)
	}
	secs.add(format.TypeStringDataItem, start, len(f.Strings))

	// Debug info, one per code item that has it.
	debugOff := map[*Code]int{}
	start = w.pos()
	f.eachCode(func(c *Code) {
		if c.Debug != nil {
			if _, seen := debugOff[c]; !seen {
				debugOff[c] = w.pos()
				lay.DebugInfo = append(lay.DebugInfo, w.pos())
				w.raw(c.Debug)
			}
		}
	})
	secs.add(format.TypeDebugInfoItem, start, len(lay.DebugInfo))

	// Encoded arrays: static values, then call sites.
	start = w.pos()
	arrays := 0
	lay.StaticValues = make([]int, nClasses)
	for i, c := range f.Classes {
		if c.StaticValues != nil {
			lay.StaticValues[i] = w.pos()
			w.raw(c.StaticValues)
			arrays++
		}
	}
	for _, cs := range f.CallSites {
		lay.CallSites = append(lay.CallSites, w.pos())
		w.raw(cs)
		arrays++
	}
	secs.add(format.TypeEncodedArrayItem, start, arrays)

	// Gather annotation structures so items can be written before the sets
	// that point at them.
	dirs := make([]*directory, nClasses)
	var sets []*annotationSet
	var refLists []*refList
	newSet := func(items []Annotation) *annotationSet {
		if items == nil {
			return nil
		}
		s := &annotationSet{items: items}
		sets = append(sets, s)
		return s
	}
	for i, c := range f.Classes {
		a := c.Annotations
		if a == nil {
			continue
		}
		d := &directory{class: newSet(a.Class)}
		for _, m := range a.Fields {
			d.fields = append(d.fields, newSet(m.Set))
		}
		for _, m := range a.Methods {
			d.methods = append(d.methods, newSet(m.Set))
		}
		for _, p := range a.Parameters {
			rl := &refList{}
			for _, s := range p.Sets {
				rl.sets = append(rl.sets, newSet(s))
			}
			refLists = append(refLists, rl)
			d.params = append(d.params, rl)
		}
		dirs[i] = d
	}

	// Annotation items.
	start = w.pos()
	annotationItems := 0
	itemOffs := map[*annotationSet][]int{}
	for _, s := range sets {
		for _, a := range s.items {
			itemOffs[s] = append(itemOffs[s], w.pos())
			w.u8(a.Visibility)
			w.raw(EncodeAnnotation(a.Type, a.Elements...))
			annotationItems++
		}
	}
	secs.add(format.TypeAnnotationItem, start, annotationItems)

	// Call site ids.
	w.align4()
	start = w.pos()
	for _, off := range lay.CallSites {
		w.u32(uint32(off))
	}
	secs.add(format.TypeCallSiteIDItem, start, len(f.CallSites))

	// Code items.
	codeOff := map[*Code]int{}
	w.align4()
	start = w.pos()
	f.eachCode(func(c *Code) {
		if _, seen := codeOff[c]; seen {
			return
		}
		w.align4()
		codeOff[c] = w.pos()
		lay.Code = append(lay.Code, w.pos())
		w.u16(c.Registers)
		w.u16(c.Ins)
		w.u16(c.Outs)
		w.u16(uint16(len(c.Tries)))
		w.u32(uint32(debugOff[c]))
		w.u32(uint32(len(c.Insns)))
		for _, insn := range c.Insns {
			w.u16(insn)
		}
		if len(c.Tries) == 0 {
			return
		}
		if len(c.Insns)%2 != 0 {
			w.u16(0)
		}
		for _, t := range c.Tries {
			w.u32(t.Start)
			w.u16(t.Count)
			w.u16(t.HandlerOff)
		}
		w.raw(c.Handlers)
	})
	secs.add(format.TypeCodeItem, start, len(lay.Code))

	// Type lists: proto parameters, then class interfaces.
	w.align4()
	start = w.pos()
	protoParams := make([]int, len(f.Protos))
	for i, p := range f.Protos {
		if len(p.Params) > 0 {
			protoParams[i] = w.typeList(p.Params)
			lay.TypeLists = append(lay.TypeLists, protoParams[i])
		}
	}
	interfaces := make([]int, nClasses)
	for i, c := range f.Classes {
		if len(c.Interfaces) > 0 {
			interfaces[i] = w.typeList(c.Interfaces)
			lay.TypeLists = append(lay.TypeLists, interfaces[i])
		}
	}
	secs.add(format.TypeTypeList, start, len(lay.TypeLists))

	// Annotation sets.
	w.align4()
	start = w.pos()
	for _, s := range sets {
		s.off = w.pos()
		lay.AnnotationSets = append(lay.AnnotationSets, s.off)
		w.u32(uint32(len(s.items)))
		for _, off := range itemOffs[s] {
			w.u32(uint32(off))
		}
	}
	secs.add(format.TypeAnnotationSetItem, start, len(sets))

	// Annotation set ref lists.
	start = w.pos()
	for _, rl := range refLists {
		rl.off = w.pos()
		w.u32(uint32(len(rl.sets)))
		for _, s := range rl.sets {
			w.u32(uint32(setOff(s)))
		}
	}
	secs.add(format.TypeAnnotationSetRefList, start, len(refLists))

	// Annotations directories.
	start = w.pos()
	lay.Directories = make([]int, nClasses)
	numDirs := 0
	for i, d := range dirs {
		if d == nil {
			continue
		}
		a := f.Classes[i].Annotations
		d.off = w.pos()
		lay.Directories[i] = d.off
		numDirs++
		w.u32(uint32(setOff(d.class)))
		w.u32(uint32(len(a.Fields)))
		w.u32(uint32(len(a.Methods)))
		w.u32(uint32(len(a.Parameters)))
		for k, m := range a.Fields {
			w.u32(m.Idx)
			w.u32(uint32(setOff(d.fields[k])))
		}
		for k, m := range a.Methods {
			w.u32(m.Idx)
			w.u32(uint32(setOff(d.methods[k])))
		}
		for k, p := range a.Parameters {
			w.u32(p.Idx)
			w.u32(uint32(d.params[k].off))
		}
	}
	secs.add(format.TypeAnnotationsDirectoryItem, start, numDirs)

	// Class data.
	start = w.pos()
	lay.ClassData = make([]int, nClasses)
	numClassData := 0
	for i, c := range f.Classes {
		if len(c.StaticFields)+len(c.InstanceFields)+len(c.DirectMethods)+len(c.VirtualMethods) == 0 {
			continue
		}
		lay.ClassData[i] = w.pos()
		numClassData++
		w.uleb(uint32(len(c.StaticFields)))
		w.uleb(uint32(len(c.InstanceFields)))
		w.uleb(uint32(len(c.DirectMethods)))
		w.uleb(uint32(len(c.VirtualMethods)))
		w.fields(c.StaticFields)
		w.fields(c.InstanceFields)
		w.methods(c.DirectMethods, codeOff)
		w.methods(c.VirtualMethods, codeOff)
	}
	secs.add(format.TypeClassDataItem, start, numClassData)

	// Hidden API flags.
	if f.hasHiddenapi() {
		w.align4()
		start = w.pos()
		lay.Hiddenapi = start
		w.u32(0)
		offsets := w.reserve(4 * nClasses)
		for i, c := range f.Classes {
			if c.Hiddenapi == nil || lay.ClassData[i] == 0 {
				continue
			}
			w.put32(offsets+4*i, uint32(w.pos()-start))
			for _, flags := range c.Hiddenapi {
				w.uleb(flags)
			}
		}
		w.put32(start, uint32(w.pos()-start))
		secs.add(format.TypeHiddenapiClassData, start, 1)
	}

	// Map list.
	w.align4()
	lay.MapOff = w.pos()
	secs.add(format.TypeHeaderItem, 0, 1)
	secs.add(format.TypeStringIDItem, lay.StringIDs, len(f.Strings))
	secs.add(format.TypeTypeIDItem, lay.TypeIDs, len(f.Types))
	secs.add(format.TypeProtoIDItem, lay.ProtoIDs, len(f.Protos))
	secs.add(format.TypeFieldIDItem, lay.FieldIDs, len(f.Fields))
	secs.add(format.TypeMethodIDItem, lay.MethodIDs, len(f.Methods))
	secs.add(format.TypeClassDefItem, lay.ClassDefs, nClasses)
	secs.add(format.TypeMapList, lay.MapOff, 1)
	sort.SliceStable(secs.items, func(i, j int) bool { return secs.items[i].Offset < secs.items[j].Offset })
	lay.Sections = secs.items
	w.u32(uint32(len(secs.items)))
	for _, it := range secs.items {
		w.u16(uint16(it.Type))
		w.u16(0)
		w.u32(it.Size)
		w.u32(it.Offset)
	}

	// Id tables.
	for i := range f.Strings {
		w.put32(lay.StringIDs+format.StringIDSize*i, uint32(lay.StringData[i]))
	}
	for i, t := range f.Types {
		w.put32(lay.TypeIDs+format.TypeIDSize*i, t)
	}
	for i, p := range f.Protos {
		off := lay.ProtoIDs + format.ProtoIDSize*i
		w.put32(off, p.Shorty)
		w.put16(off+4, p.Return)
		w.put32(off+8, uint32(protoParams[i]))
	}
	for i, fr := range f.Fields {
		off := lay.FieldIDs + format.FieldIDSize*i
		w.put16(off, fr.Class)
		w.put16(off+2, fr.Type)
		w.put32(off+4, fr.Name)
	}
	for i, m := range f.Methods {
		off := lay.MethodIDs + format.MethodIDSize*i
		w.put16(off, m.Class)
		w.put16(off+2, m.Proto)
		w.put32(off+4, m.Name)
	}
	for i, c := range f.Classes {
		off := lay.ClassDefs + format.ClassDefSize*i
		w.put16(off, c.Type)
		w.put32(off+4, c.AccessFlags)
		w.put32(off+8, c.Superclass)
		w.put32(off+12, uint32(interfaces[i]))
		w.put32(off+16, c.SourceFile)
		w.put32(off+20, uint32(lay.Directories[i]))
		w.put32(off+24, uint32(lay.ClassData[i]))
		w.put32(off+28, uint32(lay.StaticValues[i]))
	}

	f.writeHeader(w, &lay)
	format.Seal(w.b)
	return &Image{Bytes: w.b, Layout: lay}
}

func (f *File) writeHeader(w *writer, lay *Layout) {
	version := f.Version
	if version == "" {
		version = "039"
	}
	copy(w.b, format.DexMagic)
	copy(w.b[4:], version)
	w.b[7] = 0

	size := len(w.b)
	w.put32(format.HeaderFileSizeOffset, uint32(size))
	w.put32(format.HeaderHeaderSizeOffset, format.HeaderSize)
	w.put32(format.HeaderEndianTagOffset, format.EndianConstant)
	w.put32(format.HeaderMapOffOffset, uint32(lay.MapOff))

	tables := []struct {
		sizeField, count, off int
	}{
		{format.HeaderStringIDsSizeOffset, len(f.Strings), lay.StringIDs},
		{format.HeaderTypeIDsSizeOffset, len(f.Types), lay.TypeIDs},
		{format.HeaderProtoIDsSizeOffset, len(f.Protos), lay.ProtoIDs},
		{format.HeaderFieldIDsSizeOffset, len(f.Fields), lay.FieldIDs},
		{format.HeaderMethodIDsSizeOffset, len(f.Methods), lay.MethodIDs},
		{format.HeaderClassDefsSizeOffset, len(f.Classes), lay.ClassDefs},
	}
	for _, t := range tables {
		if t.count == 0 {
			continue
		}
		w.put32(t.sizeField, uint32(t.count))
		w.put32(t.sizeField+4, uint32(t.off))
	}
	w.put32(format.HeaderDataSizeOffset, uint32(size-lay.DataOff))
	w.put32(format.HeaderDataOffOffset, uint32(lay.DataOff))
}

func (w *writer) typeList(types []uint16) int {
	w.align4()
	off := w.pos()
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.u16(t)
	}
	return off
}

func (w *writer) fields(fs []Field) {
	var prev uint32
	for _, f := range fs {
		w.uleb(f.Idx - prev)
		w.uleb(f.Flags)
		prev = f.Idx
	}
}

func (w *writer) methods(ms []Method, codeOff map[*Code]int) {
	var prev uint32
	for _, m := range ms {
		w.uleb(m.Idx - prev)
		w.uleb(m.Flags)
		var off int
		if m.Code != nil {
			off = codeOff[m.Code]
		}
		w.uleb(uint32(off))
		prev = m.Idx
	}
}

func setOff(s *annotationSet) int {
	if s == nil {
		return 0
	}
	return s.off
}

func (f *File) eachCode(fn func(*Code)) {
	for _, c := range f.Classes {
		for _, list := range [][]Method{c.DirectMethods, c.VirtualMethods} {
			for _, m := range list {
				if m.Code != nil {
					fn(m.Code)
				}
			}
		}
	}
}

func (f *File) hasHiddenapi() bool {
	for _, c := range f.Classes {
		if c.Hiddenapi != nil {
			return true
		}
	}
	return false
}

// EncodeMUTF8 converts s to modified UTF-8 and returns its length in UTF-16
// code units.
func EncodeMUTF8(s string) (uint32, []byte) {
	var units uint32
	var out []byte
	put := func(u uint16) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, 0xc0|byte(u>>6), 0x80|byte(u&0x3f))
		default:
			out = append(out, 0xe0|byte(u>>12), 0x80|byte((u>>6)&0x3f), 0x80|byte(u&0x3f))
		}
		units++
	}
	for _, r := range s {
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			put(uint16(r1))
			put(uint16(r2))
			continue
		}
		put(uint16(r))
	}
	return units, out
}
