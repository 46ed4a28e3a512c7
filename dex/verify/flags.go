package verify

import (
	"fmt"

	"github.com/joshuapare/dexkit/internal/format"
)

func (v *Verifier) checkClassDataItemField(idx, accessFlags, classAccessFlags, classIdx uint32) error {
	if got := uint32(v.fieldID(idx).ClassIdx); got != classIdx {
		return v.failf(CategoryReference, "Field's class index unexpected, %d vs %d", got, classIdx)
	}
	return v.checkFieldAccessFlags(idx, accessFlags, classAccessFlags)
}

func (v *Verifier) checkClassDataItemMethod(idx, accessFlags, classAccessFlags, classIdx uint32,
	hasCode, expectDirect bool) error {
	m := v.methodID(idx)
	if got := uint32(m.ClassIdx); got != classIdx {
		return v.failf(CategoryReference, "Method's class index unexpected, %d vs %d", got, classIdx)
	}
	if err := v.checkIndex(m.NameIdx, v.hdr.StringIDs.Size, "method flags verification"); err != nil {
		return err
	}

	var constructorFlags uint32
	if m.NameIdx >= v.angleStart && m.NameIdx < v.angleEnd {
		switch m.NameIdx {
		case v.clinitIdx:
			constructorFlags = format.AccStatic | format.AccConstructor
		case v.initIdx:
			constructorFlags = format.AccConstructor
		default:
			return v.failf(CategoryPolicy, "Bad method name for method index %d", idx)
		}
	}

	if err := v.checkMethodAccessFlags(idx, accessFlags, classAccessFlags, constructorFlags, hasCode, expectDirect); err != nil {
		return err
	}
	if constructorFlags != 0 {
		return v.checkConstructorProperties(idx, constructorFlags)
	}
	return nil
}

// checkFieldAccessFlags applies the field flag rules. Interface fields must be
// public static final; older files only get a warning for that.
func (v *Verifier) checkFieldAccessFlags(idx, flags, classFlags uint32) error {
	if flags&^format.AccJavaFlagsMask != 0 {
		return v.failf(CategoryPolicy, "Bad field access_flags for %s: %x(%s)",
			v.fieldDescription(idx), flags, format.PrettyJavaAccessFlags(flags))
	}
	if !format.AtMostOneVisibility(flags) {
		return v.failf(CategoryPolicy, "Field may have only one of public/protected/private, %s: %x(%s)",
			v.fieldDescription(idx), flags, format.PrettyJavaAccessFlags(flags))
	}

	if classFlags&format.AccInterface != 0 {
		const publicFinalStatic = format.AccPublic | format.AccFinal | format.AccStatic
		if flags&publicFinalStatic != publicFinalStatic {
			if err := v.violation(v.compatOutcome(), CategoryPolicy,
				"Interface field is not public final static, %s: %x(%s)",
				v.fieldDescription(idx), flags, format.PrettyJavaAccessFlags(flags)); err != nil {
				return err
			}
		}
		const allowed = publicFinalStatic | format.AccSynthetic
		if flags&format.AccFieldFlags&^allowed != 0 {
			return v.violation(v.compatOutcome(), CategoryPolicy,
				"Interface field has disallowed flag, %s: %x(%s)",
				v.fieldDescription(idx), flags, format.PrettyJavaAccessFlags(flags))
		}
		return nil
	}

	const volatileFinal = format.AccVolatile | format.AccFinal
	if flags&volatileFinal == volatileFinal {
		return v.failf(CategoryPolicy, "Fields may not be volatile and final: %s", v.fieldDescription(idx))
	}
	return nil
}

// checkMethodAccessFlags applies the method flag rules in a fixed order; the
// first broken rule is reported. constructorFlags is what the method's name
// implies: AccConstructor for <init>, plus AccStatic for <clinit>.
func (v *Verifier) checkMethodAccessFlags(idx, flags, classFlags, constructorFlags uint32,
	hasCode, expectDirect bool) error {
	if flags&^format.AccAllMethodFlags != 0 {
		return v.failf(CategoryPolicy, "Bad method access_flags for %s: %x", v.methodDescription(idx), flags)
	}
	if !format.AtMostOneVisibility(flags) {
		return v.failf(CategoryPolicy, "Method may have only one of public/protected/private, %s: %x",
			v.methodDescription(idx), flags)
	}

	byName := constructorFlags&(format.AccStatic|format.AccConstructor) != 0
	if flags&format.AccConstructor != 0 && !byName {
		return v.failf(CategoryPolicy, "Method %d(%s) is marked constructor, but doesn't match name",
			idx, v.methodDescription(idx))
	}
	if byName {
		isStatic := flags&format.AccStatic != 0
		isClinit := constructorFlags == format.AccStatic|format.AccConstructor
		if isStatic != isClinit {
			if err := v.violation(v.compatOutcome(), CategoryPolicy,
				"Constructor %d(%s) is not flagged correctly wrt/ static.", idx, v.methodDescription(idx)); err != nil {
				return err
			}
		}
	}

	isDirect := flags&(format.AccStatic|format.AccPrivate) != 0 || byName
	if isDirect != expectDirect {
		return v.failf(CategoryPolicy, "Direct/virtual method %d(%s) not in expected list %d",
			idx, v.methodDescription(idx), boolToInt(expectDirect))
	}

	flags &= format.AccMethodFlags
	isInterface := classFlags&format.AccInterface != 0

	if isInterface {
		desired := uint32(format.AccPublic | format.AccStatic)
		if v.hdr.SupportsDefaultMethods() {
			desired |= format.AccPrivate
		}
		if flags&desired == 0 {
			if err := v.violation(v.compatOutcome(), CategoryPolicy,
				"Interface virtual method %d(%s) is not public", idx, v.methodDescription(idx)); err != nil {
				return err
			}
		}
	}

	if !hasCode {
		if flags&(format.AccNative|format.AccAbstract) == 0 {
			return v.failf(CategoryPolicy, "Method %d(%s) has no code, but is not marked native or abstract",
				idx, v.methodDescription(idx))
		}
		if byName {
			if err := v.violation(v.compatOutcome(), CategoryPolicy,
				"Constructor %d(%s) must not be abstract or native", idx, v.methodDescription(idx)); err != nil {
				return err
			}
		}
		if flags&format.AccAbstract != 0 {
			if flags&format.AccAbstractForbidden != 0 {
				return v.failf(CategoryPolicy, "Abstract method %d(%s) has disallowed access flags %x",
					idx, v.methodDescription(idx), flags)
			}
			if classFlags&(format.AccAbstract|format.AccInterface) == 0 {
				v.warn(fmt.Sprintf(
					"Method %s is abstract, but the declaring class is neither abstract nor an interface in dex file %s",
					v.methodDescription(idx), v.location))
			}
		}
		const publicAbstract = format.AccPublic | format.AccAbstract
		if isInterface && flags&publicAbstract != publicAbstract {
			if err := v.violation(v.compatOutcome(), CategoryPolicy,
				"Interface method %d(%s) is not public and abstract", idx, v.methodDescription(idx)); err != nil {
				return err
			}
		}
		return nil
	}

	if flags&(format.AccNative|format.AccAbstract) != 0 {
		return v.failf(CategoryPolicy, "Method %d(%s) has code, but is marked native or abstract",
			idx, v.methodDescription(idx))
	}

	if constructorFlags == format.AccConstructor && flags&^format.AccInitAllowed != 0 {
		return v.failf(CategoryPolicy, "Constructor %d(%s) flagged inappropriately %x",
			idx, v.methodDescription(idx), flags)
	}
	return nil
}

// checkConstructorProperties requires <clinit> to be ()V and <init> to return
// void.
func (v *Verifier) checkConstructorProperties(idx, constructorFlags uint32) error {
	m := v.methodID(idx)
	proto := v.protoID(uint32(m.ProtoIdx))
	isVoid := string(v.typeDescriptor(uint32(proto.ReturnTypeIdx))) == "V"

	if constructorFlags == format.AccStatic|format.AccConstructor {
		var params uint32
		if proto.ParametersOff != 0 {
			if err := v.checkOffsetToTypeMap(proto.ParametersOff, format.TypeTypeList); err != nil {
				return err
			}
			params = uint32(len(v.typeList(proto.ParametersOff)))
		}
		if !isVoid || params != 0 {
			return v.failf(CategoryPolicy, "<clinit> must have descriptor ()V")
		}
		return nil
	}
	if !isVoid {
		return v.failf(CategoryPolicy, "Constructor %d(%s) must be void", idx, v.methodDescription(idx))
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
