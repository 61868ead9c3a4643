// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import (
	"fmt"
	"time"
)

// TypeID identifies a built-in type in the Variant encoding mask.
type TypeID byte

const (
	TypeBoolean        TypeID = 1
	TypeSByte          TypeID = 2
	TypeByte           TypeID = 3
	TypeInt16          TypeID = 4
	TypeUint16         TypeID = 5
	TypeInt32          TypeID = 6
	TypeUint32         TypeID = 7
	TypeInt64          TypeID = 8
	TypeUint64         TypeID = 9
	TypeFloat          TypeID = 10
	TypeDouble         TypeID = 11
	TypeString         TypeID = 12
	TypeDateTime       TypeID = 13
	TypeGUID           TypeID = 14
	TypeByteString     TypeID = 15
	TypeXMLElement     TypeID = 16
	TypeNodeID         TypeID = 17
	TypeExpandedNodeID TypeID = 18
	TypeStatusCode     TypeID = 19
	TypeQualifiedName  TypeID = 20
	TypeLocalizedText  TypeID = 21
	TypeExtensionObj   TypeID = 22
	TypeDataValue      TypeID = 23
	TypeVariant        TypeID = 24
	TypeDiagnosticInfo TypeID = 25
)

const (
	variantTypeMask       = 0x3F
	variantDimensionsFlag = 0x40
	variantArrayFlag      = 0x80
)

// Variant is a tagged value: a scalar of a built-in type, or a (possibly
// multi-dimensional) array of one. For arrays Value holds a typed slice and
// Dimensions, when non-nil, gives the shape; the flat element count must
// equal the product of the dimensions.
type Variant struct {
	Type       TypeID
	Value      any
	IsArray    bool
	Dimensions []int32
}

// NewVariant infers the type tag from a Go value. Supported inputs are the
// scalar and slice mappings listed below; []byte maps to a scalar ByteString,
// and slices of other scalar types without a case here (int8, GUID,
// ExpandedNodeID, QualifiedName) are not supported. It panics on unsupported types;
// use the struct literal for exotic cases.
func NewVariant(v any) Variant {
	switch x := v.(type) {
	case Variant:
		return x
	case bool:
		return Variant{Type: TypeBoolean, Value: x}
	case int8:
		return Variant{Type: TypeSByte, Value: x}
	case byte:
		return Variant{Type: TypeByte, Value: x}
	case int16:
		return Variant{Type: TypeInt16, Value: x}
	case uint16:
		return Variant{Type: TypeUint16, Value: x}
	case int32:
		return Variant{Type: TypeInt32, Value: x}
	case int:
		return Variant{Type: TypeInt32, Value: int32(x)}
	case uint32:
		return Variant{Type: TypeUint32, Value: x}
	case int64:
		return Variant{Type: TypeInt64, Value: x}
	case uint64:
		return Variant{Type: TypeUint64, Value: x}
	case float32:
		return Variant{Type: TypeFloat, Value: x}
	case float64:
		return Variant{Type: TypeDouble, Value: x}
	case string:
		return Variant{Type: TypeString, Value: x}
	case time.Time:
		return Variant{Type: TypeDateTime, Value: x}
	case GUID:
		return Variant{Type: TypeGUID, Value: x}
	case []byte:
		return Variant{Type: TypeByteString, Value: x}
	case NodeID:
		return Variant{Type: TypeNodeID, Value: x}
	case ExpandedNodeID:
		return Variant{Type: TypeExpandedNodeID, Value: x}
	case StatusCode:
		return Variant{Type: TypeStatusCode, Value: x}
	case QualifiedName:
		return Variant{Type: TypeQualifiedName, Value: x}
	case LocalizedText:
		return Variant{Type: TypeLocalizedText, Value: x}
	case ExtensionObject:
		return Variant{Type: TypeExtensionObj, Value: x}
	case []bool:
		return Variant{Type: TypeBoolean, Value: x, IsArray: true}
	case []int16:
		return Variant{Type: TypeInt16, Value: x, IsArray: true}
	case []uint16:
		return Variant{Type: TypeUint16, Value: x, IsArray: true}
	case []int32:
		return Variant{Type: TypeInt32, Value: x, IsArray: true}
	case []uint32:
		return Variant{Type: TypeUint32, Value: x, IsArray: true}
	case []int64:
		return Variant{Type: TypeInt64, Value: x, IsArray: true}
	case []uint64:
		return Variant{Type: TypeUint64, Value: x, IsArray: true}
	case []float32:
		return Variant{Type: TypeFloat, Value: x, IsArray: true}
	case []float64:
		return Variant{Type: TypeDouble, Value: x, IsArray: true}
	case []string:
		return Variant{Type: TypeString, Value: x, IsArray: true}
	case []time.Time:
		return Variant{Type: TypeDateTime, Value: x, IsArray: true}
	case [][]byte:
		return Variant{Type: TypeByteString, Value: x, IsArray: true}
	case []NodeID:
		return Variant{Type: TypeNodeID, Value: x, IsArray: true}
	case []StatusCode:
		return Variant{Type: TypeStatusCode, Value: x, IsArray: true}
	case []LocalizedText:
		return Variant{Type: TypeLocalizedText, Value: x, IsArray: true}
	case []ExtensionObject:
		return Variant{Type: TypeExtensionObj, Value: x, IsArray: true}
	case []Variant:
		return Variant{Type: TypeVariant, Value: x, IsArray: true}
	default:
		panic(fmt.Sprintf("ua: no variant mapping for %T", v))
	}
}

// IsNull reports whether the variant carries no value at all.
func (v Variant) IsNull() bool { return v.Type == 0 }

func (w *Writer) WriteVariant(v Variant) {
	if v.IsNull() {
		w.WriteUint8(0)
		return
	}
	mask := byte(v.Type) & variantTypeMask
	if v.IsArray {
		mask |= variantArrayFlag
	}
	if len(v.Dimensions) > 0 {
		mask |= variantDimensionsFlag
	}
	w.WriteUint8(mask)
	if !v.IsArray {
		w.writeVariantScalar(v.Type, v.Value)
	} else {
		w.writeVariantArray(v.Type, v.Value)
	}
	if len(v.Dimensions) > 0 {
		w.WriteInt32(int32(len(v.Dimensions)))
		for _, d := range v.Dimensions {
			w.WriteInt32(d)
		}
	}
}

func (w *Writer) writeVariantScalar(t TypeID, v any) {
	switch t {
	case TypeBoolean:
		w.WriteBool(v.(bool))
	case TypeSByte:
		w.WriteSByte(v.(int8))
	case TypeByte:
		w.WriteUint8(v.(byte))
	case TypeInt16:
		w.WriteInt16(v.(int16))
	case TypeUint16:
		w.WriteUint16(v.(uint16))
	case TypeInt32:
		w.WriteInt32(v.(int32))
	case TypeUint32:
		w.WriteUint32(v.(uint32))
	case TypeInt64:
		w.WriteInt64(v.(int64))
	case TypeUint64:
		w.WriteUint64(v.(uint64))
	case TypeFloat:
		w.WriteFloat32(v.(float32))
	case TypeDouble:
		w.WriteFloat64(v.(float64))
	case TypeString, TypeXMLElement:
		w.WriteString(v.(string))
	case TypeDateTime:
		w.WriteTime(v.(time.Time))
	case TypeGUID:
		w.WriteGUID(v.(GUID))
	case TypeByteString:
		w.WriteByteString(v.([]byte))
	case TypeNodeID:
		w.WriteNodeID(v.(NodeID))
	case TypeExpandedNodeID:
		w.WriteExpandedNodeID(v.(ExpandedNodeID))
	case TypeStatusCode:
		w.WriteStatusCode(v.(StatusCode))
	case TypeQualifiedName:
		w.WriteQualifiedName(v.(QualifiedName))
	case TypeLocalizedText:
		w.WriteLocalizedText(v.(LocalizedText))
	case TypeExtensionObj:
		w.WriteExtensionObject(v.(ExtensionObject))
	case TypeDataValue:
		w.WriteDataValue(v.(DataValue))
	case TypeVariant:
		w.WriteVariant(v.(Variant))
	case TypeDiagnosticInfo:
		w.WriteDiagnosticInfo(v.(DiagnosticInfo))
	default:
		w.fail(fmt.Errorf("%w: variant type %d", ErrInvalidEncoding, t))
	}
}

func (w *Writer) writeVariantArray(t TypeID, v any) {
	elems := variantElems(v)
	if elems == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(elems)))
	for _, e := range elems {
		w.writeVariantScalar(t, e)
	}
}

// variantElems flattens a typed slice into scalar values. Returns nil for a
// nil slice (encoded as a null array).
func variantElems(v any) []any {
	if v == nil {
		return nil
	}
	switch xs := v.(type) {
	case []bool:
		return anySlice(xs)
	case []int8:
		return anySlice(xs)
	case []byte:
		return anySlice(xs)
	case []int16:
		return anySlice(xs)
	case []uint16:
		return anySlice(xs)
	case []int32:
		return anySlice(xs)
	case []uint32:
		return anySlice(xs)
	case []int64:
		return anySlice(xs)
	case []uint64:
		return anySlice(xs)
	case []float32:
		return anySlice(xs)
	case []float64:
		return anySlice(xs)
	case []string:
		return anySlice(xs)
	case []time.Time:
		return anySlice(xs)
	case []GUID:
		return anySlice(xs)
	case [][]byte:
		return anySlice(xs)
	case []NodeID:
		return anySlice(xs)
	case []ExpandedNodeID:
		return anySlice(xs)
	case []StatusCode:
		return anySlice(xs)
	case []QualifiedName:
		return anySlice(xs)
	case []LocalizedText:
		return anySlice(xs)
	case []ExtensionObject:
		return anySlice(xs)
	case []DataValue:
		return anySlice(xs)
	case []Variant:
		return anySlice(xs)
	case []DiagnosticInfo:
		return anySlice(xs)
	case []any:
		return xs
	default:
		return nil
	}
}

func anySlice[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func (r *Reader) ReadVariant() Variant {
	mask := r.ReadUint8()
	if mask == 0 {
		return Variant{}
	}
	t := TypeID(mask & variantTypeMask)
	if t == 0 || t > TypeDiagnosticInfo {
		r.fail(fmt.Errorf("%w: variant type %d", ErrInvalidEncoding, t))
		return Variant{}
	}
	v := Variant{Type: t}
	if mask&variantArrayFlag != 0 {
		v.IsArray = true
		v.Value = r.readVariantArray(t)
	} else {
		v.Value = r.readVariantScalar(t)
	}
	if mask&variantDimensionsFlag != 0 {
		n := r.arrayLen()
		if n > 0 {
			v.Dimensions = make([]int32, n)
			for i := range v.Dimensions {
				v.Dimensions[i] = r.ReadInt32()
			}
		}
	}
	return v
}

func (r *Reader) readVariantScalar(t TypeID) any {
	switch t {
	case TypeBoolean:
		return r.ReadBool()
	case TypeSByte:
		return r.ReadSByte()
	case TypeByte:
		return r.ReadUint8()
	case TypeInt16:
		return r.ReadInt16()
	case TypeUint16:
		return r.ReadUint16()
	case TypeInt32:
		return r.ReadInt32()
	case TypeUint32:
		return r.ReadUint32()
	case TypeInt64:
		return r.ReadInt64()
	case TypeUint64:
		return r.ReadUint64()
	case TypeFloat:
		return r.ReadFloat32()
	case TypeDouble:
		return r.ReadFloat64()
	case TypeString, TypeXMLElement:
		return r.ReadString()
	case TypeDateTime:
		return r.ReadTime()
	case TypeGUID:
		return r.ReadGUID()
	case TypeByteString:
		return r.ReadByteString()
	case TypeNodeID:
		return r.ReadNodeID()
	case TypeExpandedNodeID:
		return r.ReadExpandedNodeID()
	case TypeStatusCode:
		return r.ReadStatusCode()
	case TypeQualifiedName:
		return r.ReadQualifiedName()
	case TypeLocalizedText:
		return r.ReadLocalizedText()
	case TypeExtensionObj:
		return r.ReadExtensionObject()
	case TypeDataValue:
		return r.ReadDataValue()
	case TypeVariant:
		return r.ReadVariant()
	case TypeDiagnosticInfo:
		return r.ReadDiagnosticInfo()
	default:
		r.fail(fmt.Errorf("%w: variant type %d", ErrInvalidEncoding, t))
		return nil
	}
}

// readVariantArray decodes into the same typed slices NewVariant accepts, so
// decode(encode(v)) round-trips structurally.
func (r *Reader) readVariantArray(t TypeID) any {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	switch t {
	case TypeBoolean:
		return readSlice(r, n, (*Reader).ReadBool)
	case TypeSByte:
		return readSlice(r, n, (*Reader).ReadSByte)
	case TypeByte:
		return readSlice(r, n, (*Reader).ReadUint8)
	case TypeInt16:
		return readSlice(r, n, (*Reader).ReadInt16)
	case TypeUint16:
		return readSlice(r, n, (*Reader).ReadUint16)
	case TypeInt32:
		return readSlice(r, n, (*Reader).ReadInt32)
	case TypeUint32:
		return readSlice(r, n, (*Reader).ReadUint32)
	case TypeInt64:
		return readSlice(r, n, (*Reader).ReadInt64)
	case TypeUint64:
		return readSlice(r, n, (*Reader).ReadUint64)
	case TypeFloat:
		return readSlice(r, n, (*Reader).ReadFloat32)
	case TypeDouble:
		return readSlice(r, n, (*Reader).ReadFloat64)
	case TypeString, TypeXMLElement:
		return readSlice(r, n, (*Reader).ReadString)
	case TypeDateTime:
		return readSlice(r, n, (*Reader).ReadTime)
	case TypeGUID:
		return readSlice(r, n, (*Reader).ReadGUID)
	case TypeByteString:
		return readSlice(r, n, (*Reader).ReadByteString)
	case TypeNodeID:
		return readSlice(r, n, (*Reader).ReadNodeID)
	case TypeExpandedNodeID:
		return readSlice(r, n, (*Reader).ReadExpandedNodeID)
	case TypeStatusCode:
		return readSlice(r, n, (*Reader).ReadStatusCode)
	case TypeQualifiedName:
		return readSlice(r, n, (*Reader).ReadQualifiedName)
	case TypeLocalizedText:
		return readSlice(r, n, (*Reader).ReadLocalizedText)
	case TypeExtensionObj:
		return readSlice(r, n, (*Reader).ReadExtensionObject)
	case TypeDataValue:
		return readSlice(r, n, (*Reader).ReadDataValue)
	case TypeVariant:
		return readSlice(r, n, (*Reader).ReadVariant)
	case TypeDiagnosticInfo:
		return readSlice(r, n, (*Reader).ReadDiagnosticInfo)
	default:
		r.fail(fmt.Errorf("%w: variant type %d", ErrInvalidEncoding, t))
		return nil
	}
}

func readSlice[T any](r *Reader, n int, read func(*Reader) T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = read(r)
	}
	return out
}

func (r *Reader) ReadVariantArray() []Variant {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	vs := make([]Variant, n)
	for i := range vs {
		vs[i] = r.ReadVariant()
	}
	return vs
}

func (w *Writer) WriteVariantArray(vs []Variant) {
	if vs == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(vs)))
	for _, v := range vs {
		w.WriteVariant(v)
	}
}
