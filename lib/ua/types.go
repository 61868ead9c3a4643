// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import "fmt"

// QualifiedName is a namespace-qualified browse name.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

func (w *Writer) WriteQualifiedName(q QualifiedName) {
	w.WriteUint16(q.NamespaceIndex)
	w.WriteString(q.Name)
}

func (r *Reader) ReadQualifiedName() QualifiedName {
	var q QualifiedName
	q.NamespaceIndex = r.ReadUint16()
	q.Name = r.ReadString()
	return q
}

// LocalizedText carries human-readable text with an optional locale. Each
// field is present on the wire only when its mask bit is set.
type LocalizedText struct {
	Locale string
	Text   string
}

const (
	localizedTextLocale = 0x01
	localizedTextText   = 0x02
)

func (w *Writer) WriteLocalizedText(t LocalizedText) {
	var mask byte
	if t.Locale != "" {
		mask |= localizedTextLocale
	}
	if t.Text != "" {
		mask |= localizedTextText
	}
	w.WriteUint8(mask)
	if mask&localizedTextLocale != 0 {
		w.WriteString(t.Locale)
	}
	if mask&localizedTextText != 0 {
		w.WriteString(t.Text)
	}
}

func (r *Reader) ReadLocalizedText() LocalizedText {
	var t LocalizedText
	mask := r.ReadUint8()
	if mask&^(localizedTextLocale|localizedTextText) != 0 {
		r.fail(fmt.Errorf("%w: localized text mask 0x%02x", ErrInvalidEncoding, mask))
		return t
	}
	if mask&localizedTextLocale != 0 {
		t.Locale = r.ReadString()
	}
	if mask&localizedTextText != 0 {
		t.Text = r.ReadString()
	}
	return t
}

// DiagnosticInfo is the recursive vendor diagnostic structure attached to
// service results. Fields are masked; Inner may nest.
type DiagnosticInfo struct {
	SymbolicID          int32
	NamespaceURI        int32
	LocalizedText       int32
	Locale              int32
	AdditionalInfo      string
	InnerStatusCode     StatusCode
	InnerDiagnosticInfo *DiagnosticInfo

	HasSymbolicID      bool
	HasNamespaceURI    bool
	HasLocalizedText   bool
	HasLocale          bool
	HasAdditionalInfo  bool
	HasInnerStatusCode bool
}

const (
	diagSymbolicID      = 0x01
	diagNamespaceURI    = 0x02
	diagLocalizedText   = 0x04
	diagLocale          = 0x08
	diagAdditionalInfo  = 0x10
	diagInnerStatusCode = 0x20
	diagInnerDiagInfo   = 0x40
)

func (w *Writer) WriteDiagnosticInfo(d DiagnosticInfo) {
	var mask byte
	if d.HasSymbolicID {
		mask |= diagSymbolicID
	}
	if d.HasNamespaceURI {
		mask |= diagNamespaceURI
	}
	if d.HasLocalizedText {
		mask |= diagLocalizedText
	}
	if d.HasLocale {
		mask |= diagLocale
	}
	if d.HasAdditionalInfo {
		mask |= diagAdditionalInfo
	}
	if d.HasInnerStatusCode {
		mask |= diagInnerStatusCode
	}
	if d.InnerDiagnosticInfo != nil {
		mask |= diagInnerDiagInfo
	}
	w.WriteUint8(mask)
	if d.HasSymbolicID {
		w.WriteInt32(d.SymbolicID)
	}
	if d.HasNamespaceURI {
		w.WriteInt32(d.NamespaceURI)
	}
	if d.HasLocalizedText {
		w.WriteInt32(d.LocalizedText)
	}
	if d.HasLocale {
		w.WriteInt32(d.Locale)
	}
	if d.HasAdditionalInfo {
		w.WriteString(d.AdditionalInfo)
	}
	if d.HasInnerStatusCode {
		w.WriteStatusCode(d.InnerStatusCode)
	}
	if d.InnerDiagnosticInfo != nil {
		w.WriteDiagnosticInfo(*d.InnerDiagnosticInfo)
	}
}

func (r *Reader) ReadDiagnosticInfo() DiagnosticInfo {
	var d DiagnosticInfo
	mask := r.ReadUint8()
	if mask&0x80 != 0 {
		r.fail(fmt.Errorf("%w: diagnostic info mask 0x%02x", ErrInvalidEncoding, mask))
		return d
	}
	if mask&diagSymbolicID != 0 {
		d.HasSymbolicID = true
		d.SymbolicID = r.ReadInt32()
	}
	if mask&diagNamespaceURI != 0 {
		d.HasNamespaceURI = true
		d.NamespaceURI = r.ReadInt32()
	}
	if mask&diagLocalizedText != 0 {
		d.HasLocalizedText = true
		d.LocalizedText = r.ReadInt32()
	}
	if mask&diagLocale != 0 {
		d.HasLocale = true
		d.Locale = r.ReadInt32()
	}
	if mask&diagAdditionalInfo != 0 {
		d.HasAdditionalInfo = true
		d.AdditionalInfo = r.ReadString()
	}
	if mask&diagInnerStatusCode != 0 {
		d.HasInnerStatusCode = true
		d.InnerStatusCode = r.ReadStatusCode()
	}
	if mask&diagInnerDiagInfo != 0 {
		inner := r.ReadDiagnosticInfo()
		d.InnerDiagnosticInfo = &inner
	}
	return d
}

func (r *Reader) ReadDiagnosticInfoArray() []DiagnosticInfo {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	ds := make([]DiagnosticInfo, n)
	for i := range ds {
		ds[i] = r.ReadDiagnosticInfo()
	}
	return ds
}

// ExtensionObject wraps a structured value together with the NodeID of its
// binary encoding. Body is the encoded body for binary and XML encodings,
// nil when the object carries no body.
type ExtensionObject struct {
	TypeID   NodeID
	Encoding byte
	Body     []byte
}

const (
	ExtensionObjectEmpty  = 0x00
	ExtensionObjectBinary = 0x01
	ExtensionObjectXML    = 0x02
)

// NewExtensionObject encodes v and wraps it under the given binary type id.
func NewExtensionObject(typeID uint32, v interface{ encode(w *Writer) }) ExtensionObject {
	bw := NewWriter()
	v.encode(bw)
	return ExtensionObject{
		TypeID:   NewNumericNodeID(0, typeID),
		Encoding: ExtensionObjectBinary,
		Body:     bw.Bytes(),
	}
}

func (e ExtensionObject) IsEmpty() bool { return e.Encoding == ExtensionObjectEmpty }

func (w *Writer) WriteExtensionObject(e ExtensionObject) {
	w.WriteNodeID(e.TypeID)
	w.WriteUint8(e.Encoding)
	switch e.Encoding {
	case ExtensionObjectEmpty:
	case ExtensionObjectBinary, ExtensionObjectXML:
		w.WriteByteString(e.Body)
	default:
		w.fail(fmt.Errorf("%w: extension object encoding 0x%02x", ErrInvalidEncoding, e.Encoding))
	}
}

func (r *Reader) ReadExtensionObject() ExtensionObject {
	var e ExtensionObject
	e.TypeID = r.ReadNodeID()
	e.Encoding = r.ReadUint8()
	switch e.Encoding {
	case ExtensionObjectEmpty:
	case ExtensionObjectBinary, ExtensionObjectXML:
		e.Body = r.ReadByteString()
	default:
		r.fail(fmt.Errorf("%w: extension object encoding 0x%02x", ErrInvalidEncoding, e.Encoding))
	}
	return e
}

func (r *Reader) ReadExtensionObjectArray() []ExtensionObject {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	es := make([]ExtensionObject, n)
	for i := range es {
		es[i] = r.ReadExtensionObject()
	}
	return es
}

// SignatureData holds an algorithm URI and the signature bytes, used for the
// client/server application signatures and user token signatures.
type SignatureData struct {
	Algorithm string
	Signature []byte
}

func (w *Writer) WriteSignatureData(s SignatureData) {
	w.WriteString(s.Algorithm)
	w.WriteByteString(s.Signature)
}

func (r *Reader) ReadSignatureData() SignatureData {
	var s SignatureData
	s.Algorithm = r.ReadString()
	s.Signature = r.ReadByteString()
	return s
}
