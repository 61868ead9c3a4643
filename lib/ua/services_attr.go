// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import "time"

// ViewDescription scopes a browse to a server-defined view. The zero value
// means the whole address space.
type ViewDescription struct {
	ViewID      NodeID
	Timestamp   time.Time
	ViewVersion uint32
}

func (v *ViewDescription) encode(w *Writer) {
	w.WriteNodeID(v.ViewID)
	w.WriteTime(v.Timestamp)
	w.WriteUint32(v.ViewVersion)
}

func (v *ViewDescription) decode(r *Reader) {
	v.ViewID = r.ReadNodeID()
	v.Timestamp = r.ReadTime()
	v.ViewVersion = r.ReadUint32()
}

// BrowseDescription selects the references to return for one starting node.
type BrowseDescription struct {
	NodeID          NodeID
	BrowseDirection BrowseDirection
	ReferenceTypeID NodeID
	IncludeSubtypes bool
	NodeClassMask   NodeClass
	ResultMask      uint32
}

func (b *BrowseDescription) encode(w *Writer) {
	w.WriteNodeID(b.NodeID)
	w.WriteUint32(uint32(b.BrowseDirection))
	w.WriteNodeID(b.ReferenceTypeID)
	w.WriteBool(b.IncludeSubtypes)
	w.WriteUint32(uint32(b.NodeClassMask))
	w.WriteUint32(b.ResultMask)
}

func (b *BrowseDescription) decode(r *Reader) {
	b.NodeID = r.ReadNodeID()
	b.BrowseDirection = BrowseDirection(r.ReadUint32())
	b.ReferenceTypeID = r.ReadNodeID()
	b.IncludeSubtypes = r.ReadBool()
	b.NodeClassMask = NodeClass(r.ReadUint32())
	b.ResultMask = r.ReadUint32()
}

// ReferenceDescription is one reference returned by Browse.
type ReferenceDescription struct {
	ReferenceTypeID NodeID
	IsForward       bool
	NodeID          ExpandedNodeID
	BrowseName      QualifiedName
	DisplayName     LocalizedText
	NodeClass       NodeClass
	TypeDefinition  ExpandedNodeID
}

func (d *ReferenceDescription) encode(w *Writer) {
	w.WriteNodeID(d.ReferenceTypeID)
	w.WriteBool(d.IsForward)
	w.WriteExpandedNodeID(d.NodeID)
	w.WriteQualifiedName(d.BrowseName)
	w.WriteLocalizedText(d.DisplayName)
	w.WriteUint32(uint32(d.NodeClass))
	w.WriteExpandedNodeID(d.TypeDefinition)
}

func (d *ReferenceDescription) decode(r *Reader) {
	d.ReferenceTypeID = r.ReadNodeID()
	d.IsForward = r.ReadBool()
	d.NodeID = r.ReadExpandedNodeID()
	d.BrowseName = r.ReadQualifiedName()
	d.DisplayName = r.ReadLocalizedText()
	d.NodeClass = NodeClass(r.ReadUint32())
	d.TypeDefinition = r.ReadExpandedNodeID()
}

// BrowseResult holds the references for one browse description plus the
// continuation point when the server truncated the result.
type BrowseResult struct {
	StatusCode        StatusCode
	ContinuationPoint []byte
	References        []ReferenceDescription
}

func (b *BrowseResult) encode(w *Writer) {
	w.WriteStatusCode(b.StatusCode)
	w.WriteByteString(b.ContinuationPoint)
	if b.References == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(b.References)))
	for i := range b.References {
		b.References[i].encode(w)
	}
}

func (b *BrowseResult) decode(r *Reader) {
	b.StatusCode = r.ReadStatusCode()
	b.ContinuationPoint = r.ReadByteString()
	if n := r.arrayLen(); n >= 0 {
		b.References = make([]ReferenceDescription, n)
		for i := range b.References {
			b.References[i].decode(r)
		}
	}
}

type BrowseRequest struct {
	RequestHeader                 RequestHeader
	View                          ViewDescription
	RequestedMaxReferencesPerNode uint32
	NodesToBrowse                 []BrowseDescription
}

func (*BrowseRequest) TypeID() uint32 { return IDBrowseRequest }
func (q *BrowseRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *BrowseRequest) Encode(w *Writer) {
	writeTypeID(w, IDBrowseRequest)
	q.RequestHeader.encode(w)
	q.View.encode(w)
	w.WriteUint32(q.RequestedMaxReferencesPerNode)
	if q.NodesToBrowse == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.NodesToBrowse)))
	for i := range q.NodesToBrowse {
		q.NodesToBrowse[i].encode(w)
	}
}

func (q *BrowseRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.View.decode(r)
	q.RequestedMaxReferencesPerNode = r.ReadUint32()
	if n := r.arrayLen(); n >= 0 {
		q.NodesToBrowse = make([]BrowseDescription, n)
		for i := range q.NodesToBrowse {
			q.NodesToBrowse[i].decode(r)
		}
	}
}

type BrowseResponse struct {
	ResponseHeader  ResponseHeader
	Results         []BrowseResult
	DiagnosticInfos []DiagnosticInfo
}

func (*BrowseResponse) TypeID() uint32 { return IDBrowseResponse }
func (p *BrowseResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *BrowseResponse) Encode(w *Writer) {
	writeTypeID(w, IDBrowseResponse)
	p.encodeBody(w)
}

func (p *BrowseResponse) encodeBody(w *Writer) {
	p.ResponseHeader.encode(w)
	if p.Results == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(p.Results)))
		for i := range p.Results {
			p.Results[i].encode(w)
		}
	}
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *BrowseResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		p.Results = make([]BrowseResult, n)
		for i := range p.Results {
			p.Results[i].decode(r)
		}
	}
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type BrowseNextRequest struct {
	RequestHeader             RequestHeader
	ReleaseContinuationPoints bool
	ContinuationPoints        [][]byte
}

func (*BrowseNextRequest) TypeID() uint32 { return IDBrowseNextRequest }
func (q *BrowseNextRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *BrowseNextRequest) Encode(w *Writer) {
	writeTypeID(w, IDBrowseNextRequest)
	q.RequestHeader.encode(w)
	w.WriteBool(q.ReleaseContinuationPoints)
	if q.ContinuationPoints == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.ContinuationPoints)))
	for _, cp := range q.ContinuationPoints {
		w.WriteByteString(cp)
	}
}

func (q *BrowseNextRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.ReleaseContinuationPoints = r.ReadBool()
	if n := r.arrayLen(); n >= 0 {
		q.ContinuationPoints = make([][]byte, n)
		for i := range q.ContinuationPoints {
			q.ContinuationPoints[i] = r.ReadByteString()
		}
	}
}

// BrowseNextResponse shares the BrowseResponse body layout.
type BrowseNextResponse struct {
	BrowseResponse
}

func (*BrowseNextResponse) TypeID() uint32 { return IDBrowseNextResponse }

func (p *BrowseNextResponse) Encode(w *Writer) {
	writeTypeID(w, IDBrowseNextResponse)
	p.encodeBody(w)
}

type RegisterNodesRequest struct {
	RequestHeader   RequestHeader
	NodesToRegister []NodeID
}

func (*RegisterNodesRequest) TypeID() uint32 { return IDRegisterNodesRequest }
func (q *RegisterNodesRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *RegisterNodesRequest) Encode(w *Writer) {
	writeTypeID(w, IDRegisterNodesRequest)
	q.RequestHeader.encode(w)
	writeNodeIDArray(w, q.NodesToRegister)
}

func (q *RegisterNodesRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.NodesToRegister = readNodeIDArray(r)
}

type RegisterNodesResponse struct {
	ResponseHeader    ResponseHeader
	RegisteredNodeIDs []NodeID
}

func (*RegisterNodesResponse) TypeID() uint32 { return IDRegisterNodesResponse }
func (p *RegisterNodesResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *RegisterNodesResponse) Encode(w *Writer) {
	writeTypeID(w, IDRegisterNodesResponse)
	p.ResponseHeader.encode(w)
	writeNodeIDArray(w, p.RegisteredNodeIDs)
}

func (p *RegisterNodesResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.RegisteredNodeIDs = readNodeIDArray(r)
}

type UnregisterNodesRequest struct {
	RequestHeader     RequestHeader
	NodesToUnregister []NodeID
}

func (*UnregisterNodesRequest) TypeID() uint32 { return IDUnregisterNodesRequest }
func (q *UnregisterNodesRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *UnregisterNodesRequest) Encode(w *Writer) {
	writeTypeID(w, IDUnregisterNodesRequest)
	q.RequestHeader.encode(w)
	writeNodeIDArray(w, q.NodesToUnregister)
}

func (q *UnregisterNodesRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.NodesToUnregister = readNodeIDArray(r)
}

type UnregisterNodesResponse struct {
	ResponseHeader ResponseHeader
}

func (*UnregisterNodesResponse) TypeID() uint32 { return IDUnregisterNodesResponse }
func (p *UnregisterNodesResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *UnregisterNodesResponse) Encode(w *Writer) {
	writeTypeID(w, IDUnregisterNodesResponse)
	p.ResponseHeader.encode(w)
}

func (p *UnregisterNodesResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
}

// ReadValueID selects one attribute of one node.
type ReadValueID struct {
	NodeID       NodeID
	AttributeID  AttributeID
	IndexRange   string
	DataEncoding QualifiedName
}

func (v *ReadValueID) encode(w *Writer) {
	w.WriteNodeID(v.NodeID)
	w.WriteUint32(uint32(v.AttributeID))
	w.WriteString(v.IndexRange)
	w.WriteQualifiedName(v.DataEncoding)
}

func (v *ReadValueID) decode(r *Reader) {
	v.NodeID = r.ReadNodeID()
	v.AttributeID = AttributeID(r.ReadUint32())
	v.IndexRange = r.ReadString()
	v.DataEncoding = r.ReadQualifiedName()
}

type ReadRequest struct {
	RequestHeader      RequestHeader
	MaxAge             float64
	TimestampsToReturn TimestampsToReturn
	NodesToRead        []ReadValueID
}

func (*ReadRequest) TypeID() uint32 { return IDReadRequest }
func (q *ReadRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *ReadRequest) Encode(w *Writer) {
	writeTypeID(w, IDReadRequest)
	q.RequestHeader.encode(w)
	w.WriteFloat64(q.MaxAge)
	w.WriteUint32(uint32(q.TimestampsToReturn))
	if q.NodesToRead == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.NodesToRead)))
	for i := range q.NodesToRead {
		q.NodesToRead[i].encode(w)
	}
}

func (q *ReadRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.MaxAge = r.ReadFloat64()
	q.TimestampsToReturn = TimestampsToReturn(r.ReadUint32())
	if n := r.arrayLen(); n >= 0 {
		q.NodesToRead = make([]ReadValueID, n)
		for i := range q.NodesToRead {
			q.NodesToRead[i].decode(r)
		}
	}
}

type ReadResponse struct {
	ResponseHeader  ResponseHeader
	Results         []DataValue
	DiagnosticInfos []DiagnosticInfo
}

func (*ReadResponse) TypeID() uint32 { return IDReadResponse }
func (p *ReadResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *ReadResponse) Encode(w *Writer) {
	writeTypeID(w, IDReadResponse)
	p.ResponseHeader.encode(w)
	w.WriteDataValueArray(p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *ReadResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = r.ReadDataValueArray()
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

// WriteValue carries one attribute write.
type WriteValue struct {
	NodeID      NodeID
	AttributeID AttributeID
	IndexRange  string
	Value       DataValue
}

func (v *WriteValue) encode(w *Writer) {
	w.WriteNodeID(v.NodeID)
	w.WriteUint32(uint32(v.AttributeID))
	w.WriteString(v.IndexRange)
	w.WriteDataValue(v.Value)
}

func (v *WriteValue) decode(r *Reader) {
	v.NodeID = r.ReadNodeID()
	v.AttributeID = AttributeID(r.ReadUint32())
	v.IndexRange = r.ReadString()
	v.Value = r.ReadDataValue()
}

type WriteRequest struct {
	RequestHeader RequestHeader
	NodesToWrite  []WriteValue
}

func (*WriteRequest) TypeID() uint32 { return IDWriteRequest }
func (q *WriteRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *WriteRequest) Encode(w *Writer) {
	writeTypeID(w, IDWriteRequest)
	q.RequestHeader.encode(w)
	if q.NodesToWrite == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.NodesToWrite)))
	for i := range q.NodesToWrite {
		q.NodesToWrite[i].encode(w)
	}
}

func (q *WriteRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		q.NodesToWrite = make([]WriteValue, n)
		for i := range q.NodesToWrite {
			q.NodesToWrite[i].decode(r)
		}
	}
}

type WriteResponse struct {
	ResponseHeader  ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*WriteResponse) TypeID() uint32 { return IDWriteResponse }
func (p *WriteResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *WriteResponse) Encode(w *Writer) {
	writeTypeID(w, IDWriteResponse)
	p.ResponseHeader.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *WriteResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

// CallMethodRequest invokes one method on one object.
type CallMethodRequest struct {
	ObjectID       NodeID
	MethodID       NodeID
	InputArguments []Variant
}

func (c *CallMethodRequest) encode(w *Writer) {
	w.WriteNodeID(c.ObjectID)
	w.WriteNodeID(c.MethodID)
	w.WriteVariantArray(c.InputArguments)
}

func (c *CallMethodRequest) decode(r *Reader) {
	c.ObjectID = r.ReadNodeID()
	c.MethodID = r.ReadNodeID()
	c.InputArguments = r.ReadVariantArray()
}

// CallMethodResult carries the outcome of one method invocation, including
// per-argument statuses when the inputs were rejected.
type CallMethodResult struct {
	StatusCode                   StatusCode
	InputArgumentResults         []StatusCode
	InputArgumentDiagnosticInfos []DiagnosticInfo
	OutputArguments              []Variant
}

func (c *CallMethodResult) encode(w *Writer) {
	w.WriteStatusCode(c.StatusCode)
	writeStatusCodeArray(w, c.InputArgumentResults)
	writeDiagnosticInfoArray(w, c.InputArgumentDiagnosticInfos)
	w.WriteVariantArray(c.OutputArguments)
}

func (c *CallMethodResult) decode(r *Reader) {
	c.StatusCode = r.ReadStatusCode()
	c.InputArgumentResults = readStatusCodeArray(r)
	c.InputArgumentDiagnosticInfos = r.ReadDiagnosticInfoArray()
	c.OutputArguments = r.ReadVariantArray()
}

type CallRequest struct {
	RequestHeader RequestHeader
	MethodsToCall []CallMethodRequest
}

func (*CallRequest) TypeID() uint32 { return IDCallRequest }
func (q *CallRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CallRequest) Encode(w *Writer) {
	writeTypeID(w, IDCallRequest)
	q.RequestHeader.encode(w)
	if q.MethodsToCall == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.MethodsToCall)))
	for i := range q.MethodsToCall {
		q.MethodsToCall[i].encode(w)
	}
}

func (q *CallRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		q.MethodsToCall = make([]CallMethodRequest, n)
		for i := range q.MethodsToCall {
			q.MethodsToCall[i].decode(r)
		}
	}
}

type CallResponse struct {
	ResponseHeader  ResponseHeader
	Results         []CallMethodResult
	DiagnosticInfos []DiagnosticInfo
}

func (*CallResponse) TypeID() uint32 { return IDCallResponse }
func (p *CallResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CallResponse) Encode(w *Writer) {
	writeTypeID(w, IDCallResponse)
	p.ResponseHeader.encode(w)
	if p.Results == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(p.Results)))
		for i := range p.Results {
			p.Results[i].encode(w)
		}
	}
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *CallResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		p.Results = make([]CallMethodResult, n)
		for i := range p.Results {
			p.Results[i].decode(r)
		}
	}
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}
