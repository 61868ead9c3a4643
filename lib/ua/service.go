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

// Request is a service request body. Encode writes the TypeId ExtensionObject
// NodeID followed by the request header and body fields.
type Request interface {
	TypeID() uint32
	Header() *RequestHeader
	Encode(w *Writer)
}

// Response is a service response body.
type Response interface {
	TypeID() uint32
	Header() *ResponseHeader
	Decode(r *Reader)
}

// RequestHeader precedes every service request. AuthenticationToken is the
// null node id until CreateSession has returned the session's token.
type RequestHeader struct {
	AuthenticationToken NodeID
	Timestamp           time.Time
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryID        string
	TimeoutHint         uint32
	AdditionalHeader    ExtensionObject
}

func (h *RequestHeader) encode(w *Writer) {
	w.WriteNodeID(h.AuthenticationToken)
	w.WriteTime(h.Timestamp)
	w.WriteUint32(h.RequestHandle)
	w.WriteUint32(h.ReturnDiagnostics)
	w.WriteString(h.AuditEntryID)
	w.WriteUint32(h.TimeoutHint)
	w.WriteExtensionObject(h.AdditionalHeader)
}

func (h *RequestHeader) decode(r *Reader) {
	h.AuthenticationToken = r.ReadNodeID()
	h.Timestamp = r.ReadTime()
	h.RequestHandle = r.ReadUint32()
	h.ReturnDiagnostics = r.ReadUint32()
	h.AuditEntryID = r.ReadString()
	h.TimeoutHint = r.ReadUint32()
	h.AdditionalHeader = r.ReadExtensionObject()
}

// ResponseHeader precedes every service response. ServiceResult carries the
// service-level status; per-item statuses live in the response body.
type ResponseHeader struct {
	Timestamp          time.Time
	RequestHandle      uint32
	ServiceResult      StatusCode
	ServiceDiagnostics DiagnosticInfo
	StringTable        []string
	AdditionalHeader   ExtensionObject
}

func (h *ResponseHeader) encode(w *Writer) {
	w.WriteTime(h.Timestamp)
	w.WriteUint32(h.RequestHandle)
	w.WriteStatusCode(h.ServiceResult)
	w.WriteDiagnosticInfo(h.ServiceDiagnostics)
	w.WriteStringArray(h.StringTable)
	w.WriteExtensionObject(h.AdditionalHeader)
}

func (h *ResponseHeader) decode(r *Reader) {
	h.Timestamp = r.ReadTime()
	h.RequestHandle = r.ReadUint32()
	h.ServiceResult = r.ReadStatusCode()
	h.ServiceDiagnostics = r.ReadDiagnosticInfo()
	h.StringTable = r.ReadStringArray()
	h.AdditionalHeader = r.ReadExtensionObject()
}

// ServiceFault is the generic error response a server returns when a request
// fails before the service-specific response can be built.
type ServiceFault struct {
	ResponseHeader ResponseHeader
}

func (*ServiceFault) TypeID() uint32 { return IDServiceFault }
func (f *ServiceFault) Header() *ResponseHeader { return &f.ResponseHeader }
func (f *ServiceFault) Decode(r *Reader) { f.ResponseHeader.decode(r) }
func (f *ServiceFault) Encode(w *Writer) {
	writeTypeID(w, IDServiceFault)
	f.ResponseHeader.encode(w)
}

// writeTypeID writes the four-byte-encodable numeric TypeId node that
// introduces every service body.
func writeTypeID(w *Writer, id uint32) {
	w.WriteNodeID(NewNumericNodeID(0, id))
}

// readTypeID reads and returns the numeric service TypeId.
func readTypeID(r *Reader) uint32 {
	n := r.ReadNodeID()
	if n.Type != IDTypeNumeric || n.Namespace != 0 {
		r.fail(fmt.Errorf("%w: service type id %v", ErrInvalidEncoding, n))
		return 0
	}
	return n.Numeric
}

// DecodeResponse decodes a complete service response body, dispatching on
// the leading TypeId. Unknown type ids fail fast.
func DecodeResponse(b []byte) (Response, error) {
	r := NewReader(b)
	id := readTypeID(r)
	if err := r.Error(); err != nil {
		return nil, err
	}
	var resp Response
	switch id {
	case IDServiceFault:
		resp = new(ServiceFault)
	case IDGetEndpointsResponse:
		resp = new(GetEndpointsResponse)
	case IDOpenSecureChannelResponse:
		resp = new(OpenSecureChannelResponse)
	case IDCloseSecureChannelResponse:
		resp = new(CloseSecureChannelResponse)
	case IDCreateSessionResponse:
		resp = new(CreateSessionResponse)
	case IDActivateSessionResponse:
		resp = new(ActivateSessionResponse)
	case IDCloseSessionResponse:
		resp = new(CloseSessionResponse)
	case IDBrowseResponse:
		resp = new(BrowseResponse)
	case IDBrowseNextResponse:
		resp = new(BrowseNextResponse)
	case IDRegisterNodesResponse:
		resp = new(RegisterNodesResponse)
	case IDUnregisterNodesResponse:
		resp = new(UnregisterNodesResponse)
	case IDReadResponse:
		resp = new(ReadResponse)
	case IDWriteResponse:
		resp = new(WriteResponse)
	case IDCallResponse:
		resp = new(CallResponse)
	case IDCreateMonitoredItemsResponse:
		resp = new(CreateMonitoredItemsResponse)
	case IDModifyMonitoredItemsResponse:
		resp = new(ModifyMonitoredItemsResponse)
	case IDSetMonitoringModeResponse:
		resp = new(SetMonitoringModeResponse)
	case IDDeleteMonitoredItemsResponse:
		resp = new(DeleteMonitoredItemsResponse)
	case IDCreateSubscriptionResponse:
		resp = new(CreateSubscriptionResponse)
	case IDModifySubscriptionResponse:
		resp = new(ModifySubscriptionResponse)
	case IDSetPublishingModeResponse:
		resp = new(SetPublishingModeResponse)
	case IDDeleteSubscriptionsResponse:
		resp = new(DeleteSubscriptionsResponse)
	case IDPublishResponse:
		resp = new(PublishResponse)
	case IDRepublishResponse:
		resp = new(RepublishResponse)
	default:
		return nil, fmt.Errorf("%w: unknown response type id %d", ErrInvalidEncoding, id)
	}
	resp.Decode(r)
	if err := r.Error(); err != nil {
		return nil, err
	}
	return resp, nil
}

// EncodeRequest encodes a complete request body including the TypeId.
func EncodeRequest(req Request) ([]byte, error) {
	w := NewWriter()
	req.Encode(w)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
