// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import "time"

// ApplicationDescription identifies a client or server application.
type ApplicationDescription struct {
	ApplicationURI      string
	ProductURI          string
	ApplicationName     LocalizedText
	ApplicationType     ApplicationType
	GatewayServerURI    string
	DiscoveryProfileURI string
	DiscoveryURLs       []string
}

func (a *ApplicationDescription) encode(w *Writer) {
	w.WriteString(a.ApplicationURI)
	w.WriteString(a.ProductURI)
	w.WriteLocalizedText(a.ApplicationName)
	w.WriteUint32(uint32(a.ApplicationType))
	w.WriteString(a.GatewayServerURI)
	w.WriteString(a.DiscoveryProfileURI)
	w.WriteStringArray(a.DiscoveryURLs)
}

func (a *ApplicationDescription) decode(r *Reader) {
	a.ApplicationURI = r.ReadString()
	a.ProductURI = r.ReadString()
	a.ApplicationName = r.ReadLocalizedText()
	a.ApplicationType = ApplicationType(r.ReadUint32())
	a.GatewayServerURI = r.ReadString()
	a.DiscoveryProfileURI = r.ReadString()
	a.DiscoveryURLs = r.ReadStringArray()
}

// UserTokenPolicy describes one identity-token class an endpoint accepts.
type UserTokenPolicy struct {
	PolicyID          string
	TokenType         UserTokenType
	IssuedTokenType   string
	IssuerEndpointURL string
	SecurityPolicyURI string
}

func (p *UserTokenPolicy) encode(w *Writer) {
	w.WriteString(p.PolicyID)
	w.WriteUint32(uint32(p.TokenType))
	w.WriteString(p.IssuedTokenType)
	w.WriteString(p.IssuerEndpointURL)
	w.WriteString(p.SecurityPolicyURI)
}

func (p *UserTokenPolicy) decode(r *Reader) {
	p.PolicyID = r.ReadString()
	p.TokenType = UserTokenType(r.ReadUint32())
	p.IssuedTokenType = r.ReadString()
	p.IssuerEndpointURL = r.ReadString()
	p.SecurityPolicyURI = r.ReadString()
}

// EndpointDescription is one endpoint advertised by a server.
type EndpointDescription struct {
	EndpointURL         string
	Server              ApplicationDescription
	ServerCertificate   []byte
	SecurityMode        MessageSecurityMode
	SecurityPolicyURI   string
	UserIdentityTokens  []UserTokenPolicy
	TransportProfileURI string
	SecurityLevel       byte
}

func (e *EndpointDescription) encode(w *Writer) {
	w.WriteString(e.EndpointURL)
	e.Server.encode(w)
	w.WriteByteString(e.ServerCertificate)
	w.WriteUint32(uint32(e.SecurityMode))
	w.WriteString(e.SecurityPolicyURI)
	if e.UserIdentityTokens == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(e.UserIdentityTokens)))
		for i := range e.UserIdentityTokens {
			e.UserIdentityTokens[i].encode(w)
		}
	}
	w.WriteString(e.TransportProfileURI)
	w.WriteUint8(e.SecurityLevel)
}

func (e *EndpointDescription) decode(r *Reader) {
	e.EndpointURL = r.ReadString()
	e.Server.decode(r)
	e.ServerCertificate = r.ReadByteString()
	e.SecurityMode = MessageSecurityMode(r.ReadUint32())
	e.SecurityPolicyURI = r.ReadString()
	if n := r.arrayLen(); n >= 0 {
		e.UserIdentityTokens = make([]UserTokenPolicy, n)
		for i := range e.UserIdentityTokens {
			e.UserIdentityTokens[i].decode(r)
		}
	}
	e.TransportProfileURI = r.ReadString()
	e.SecurityLevel = r.ReadUint8()
}

// GetEndpointsRequest asks a discovery endpoint for the endpoints it
// advertises.
type GetEndpointsRequest struct {
	RequestHeader RequestHeader
	EndpointURL   string
	LocaleIDs     []string
	ProfileURIs   []string
}

func (*GetEndpointsRequest) TypeID() uint32 { return IDGetEndpointsRequest }
func (q *GetEndpointsRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *GetEndpointsRequest) Encode(w *Writer) {
	writeTypeID(w, IDGetEndpointsRequest)
	q.RequestHeader.encode(w)
	w.WriteString(q.EndpointURL)
	w.WriteStringArray(q.LocaleIDs)
	w.WriteStringArray(q.ProfileURIs)
}

func (q *GetEndpointsRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.EndpointURL = r.ReadString()
	q.LocaleIDs = r.ReadStringArray()
	q.ProfileURIs = r.ReadStringArray()
}

type GetEndpointsResponse struct {
	ResponseHeader ResponseHeader
	Endpoints      []EndpointDescription
}

func (*GetEndpointsResponse) TypeID() uint32 { return IDGetEndpointsResponse }
func (p *GetEndpointsResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *GetEndpointsResponse) Encode(w *Writer) {
	writeTypeID(w, IDGetEndpointsResponse)
	p.ResponseHeader.encode(w)
	if p.Endpoints == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(p.Endpoints)))
	for i := range p.Endpoints {
		p.Endpoints[i].encode(w)
	}
}

func (p *GetEndpointsResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		p.Endpoints = make([]EndpointDescription, n)
		for i := range p.Endpoints {
			p.Endpoints[i].decode(r)
		}
	}
}

// ChannelSecurityToken is the server-issued token identifying one key set of
// a secure channel.
type ChannelSecurityToken struct {
	ChannelID       uint32
	TokenID         uint32
	CreatedAt       time.Time
	RevisedLifetime uint32 // ms
}

func (t *ChannelSecurityToken) encode(w *Writer) {
	w.WriteUint32(t.ChannelID)
	w.WriteUint32(t.TokenID)
	w.WriteTime(t.CreatedAt)
	w.WriteUint32(t.RevisedLifetime)
}

func (t *ChannelSecurityToken) decode(r *Reader) {
	t.ChannelID = r.ReadUint32()
	t.TokenID = r.ReadUint32()
	t.CreatedAt = r.ReadTime()
	t.RevisedLifetime = r.ReadUint32()
}

type OpenSecureChannelRequest struct {
	RequestHeader         RequestHeader
	ClientProtocolVersion uint32
	RequestType           SecurityTokenRequestType
	SecurityMode          MessageSecurityMode
	ClientNonce           []byte
	RequestedLifetime     uint32 // ms
}

func (*OpenSecureChannelRequest) TypeID() uint32 { return IDOpenSecureChannelRequest }
func (q *OpenSecureChannelRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *OpenSecureChannelRequest) Encode(w *Writer) {
	writeTypeID(w, IDOpenSecureChannelRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.ClientProtocolVersion)
	w.WriteUint32(uint32(q.RequestType))
	w.WriteUint32(uint32(q.SecurityMode))
	w.WriteByteString(q.ClientNonce)
	w.WriteUint32(q.RequestedLifetime)
}

func (q *OpenSecureChannelRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.ClientProtocolVersion = r.ReadUint32()
	q.RequestType = SecurityTokenRequestType(r.ReadUint32())
	q.SecurityMode = MessageSecurityMode(r.ReadUint32())
	q.ClientNonce = r.ReadByteString()
	q.RequestedLifetime = r.ReadUint32()
}

type OpenSecureChannelResponse struct {
	ResponseHeader        ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken         ChannelSecurityToken
	ServerNonce           []byte
}

func (*OpenSecureChannelResponse) TypeID() uint32 { return IDOpenSecureChannelResponse }
func (p *OpenSecureChannelResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *OpenSecureChannelResponse) Encode(w *Writer) {
	writeTypeID(w, IDOpenSecureChannelResponse)
	p.ResponseHeader.encode(w)
	w.WriteUint32(p.ServerProtocolVersion)
	p.SecurityToken.encode(w)
	w.WriteByteString(p.ServerNonce)
}

func (p *OpenSecureChannelResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.ServerProtocolVersion = r.ReadUint32()
	p.SecurityToken.decode(r)
	p.ServerNonce = r.ReadByteString()
}

type CloseSecureChannelRequest struct {
	RequestHeader RequestHeader
}

func (*CloseSecureChannelRequest) TypeID() uint32 { return IDCloseSecureChannelRequest }
func (q *CloseSecureChannelRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CloseSecureChannelRequest) Encode(w *Writer) {
	writeTypeID(w, IDCloseSecureChannelRequest)
	q.RequestHeader.encode(w)
}

func (q *CloseSecureChannelRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
}

type CloseSecureChannelResponse struct {
	ResponseHeader ResponseHeader
}

func (*CloseSecureChannelResponse) TypeID() uint32 { return IDCloseSecureChannelResponse }
func (p *CloseSecureChannelResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CloseSecureChannelResponse) Encode(w *Writer) {
	writeTypeID(w, IDCloseSecureChannelResponse)
	p.ResponseHeader.encode(w)
}

func (p *CloseSecureChannelResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
}

// SignedSoftwareCertificate is carried in session negotiation; this client
// never issues one but must round-trip the arrays.
type SignedSoftwareCertificate struct {
	CertificateData []byte
	Signature       []byte
}

func (c *SignedSoftwareCertificate) encode(w *Writer) {
	w.WriteByteString(c.CertificateData)
	w.WriteByteString(c.Signature)
}

func (c *SignedSoftwareCertificate) decode(r *Reader) {
	c.CertificateData = r.ReadByteString()
	c.Signature = r.ReadByteString()
}

type CreateSessionRequest struct {
	RequestHeader           RequestHeader
	ClientDescription       ApplicationDescription
	ServerURI               string
	EndpointURL             string
	SessionName             string
	ClientNonce             []byte
	ClientCertificate       []byte
	RequestedSessionTimeout float64 // ms
	MaxResponseMessageSize  uint32
}

func (*CreateSessionRequest) TypeID() uint32 { return IDCreateSessionRequest }
func (q *CreateSessionRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CreateSessionRequest) Encode(w *Writer) {
	writeTypeID(w, IDCreateSessionRequest)
	q.RequestHeader.encode(w)
	q.ClientDescription.encode(w)
	w.WriteString(q.ServerURI)
	w.WriteString(q.EndpointURL)
	w.WriteString(q.SessionName)
	w.WriteByteString(q.ClientNonce)
	w.WriteByteString(q.ClientCertificate)
	w.WriteFloat64(q.RequestedSessionTimeout)
	w.WriteUint32(q.MaxResponseMessageSize)
}

func (q *CreateSessionRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.ClientDescription.decode(r)
	q.ServerURI = r.ReadString()
	q.EndpointURL = r.ReadString()
	q.SessionName = r.ReadString()
	q.ClientNonce = r.ReadByteString()
	q.ClientCertificate = r.ReadByteString()
	q.RequestedSessionTimeout = r.ReadFloat64()
	q.MaxResponseMessageSize = r.ReadUint32()
}

type CreateSessionResponse struct {
	ResponseHeader             ResponseHeader
	SessionID                  NodeID
	AuthenticationToken        NodeID
	RevisedSessionTimeout      float64 // ms
	ServerNonce                []byte
	ServerCertificate          []byte
	ServerEndpoints            []EndpointDescription
	ServerSoftwareCertificates []SignedSoftwareCertificate
	ServerSignature            SignatureData
	MaxRequestMessageSize      uint32
}

func (*CreateSessionResponse) TypeID() uint32 { return IDCreateSessionResponse }
func (p *CreateSessionResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CreateSessionResponse) Encode(w *Writer) {
	writeTypeID(w, IDCreateSessionResponse)
	p.ResponseHeader.encode(w)
	w.WriteNodeID(p.SessionID)
	w.WriteNodeID(p.AuthenticationToken)
	w.WriteFloat64(p.RevisedSessionTimeout)
	w.WriteByteString(p.ServerNonce)
	w.WriteByteString(p.ServerCertificate)
	if p.ServerEndpoints == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(p.ServerEndpoints)))
		for i := range p.ServerEndpoints {
			p.ServerEndpoints[i].encode(w)
		}
	}
	if p.ServerSoftwareCertificates == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(p.ServerSoftwareCertificates)))
		for i := range p.ServerSoftwareCertificates {
			p.ServerSoftwareCertificates[i].encode(w)
		}
	}
	w.WriteSignatureData(p.ServerSignature)
	w.WriteUint32(p.MaxRequestMessageSize)
}

func (p *CreateSessionResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.SessionID = r.ReadNodeID()
	p.AuthenticationToken = r.ReadNodeID()
	p.RevisedSessionTimeout = r.ReadFloat64()
	p.ServerNonce = r.ReadByteString()
	p.ServerCertificate = r.ReadByteString()
	if n := r.arrayLen(); n >= 0 {
		p.ServerEndpoints = make([]EndpointDescription, n)
		for i := range p.ServerEndpoints {
			p.ServerEndpoints[i].decode(r)
		}
	}
	if n := r.arrayLen(); n >= 0 {
		p.ServerSoftwareCertificates = make([]SignedSoftwareCertificate, n)
		for i := range p.ServerSoftwareCertificates {
			p.ServerSoftwareCertificates[i].decode(r)
		}
	}
	p.ServerSignature = r.ReadSignatureData()
	p.MaxRequestMessageSize = r.ReadUint32()
}

type ActivateSessionRequest struct {
	RequestHeader              RequestHeader
	ClientSignature            SignatureData
	ClientSoftwareCertificates []SignedSoftwareCertificate
	LocaleIDs                  []string
	UserIdentityToken          ExtensionObject
	UserTokenSignature         SignatureData
}

func (*ActivateSessionRequest) TypeID() uint32 { return IDActivateSessionRequest }
func (q *ActivateSessionRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *ActivateSessionRequest) Encode(w *Writer) {
	writeTypeID(w, IDActivateSessionRequest)
	q.RequestHeader.encode(w)
	w.WriteSignatureData(q.ClientSignature)
	if q.ClientSoftwareCertificates == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(q.ClientSoftwareCertificates)))
		for i := range q.ClientSoftwareCertificates {
			q.ClientSoftwareCertificates[i].encode(w)
		}
	}
	w.WriteStringArray(q.LocaleIDs)
	w.WriteExtensionObject(q.UserIdentityToken)
	w.WriteSignatureData(q.UserTokenSignature)
}

func (q *ActivateSessionRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.ClientSignature = r.ReadSignatureData()
	if n := r.arrayLen(); n >= 0 {
		q.ClientSoftwareCertificates = make([]SignedSoftwareCertificate, n)
		for i := range q.ClientSoftwareCertificates {
			q.ClientSoftwareCertificates[i].decode(r)
		}
	}
	q.LocaleIDs = r.ReadStringArray()
	q.UserIdentityToken = r.ReadExtensionObject()
	q.UserTokenSignature = r.ReadSignatureData()
}

type ActivateSessionResponse struct {
	ResponseHeader  ResponseHeader
	ServerNonce     []byte
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*ActivateSessionResponse) TypeID() uint32 { return IDActivateSessionResponse }
func (p *ActivateSessionResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *ActivateSessionResponse) Encode(w *Writer) {
	writeTypeID(w, IDActivateSessionResponse)
	p.ResponseHeader.encode(w)
	w.WriteByteString(p.ServerNonce)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *ActivateSessionResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.ServerNonce = r.ReadByteString()
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type CloseSessionRequest struct {
	RequestHeader       RequestHeader
	DeleteSubscriptions bool
}

func (*CloseSessionRequest) TypeID() uint32 { return IDCloseSessionRequest }
func (q *CloseSessionRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CloseSessionRequest) Encode(w *Writer) {
	writeTypeID(w, IDCloseSessionRequest)
	q.RequestHeader.encode(w)
	w.WriteBool(q.DeleteSubscriptions)
}

func (q *CloseSessionRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.DeleteSubscriptions = r.ReadBool()
}

type CloseSessionResponse struct {
	ResponseHeader ResponseHeader
}

func (*CloseSessionResponse) TypeID() uint32 { return IDCloseSessionResponse }
func (p *CloseSessionResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CloseSessionResponse) Encode(w *Writer) {
	writeTypeID(w, IDCloseSessionResponse)
	p.ResponseHeader.encode(w)
}

func (p *CloseSessionResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
}

func writeStatusCodeArray(w *Writer, ss []StatusCode) {
	if ss == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(ss)))
	for _, s := range ss {
		w.WriteStatusCode(s)
	}
}

func readStatusCodeArray(r *Reader) []StatusCode {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	ss := make([]StatusCode, n)
	for i := range ss {
		ss[i] = r.ReadStatusCode()
	}
	return ss
}

func writeDiagnosticInfoArray(w *Writer, ds []DiagnosticInfo) {
	if ds == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(ds)))
	for _, d := range ds {
		w.WriteDiagnosticInfo(d)
	}
}

func writeUint32Array(w *Writer, vs []uint32) {
	if vs == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(vs)))
	for _, v := range vs {
		w.WriteUint32(v)
	}
}

func readUint32Array(r *Reader) []uint32 {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	vs := make([]uint32, n)
	for i := range vs {
		vs[i] = r.ReadUint32()
	}
	return vs
}

func writeNodeIDArray(w *Writer, ns []NodeID) {
	if ns == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(ns)))
	for _, n := range ns {
		w.WriteNodeID(n)
	}
}

func readNodeIDArray(r *Reader) []NodeID {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	ns := make([]NodeID, n)
	for i := range ns {
		ns[i] = r.ReadNodeID()
	}
	return ns
}
