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

type CreateSubscriptionRequest struct {
	RequestHeader               RequestHeader
	RequestedPublishingInterval float64 // ms
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	PublishingEnabled           bool
	Priority                    byte
}

func (*CreateSubscriptionRequest) TypeID() uint32 { return IDCreateSubscriptionRequest }
func (q *CreateSubscriptionRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CreateSubscriptionRequest) Encode(w *Writer) {
	writeTypeID(w, IDCreateSubscriptionRequest)
	q.RequestHeader.encode(w)
	w.WriteFloat64(q.RequestedPublishingInterval)
	w.WriteUint32(q.RequestedLifetimeCount)
	w.WriteUint32(q.RequestedMaxKeepAliveCount)
	w.WriteUint32(q.MaxNotificationsPerPublish)
	w.WriteBool(q.PublishingEnabled)
	w.WriteUint8(q.Priority)
}

func (q *CreateSubscriptionRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.RequestedPublishingInterval = r.ReadFloat64()
	q.RequestedLifetimeCount = r.ReadUint32()
	q.RequestedMaxKeepAliveCount = r.ReadUint32()
	q.MaxNotificationsPerPublish = r.ReadUint32()
	q.PublishingEnabled = r.ReadBool()
	q.Priority = r.ReadUint8()
}

type CreateSubscriptionResponse struct {
	ResponseHeader            ResponseHeader
	SubscriptionID            uint32
	RevisedPublishingInterval float64 // ms
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

func (*CreateSubscriptionResponse) TypeID() uint32 { return IDCreateSubscriptionResponse }
func (p *CreateSubscriptionResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CreateSubscriptionResponse) Encode(w *Writer) {
	writeTypeID(w, IDCreateSubscriptionResponse)
	p.ResponseHeader.encode(w)
	w.WriteUint32(p.SubscriptionID)
	w.WriteFloat64(p.RevisedPublishingInterval)
	w.WriteUint32(p.RevisedLifetimeCount)
	w.WriteUint32(p.RevisedMaxKeepAliveCount)
}

func (p *CreateSubscriptionResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.SubscriptionID = r.ReadUint32()
	p.RevisedPublishingInterval = r.ReadFloat64()
	p.RevisedLifetimeCount = r.ReadUint32()
	p.RevisedMaxKeepAliveCount = r.ReadUint32()
}

type ModifySubscriptionRequest struct {
	RequestHeader               RequestHeader
	SubscriptionID              uint32
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	Priority                    byte
}

func (*ModifySubscriptionRequest) TypeID() uint32 { return IDModifySubscriptionRequest }
func (q *ModifySubscriptionRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *ModifySubscriptionRequest) Encode(w *Writer) {
	writeTypeID(w, IDModifySubscriptionRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	w.WriteFloat64(q.RequestedPublishingInterval)
	w.WriteUint32(q.RequestedLifetimeCount)
	w.WriteUint32(q.RequestedMaxKeepAliveCount)
	w.WriteUint32(q.MaxNotificationsPerPublish)
	w.WriteUint8(q.Priority)
}

func (q *ModifySubscriptionRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.RequestedPublishingInterval = r.ReadFloat64()
	q.RequestedLifetimeCount = r.ReadUint32()
	q.RequestedMaxKeepAliveCount = r.ReadUint32()
	q.MaxNotificationsPerPublish = r.ReadUint32()
	q.Priority = r.ReadUint8()
}

type ModifySubscriptionResponse struct {
	ResponseHeader            ResponseHeader
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

func (*ModifySubscriptionResponse) TypeID() uint32 { return IDModifySubscriptionResponse }
func (p *ModifySubscriptionResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *ModifySubscriptionResponse) Encode(w *Writer) {
	writeTypeID(w, IDModifySubscriptionResponse)
	p.ResponseHeader.encode(w)
	w.WriteFloat64(p.RevisedPublishingInterval)
	w.WriteUint32(p.RevisedLifetimeCount)
	w.WriteUint32(p.RevisedMaxKeepAliveCount)
}

func (p *ModifySubscriptionResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.RevisedPublishingInterval = r.ReadFloat64()
	p.RevisedLifetimeCount = r.ReadUint32()
	p.RevisedMaxKeepAliveCount = r.ReadUint32()
}

type SetPublishingModeRequest struct {
	RequestHeader     RequestHeader
	PublishingEnabled bool
	SubscriptionIDs   []uint32
}

func (*SetPublishingModeRequest) TypeID() uint32 { return IDSetPublishingModeRequest }
func (q *SetPublishingModeRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *SetPublishingModeRequest) Encode(w *Writer) {
	writeTypeID(w, IDSetPublishingModeRequest)
	q.RequestHeader.encode(w)
	w.WriteBool(q.PublishingEnabled)
	writeUint32Array(w, q.SubscriptionIDs)
}

func (q *SetPublishingModeRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.PublishingEnabled = r.ReadBool()
	q.SubscriptionIDs = readUint32Array(r)
}

type SetPublishingModeResponse struct {
	ResponseHeader  ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*SetPublishingModeResponse) TypeID() uint32 { return IDSetPublishingModeResponse }
func (p *SetPublishingModeResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *SetPublishingModeResponse) Encode(w *Writer) {
	writeTypeID(w, IDSetPublishingModeResponse)
	p.ResponseHeader.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *SetPublishingModeResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type DeleteSubscriptionsRequest struct {
	RequestHeader   RequestHeader
	SubscriptionIDs []uint32
}

func (*DeleteSubscriptionsRequest) TypeID() uint32 { return IDDeleteSubscriptionsRequest }
func (q *DeleteSubscriptionsRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *DeleteSubscriptionsRequest) Encode(w *Writer) {
	writeTypeID(w, IDDeleteSubscriptionsRequest)
	q.RequestHeader.encode(w)
	writeUint32Array(w, q.SubscriptionIDs)
}

func (q *DeleteSubscriptionsRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionIDs = readUint32Array(r)
}

type DeleteSubscriptionsResponse struct {
	ResponseHeader  ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*DeleteSubscriptionsResponse) TypeID() uint32 { return IDDeleteSubscriptionsResponse }
func (p *DeleteSubscriptionsResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *DeleteSubscriptionsResponse) Encode(w *Writer) {
	writeTypeID(w, IDDeleteSubscriptionsResponse)
	p.ResponseHeader.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *DeleteSubscriptionsResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

// MonitoringFilter is the tagged union of the three filter classes. Each
// variant knows the TypeId of its binary encoding; FilterExtensionObject wraps it as the
// ExtensionObject carried in monitoring parameters.
type MonitoringFilter interface {
	FilterTypeID() uint32
	encode(w *Writer)
}

// FilterExtensionObject wraps a monitoring filter for the wire. A nil filter
// yields the empty extension object.
func FilterExtensionObject(f MonitoringFilter) ExtensionObject {
	if f == nil {
		return ExtensionObject{}
	}
	return NewExtensionObject(f.FilterTypeID(), f)
}

// DataChangeFilter reports value changes filtered by trigger and deadband.
type DataChangeFilter struct {
	Trigger       DataChangeTrigger
	DeadbandType  DeadbandType
	DeadbandValue float64
}

func (DataChangeFilter) FilterTypeID() uint32 { return IDDataChangeFilter }

func (f DataChangeFilter) encode(w *Writer) {
	w.WriteUint32(uint32(f.Trigger))
	w.WriteUint32(uint32(f.DeadbandType))
	w.WriteFloat64(f.DeadbandValue)
}

// SimpleAttributeOperand selects one event field in an event filter.
type SimpleAttributeOperand struct {
	TypeDefinitionID NodeID
	BrowsePath       []QualifiedName
	AttributeID      AttributeID
	IndexRange       string
}

func (o *SimpleAttributeOperand) encode(w *Writer) {
	w.WriteNodeID(o.TypeDefinitionID)
	if o.BrowsePath == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(o.BrowsePath)))
		for _, q := range o.BrowsePath {
			w.WriteQualifiedName(q)
		}
	}
	w.WriteUint32(uint32(o.AttributeID))
	w.WriteString(o.IndexRange)
}

// ContentFilterElement is one operator application in a where clause. The
// operands are pre-encoded extension objects.
type ContentFilterElement struct {
	FilterOperator uint32
	FilterOperands []ExtensionObject
}

func (e *ContentFilterElement) encode(w *Writer) {
	w.WriteUint32(e.FilterOperator)
	if e.FilterOperands == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(e.FilterOperands)))
	for _, o := range e.FilterOperands {
		w.WriteExtensionObject(o)
	}
}

type ContentFilter struct {
	Elements []ContentFilterElement
}

func (c *ContentFilter) encode(w *Writer) {
	if c.Elements == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(c.Elements)))
	for i := range c.Elements {
		c.Elements[i].encode(w)
	}
}

// EventFilter selects event fields and restricts events via a where clause.
type EventFilter struct {
	SelectClauses []SimpleAttributeOperand
	WhereClause   ContentFilter
}

func (EventFilter) FilterTypeID() uint32 { return IDEventFilter }

func (f EventFilter) encode(w *Writer) {
	if f.SelectClauses == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(f.SelectClauses)))
		for i := range f.SelectClauses {
			f.SelectClauses[i].encode(w)
		}
	}
	f.WhereClause.encode(w)
}

// AggregateConfiguration tunes aggregate processing.
type AggregateConfiguration struct {
	UseServerCapabilitiesDefaults bool
	TreatUncertainAsBad           bool
	PercentDataBad                byte
	PercentDataGood               byte
	UseSlopedExtrapolation        bool
}

func (c *AggregateConfiguration) encode(w *Writer) {
	w.WriteBool(c.UseServerCapabilitiesDefaults)
	w.WriteBool(c.TreatUncertainAsBad)
	w.WriteUint8(c.PercentDataBad)
	w.WriteUint8(c.PercentDataGood)
	w.WriteBool(c.UseSlopedExtrapolation)
}

// AggregateFilter requests server-side aggregation over an interval.
type AggregateFilter struct {
	StartTime          time.Time
	AggregateType      NodeID
	ProcessingInterval float64
	Configuration      AggregateConfiguration
}

func (AggregateFilter) FilterTypeID() uint32 { return IDAggregateFilter }

func (f AggregateFilter) encode(w *Writer) {
	w.WriteTime(f.StartTime)
	w.WriteNodeID(f.AggregateType)
	w.WriteFloat64(f.ProcessingInterval)
	f.Configuration.encode(w)
}

// MonitoringParameters are the client-requested sampling parameters.
type MonitoringParameters struct {
	ClientHandle     uint32
	SamplingInterval float64 // ms
	Filter           ExtensionObject
	QueueSize        uint32
	DiscardOldest    bool
}

func (p *MonitoringParameters) encode(w *Writer) {
	w.WriteUint32(p.ClientHandle)
	w.WriteFloat64(p.SamplingInterval)
	w.WriteExtensionObject(p.Filter)
	w.WriteUint32(p.QueueSize)
	w.WriteBool(p.DiscardOldest)
}

func (p *MonitoringParameters) decode(r *Reader) {
	p.ClientHandle = r.ReadUint32()
	p.SamplingInterval = r.ReadFloat64()
	p.Filter = r.ReadExtensionObject()
	p.QueueSize = r.ReadUint32()
	p.DiscardOldest = r.ReadBool()
}

type MonitoredItemCreateRequest struct {
	ItemToMonitor       ReadValueID
	MonitoringMode      MonitoringMode
	RequestedParameters MonitoringParameters
}

func (m *MonitoredItemCreateRequest) encode(w *Writer) {
	m.ItemToMonitor.encode(w)
	w.WriteUint32(uint32(m.MonitoringMode))
	m.RequestedParameters.encode(w)
}

func (m *MonitoredItemCreateRequest) decode(r *Reader) {
	m.ItemToMonitor.decode(r)
	m.MonitoringMode = MonitoringMode(r.ReadUint32())
	m.RequestedParameters.decode(r)
}

type MonitoredItemCreateResult struct {
	StatusCode              StatusCode
	MonitoredItemID         uint32
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            ExtensionObject
}

func (m *MonitoredItemCreateResult) encode(w *Writer) {
	w.WriteStatusCode(m.StatusCode)
	w.WriteUint32(m.MonitoredItemID)
	w.WriteFloat64(m.RevisedSamplingInterval)
	w.WriteUint32(m.RevisedQueueSize)
	w.WriteExtensionObject(m.FilterResult)
}

func (m *MonitoredItemCreateResult) decode(r *Reader) {
	m.StatusCode = r.ReadStatusCode()
	m.MonitoredItemID = r.ReadUint32()
	m.RevisedSamplingInterval = r.ReadFloat64()
	m.RevisedQueueSize = r.ReadUint32()
	m.FilterResult = r.ReadExtensionObject()
}

type CreateMonitoredItemsRequest struct {
	RequestHeader      RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToCreate      []MonitoredItemCreateRequest
}

func (*CreateMonitoredItemsRequest) TypeID() uint32 { return IDCreateMonitoredItemsRequest }
func (q *CreateMonitoredItemsRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *CreateMonitoredItemsRequest) Encode(w *Writer) {
	writeTypeID(w, IDCreateMonitoredItemsRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	w.WriteUint32(uint32(q.TimestampsToReturn))
	if q.ItemsToCreate == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.ItemsToCreate)))
	for i := range q.ItemsToCreate {
		q.ItemsToCreate[i].encode(w)
	}
}

func (q *CreateMonitoredItemsRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.TimestampsToReturn = TimestampsToReturn(r.ReadUint32())
	if n := r.arrayLen(); n >= 0 {
		q.ItemsToCreate = make([]MonitoredItemCreateRequest, n)
		for i := range q.ItemsToCreate {
			q.ItemsToCreate[i].decode(r)
		}
	}
}

type CreateMonitoredItemsResponse struct {
	ResponseHeader  ResponseHeader
	Results         []MonitoredItemCreateResult
	DiagnosticInfos []DiagnosticInfo
}

func (*CreateMonitoredItemsResponse) TypeID() uint32 { return IDCreateMonitoredItemsResponse }
func (p *CreateMonitoredItemsResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *CreateMonitoredItemsResponse) Encode(w *Writer) {
	writeTypeID(w, IDCreateMonitoredItemsResponse)
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

func (p *CreateMonitoredItemsResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		p.Results = make([]MonitoredItemCreateResult, n)
		for i := range p.Results {
			p.Results[i].decode(r)
		}
	}
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type MonitoredItemModifyRequest struct {
	MonitoredItemID     uint32
	RequestedParameters MonitoringParameters
}

func (m *MonitoredItemModifyRequest) encode(w *Writer) {
	w.WriteUint32(m.MonitoredItemID)
	m.RequestedParameters.encode(w)
}

func (m *MonitoredItemModifyRequest) decode(r *Reader) {
	m.MonitoredItemID = r.ReadUint32()
	m.RequestedParameters.decode(r)
}

type MonitoredItemModifyResult struct {
	StatusCode              StatusCode
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            ExtensionObject
}

func (m *MonitoredItemModifyResult) encode(w *Writer) {
	w.WriteStatusCode(m.StatusCode)
	w.WriteFloat64(m.RevisedSamplingInterval)
	w.WriteUint32(m.RevisedQueueSize)
	w.WriteExtensionObject(m.FilterResult)
}

func (m *MonitoredItemModifyResult) decode(r *Reader) {
	m.StatusCode = r.ReadStatusCode()
	m.RevisedSamplingInterval = r.ReadFloat64()
	m.RevisedQueueSize = r.ReadUint32()
	m.FilterResult = r.ReadExtensionObject()
}

type ModifyMonitoredItemsRequest struct {
	RequestHeader      RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToModify      []MonitoredItemModifyRequest
}

func (*ModifyMonitoredItemsRequest) TypeID() uint32 { return IDModifyMonitoredItemsRequest }
func (q *ModifyMonitoredItemsRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *ModifyMonitoredItemsRequest) Encode(w *Writer) {
	writeTypeID(w, IDModifyMonitoredItemsRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	w.WriteUint32(uint32(q.TimestampsToReturn))
	if q.ItemsToModify == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.ItemsToModify)))
	for i := range q.ItemsToModify {
		q.ItemsToModify[i].encode(w)
	}
}

func (q *ModifyMonitoredItemsRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.TimestampsToReturn = TimestampsToReturn(r.ReadUint32())
	if n := r.arrayLen(); n >= 0 {
		q.ItemsToModify = make([]MonitoredItemModifyRequest, n)
		for i := range q.ItemsToModify {
			q.ItemsToModify[i].decode(r)
		}
	}
}

type ModifyMonitoredItemsResponse struct {
	ResponseHeader  ResponseHeader
	Results         []MonitoredItemModifyResult
	DiagnosticInfos []DiagnosticInfo
}

func (*ModifyMonitoredItemsResponse) TypeID() uint32 { return IDModifyMonitoredItemsResponse }
func (p *ModifyMonitoredItemsResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *ModifyMonitoredItemsResponse) Encode(w *Writer) {
	writeTypeID(w, IDModifyMonitoredItemsResponse)
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

func (p *ModifyMonitoredItemsResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		p.Results = make([]MonitoredItemModifyResult, n)
		for i := range p.Results {
			p.Results[i].decode(r)
		}
	}
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type SetMonitoringModeRequest struct {
	RequestHeader    RequestHeader
	SubscriptionID   uint32
	MonitoringMode   MonitoringMode
	MonitoredItemIDs []uint32
}

func (*SetMonitoringModeRequest) TypeID() uint32 { return IDSetMonitoringModeRequest }
func (q *SetMonitoringModeRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *SetMonitoringModeRequest) Encode(w *Writer) {
	writeTypeID(w, IDSetMonitoringModeRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	w.WriteUint32(uint32(q.MonitoringMode))
	writeUint32Array(w, q.MonitoredItemIDs)
}

func (q *SetMonitoringModeRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.MonitoringMode = MonitoringMode(r.ReadUint32())
	q.MonitoredItemIDs = readUint32Array(r)
}

type SetMonitoringModeResponse struct {
	ResponseHeader  ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*SetMonitoringModeResponse) TypeID() uint32 { return IDSetMonitoringModeResponse }
func (p *SetMonitoringModeResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *SetMonitoringModeResponse) Encode(w *Writer) {
	writeTypeID(w, IDSetMonitoringModeResponse)
	p.ResponseHeader.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *SetMonitoringModeResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type DeleteMonitoredItemsRequest struct {
	RequestHeader    RequestHeader
	SubscriptionID   uint32
	MonitoredItemIDs []uint32
}

func (*DeleteMonitoredItemsRequest) TypeID() uint32 { return IDDeleteMonitoredItemsRequest }
func (q *DeleteMonitoredItemsRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *DeleteMonitoredItemsRequest) Encode(w *Writer) {
	writeTypeID(w, IDDeleteMonitoredItemsRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	writeUint32Array(w, q.MonitoredItemIDs)
}

func (q *DeleteMonitoredItemsRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.MonitoredItemIDs = readUint32Array(r)
}

type DeleteMonitoredItemsResponse struct {
	ResponseHeader  ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []DiagnosticInfo
}

func (*DeleteMonitoredItemsResponse) TypeID() uint32 { return IDDeleteMonitoredItemsResponse }
func (p *DeleteMonitoredItemsResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *DeleteMonitoredItemsResponse) Encode(w *Writer) {
	writeTypeID(w, IDDeleteMonitoredItemsResponse)
	p.ResponseHeader.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *DeleteMonitoredItemsResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

// SubscriptionAcknowledgement confirms receipt of one notification message.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

type PublishRequest struct {
	RequestHeader                RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

func (*PublishRequest) TypeID() uint32 { return IDPublishRequest }
func (q *PublishRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *PublishRequest) Encode(w *Writer) {
	writeTypeID(w, IDPublishRequest)
	q.RequestHeader.encode(w)
	if q.SubscriptionAcknowledgements == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(q.SubscriptionAcknowledgements)))
	for _, a := range q.SubscriptionAcknowledgements {
		w.WriteUint32(a.SubscriptionID)
		w.WriteUint32(a.SequenceNumber)
	}
}

func (q *PublishRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	if n := r.arrayLen(); n >= 0 {
		q.SubscriptionAcknowledgements = make([]SubscriptionAcknowledgement, n)
		for i := range q.SubscriptionAcknowledgements {
			q.SubscriptionAcknowledgements[i].SubscriptionID = r.ReadUint32()
			q.SubscriptionAcknowledgements[i].SequenceNumber = r.ReadUint32()
		}
	}
}

// NotificationMessage is the payload of a publish or republish response. The
// notification data entries decode via DecodeNotification.
type NotificationMessage struct {
	SequenceNumber   uint32
	PublishTime      time.Time
	NotificationData []ExtensionObject
}

func (m *NotificationMessage) encode(w *Writer) {
	w.WriteUint32(m.SequenceNumber)
	w.WriteTime(m.PublishTime)
	if m.NotificationData == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(m.NotificationData)))
	for _, e := range m.NotificationData {
		w.WriteExtensionObject(e)
	}
}

func (m *NotificationMessage) decode(r *Reader) {
	m.SequenceNumber = r.ReadUint32()
	m.PublishTime = r.ReadTime()
	m.NotificationData = r.ReadExtensionObjectArray()
}

type PublishResponse struct {
	ResponseHeader           ResponseHeader
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      NotificationMessage
	Results                  []StatusCode
	DiagnosticInfos          []DiagnosticInfo
}

func (*PublishResponse) TypeID() uint32 { return IDPublishResponse }
func (p *PublishResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *PublishResponse) Encode(w *Writer) {
	writeTypeID(w, IDPublishResponse)
	p.ResponseHeader.encode(w)
	w.WriteUint32(p.SubscriptionID)
	writeUint32Array(w, p.AvailableSequenceNumbers)
	w.WriteBool(p.MoreNotifications)
	p.NotificationMessage.encode(w)
	writeStatusCodeArray(w, p.Results)
	writeDiagnosticInfoArray(w, p.DiagnosticInfos)
}

func (p *PublishResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.SubscriptionID = r.ReadUint32()
	p.AvailableSequenceNumbers = readUint32Array(r)
	p.MoreNotifications = r.ReadBool()
	p.NotificationMessage.decode(r)
	p.Results = readStatusCodeArray(r)
	p.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

type RepublishRequest struct {
	RequestHeader            RequestHeader
	SubscriptionID           uint32
	RetransmitSequenceNumber uint32
}

func (*RepublishRequest) TypeID() uint32 { return IDRepublishRequest }
func (q *RepublishRequest) Header() *RequestHeader { return &q.RequestHeader }

func (q *RepublishRequest) Encode(w *Writer) {
	writeTypeID(w, IDRepublishRequest)
	q.RequestHeader.encode(w)
	w.WriteUint32(q.SubscriptionID)
	w.WriteUint32(q.RetransmitSequenceNumber)
}

func (q *RepublishRequest) Decode(r *Reader) {
	q.RequestHeader.decode(r)
	q.SubscriptionID = r.ReadUint32()
	q.RetransmitSequenceNumber = r.ReadUint32()
}

type RepublishResponse struct {
	ResponseHeader      ResponseHeader
	NotificationMessage NotificationMessage
}

func (*RepublishResponse) TypeID() uint32 { return IDRepublishResponse }
func (p *RepublishResponse) Header() *ResponseHeader { return &p.ResponseHeader }

func (p *RepublishResponse) Encode(w *Writer) {
	writeTypeID(w, IDRepublishResponse)
	p.ResponseHeader.encode(w)
	p.NotificationMessage.encode(w)
}

func (p *RepublishResponse) Decode(r *Reader) {
	p.ResponseHeader.decode(r)
	p.NotificationMessage.decode(r)
}

// MonitoredItemNotification is one value change keyed by client handle.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

// DataChangeNotification carries value changes for monitored items.
type DataChangeNotification struct {
	MonitoredItems  []MonitoredItemNotification
	DiagnosticInfos []DiagnosticInfo
}

func (n *DataChangeNotification) encode(w *Writer) {
	if n.MonitoredItems == nil {
		w.WriteInt32(-1)
	} else {
		w.WriteInt32(int32(len(n.MonitoredItems)))
		for _, m := range n.MonitoredItems {
			w.WriteUint32(m.ClientHandle)
			w.WriteDataValue(m.Value)
		}
	}
	writeDiagnosticInfoArray(w, n.DiagnosticInfos)
}

func (n *DataChangeNotification) decode(r *Reader) {
	if cnt := r.arrayLen(); cnt >= 0 {
		n.MonitoredItems = make([]MonitoredItemNotification, cnt)
		for i := range n.MonitoredItems {
			n.MonitoredItems[i].ClientHandle = r.ReadUint32()
			n.MonitoredItems[i].Value = r.ReadDataValue()
		}
	}
	n.DiagnosticInfos = r.ReadDiagnosticInfoArray()
}

// EventFieldList is one event occurrence keyed by client handle.
type EventFieldList struct {
	ClientHandle uint32
	EventFields  []Variant
}

// EventNotificationList carries event occurrences for monitored items.
type EventNotificationList struct {
	Events []EventFieldList
}

func (n *EventNotificationList) encode(w *Writer) {
	if n.Events == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(n.Events)))
	for _, e := range n.Events {
		w.WriteUint32(e.ClientHandle)
		w.WriteVariantArray(e.EventFields)
	}
}

func (n *EventNotificationList) decode(r *Reader) {
	if cnt := r.arrayLen(); cnt >= 0 {
		n.Events = make([]EventFieldList, cnt)
		for i := range n.Events {
			n.Events[i].ClientHandle = r.ReadUint32()
			n.Events[i].EventFields = r.ReadVariantArray()
		}
	}
}

// StatusChangeNotification reports a subscription state change, typically
// BadTimeout when the subscription lapsed on the server.
type StatusChangeNotification struct {
	Status         StatusCode
	DiagnosticInfo DiagnosticInfo
}

func (n *StatusChangeNotification) encode(w *Writer) {
	w.WriteStatusCode(n.Status)
	w.WriteDiagnosticInfo(n.DiagnosticInfo)
}

func (n *StatusChangeNotification) decode(r *Reader) {
	n.Status = r.ReadStatusCode()
	n.DiagnosticInfo = r.ReadDiagnosticInfo()
}

// NotificationExtensionObject wraps a notification body for tests and
// server-side tooling.
func NotificationExtensionObject(v any) (ExtensionObject, error) {
	switch n := v.(type) {
	case *DataChangeNotification:
		return NewExtensionObject(IDDataChangeNotification, n), nil
	case *EventNotificationList:
		return NewExtensionObject(IDEventNotificationList, n), nil
	case *StatusChangeNotification:
		return NewExtensionObject(IDStatusChangeNotification, n), nil
	default:
		return ExtensionObject{}, fmt.Errorf("%w: notification %T", ErrInvalidEncoding, v)
	}
}

// DecodeNotification decodes one entry of NotificationMessage.NotificationData
// into *DataChangeNotification, *EventNotificationList or
// *StatusChangeNotification.
func DecodeNotification(e ExtensionObject) (any, error) {
	if e.TypeID.Type != IDTypeNumeric || e.Encoding != ExtensionObjectBinary {
		return nil, fmt.Errorf("%w: notification type id %v", ErrInvalidEncoding, e.TypeID)
	}
	r := NewReader(e.Body)
	var v any
	switch e.TypeID.Numeric {
	case IDDataChangeNotification:
		n := new(DataChangeNotification)
		n.decode(r)
		v = n
	case IDEventNotificationList:
		n := new(EventNotificationList)
		n.decode(r)
		v = n
	case IDStatusChangeNotification:
		n := new(StatusChangeNotification)
		n.decode(r)
		v = n
	default:
		return nil, fmt.Errorf("%w: notification type id %d", ErrInvalidEncoding, e.TypeID.Numeric)
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return v, nil
}
