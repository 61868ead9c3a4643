// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

// MessageSecurityMode selects whether symmetric messages are signed and
// encrypted.
type MessageSecurityMode uint32

const (
	SecurityModeInvalid MessageSecurityMode = iota
	SecurityModeNone
	SecurityModeSign
	SecurityModeSignAndEncrypt
)

func (m MessageSecurityMode) String() string {
	switch m {
	case SecurityModeNone:
		return "None"
	case SecurityModeSign:
		return "Sign"
	case SecurityModeSignAndEncrypt:
		return "SignAndEncrypt"
	default:
		return "Invalid"
	}
}

// SecurityTokenRequestType distinguishes the initial token issue from a
// renewal on an open channel.
type SecurityTokenRequestType uint32

const (
	SecurityTokenRequestIssue SecurityTokenRequestType = iota
	SecurityTokenRequestRenew
)

// AttributeID selects a node attribute in read, write and monitor requests.
type AttributeID uint32

const (
	AttributeIDNodeID        AttributeID = 1
	AttributeIDNodeClass     AttributeID = 2
	AttributeIDBrowseName    AttributeID = 3
	AttributeIDDisplayName   AttributeID = 4
	AttributeIDDescription   AttributeID = 5
	AttributeIDWriteMask     AttributeID = 6
	AttributeIDUserWriteMask AttributeID = 7
	AttributeIDValue         AttributeID = 13
	AttributeIDDataType      AttributeID = 14
	AttributeIDValueRank     AttributeID = 15
	AttributeIDEventNotifier AttributeID = 12
	AttributeIDAccessLevel   AttributeID = 17
)

// BrowseDirection selects which references Browse follows.
type BrowseDirection uint32

const (
	BrowseDirectionForward BrowseDirection = iota
	BrowseDirectionInverse
	BrowseDirectionBoth
)

// NodeClass is a bit mask of address-space node classes.
type NodeClass uint32

const (
	NodeClassObject        NodeClass = 1
	NodeClassVariable      NodeClass = 2
	NodeClassMethod        NodeClass = 4
	NodeClassObjectType    NodeClass = 8
	NodeClassVariableType  NodeClass = 16
	NodeClassReferenceType NodeClass = 32
	NodeClassDataType      NodeClass = 64
	NodeClassView          NodeClass = 128
	NodeClassAll           NodeClass = 0
)

// Browse result mask bits.
const (
	ResultMaskReferenceType = 1 << iota
	ResultMaskIsForward
	ResultMaskNodeClass
	ResultMaskBrowseName
	ResultMaskDisplayName
	ResultMaskTypeDefinition
	ResultMaskAll = ResultMaskReferenceType | ResultMaskIsForward | ResultMaskNodeClass |
		ResultMaskBrowseName | ResultMaskDisplayName | ResultMaskTypeDefinition
)

// TimestampsToReturn selects which timestamps a server includes in values.
type TimestampsToReturn uint32

const (
	TimestampsSource TimestampsToReturn = iota
	TimestampsServer
	TimestampsBoth
	TimestampsNeither
)

// MonitoringMode controls sampling and reporting of a monitored item.
type MonitoringMode uint32

const (
	MonitoringModeDisabled MonitoringMode = iota
	MonitoringModeSampling
	MonitoringModeReporting
)

// ApplicationType in an application description.
type ApplicationType uint32

const (
	ApplicationTypeServer ApplicationType = iota
	ApplicationTypeClient
	ApplicationTypeClientAndServer
	ApplicationTypeDiscoveryServer
)

// UserTokenType discriminates the identity token classes an endpoint
// accepts.
type UserTokenType uint32

const (
	UserTokenTypeAnonymous UserTokenType = iota
	UserTokenTypeUserName
	UserTokenTypeCertificate
	UserTokenTypeIssuedToken
)

// DataChangeTrigger and DeadbandType parameterise the data change filter.
type DataChangeTrigger uint32

const (
	TriggerStatus DataChangeTrigger = iota
	TriggerStatusValue
	TriggerStatusValueTimestamp
)

type DeadbandType uint32

const (
	DeadbandNone DeadbandType = iota
	DeadbandAbsolute
	DeadbandPercent
)

// Well-known namespace-zero nodes.
var (
	ObjectsFolder = NewNumericNodeID(0, 85)
	RootFolder    = NewNumericNodeID(0, 84)
	ServerObject  = NewNumericNodeID(0, 2253)

	HierarchicalReferences = NewNumericNodeID(0, 33)

	// Operational limit variables under Server/ServerCapabilities.
	VarMaxNodesPerRead           = NewNumericNodeID(0, 11705)
	VarMaxNodesPerWrite          = NewNumericNodeID(0, 11707)
	VarMaxNodesPerMethodCall     = NewNumericNodeID(0, 11709)
	VarMaxNodesPerBrowse         = NewNumericNodeID(0, 11710)
	VarMaxNodesPerRegisterNodes  = NewNumericNodeID(0, 11711)
	VarMaxMonitoredItemsPerCall  = NewNumericNodeID(0, 11714)
	VarServerNamespaceArray      = NewNumericNodeID(0, 2255)
	VarServerArray               = NewNumericNodeID(0, 2254)
	VarServerServiceLevel        = NewNumericNodeID(0, 2267)
	VarServerStateCurrentTime    = NewNumericNodeID(0, 2258)
	VarServerStatusCurrentStatus = NewNumericNodeID(0, 2259)
)
