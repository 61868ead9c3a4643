// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

// Binary encoding ids (namespace zero, numeric) for the service and filter
// types this client exchanges. Every request/response body begins with one
// of these wrapped as the TypeId of an ExtensionObject header.
const (
	IDGetEndpointsRequest          = 428
	IDGetEndpointsResponse         = 431
	IDOpenSecureChannelRequest     = 446
	IDOpenSecureChannelResponse    = 449
	IDCloseSecureChannelRequest    = 452
	IDCloseSecureChannelResponse   = 455
	IDCreateSessionRequest         = 461
	IDCreateSessionResponse        = 464
	IDActivateSessionRequest       = 467
	IDActivateSessionResponse      = 470
	IDCloseSessionRequest          = 473
	IDCloseSessionResponse         = 476
	IDBrowseRequest                = 527
	IDBrowseResponse               = 530
	IDBrowseNextRequest            = 533
	IDBrowseNextResponse           = 536
	IDRegisterNodesRequest         = 560
	IDRegisterNodesResponse        = 563
	IDUnregisterNodesRequest       = 566
	IDUnregisterNodesResponse      = 569
	IDReadRequest                  = 631
	IDReadResponse                 = 634
	IDWriteRequest                 = 673
	IDWriteResponse                = 676
	IDCallRequest                  = 712
	IDCallResponse                 = 715
	IDCreateMonitoredItemsRequest  = 751
	IDCreateMonitoredItemsResponse = 754
	IDModifyMonitoredItemsRequest  = 763
	IDModifyMonitoredItemsResponse = 766
	IDSetMonitoringModeRequest     = 769
	IDSetMonitoringModeResponse    = 772
	IDDeleteMonitoredItemsRequest  = 781
	IDDeleteMonitoredItemsResponse = 784
	IDCreateSubscriptionRequest    = 787
	IDCreateSubscriptionResponse   = 790
	IDModifySubscriptionRequest    = 793
	IDModifySubscriptionResponse   = 796
	IDSetPublishingModeRequest     = 799
	IDSetPublishingModeResponse    = 802
	IDPublishRequest               = 826
	IDPublishResponse              = 829
	IDRepublishRequest             = 832
	IDRepublishResponse            = 835
	IDDeleteSubscriptionsRequest   = 847
	IDDeleteSubscriptionsResponse  = 850
	IDServiceFault                 = 397
	IDAnonymousIdentityToken       = 321
	IDUserNameIdentityToken        = 324
	IDX509IdentityToken            = 327
	IDDataChangeFilter             = 722
	IDEventFilter                  = 725
	IDAggregateFilter              = 728
	IDEventFilterResult            = 734
	IDAggregateFilterResult        = 737
	IDDataChangeNotification       = 811
	IDEventNotificationList        = 916
	IDStatusChangeNotification     = 820
)
