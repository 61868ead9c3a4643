// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import "fmt"

// StatusCode is the 32-bit OPC UA result code. The top two bits encode the
// severity (00 good, 01 uncertain, 10 bad); the next 14 bits the subcode.
// A bad StatusCode doubles as a Go error so service results can propagate
// through ordinary error returns.
type StatusCode uint32

const (
	severityMask    StatusCode = 0xC0000000
	severityBad     StatusCode = 0x80000000
	severityUncertn StatusCode = 0x40000000
)

func (s StatusCode) IsGood() bool { return s&severityMask == 0 }
func (s StatusCode) IsUncertain() bool { return s&severityMask == severityUncertn }
func (s StatusCode) IsBad() bool { return s&severityMask == severityBad }

func (s StatusCode) Error() string {
	if name, ok := statusNames[s]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(s))
	}
	return fmt.Sprintf("StatusCode 0x%08X", uint32(s))
}

func (s StatusCode) String() string { return s.Error() }

const (
	StatusGood StatusCode = 0x00000000

	StatusBadUnexpectedError           StatusCode = 0x80010000
	StatusBadInternalError             StatusCode = 0x80020000
	StatusBadOutOfMemory               StatusCode = 0x80030000
	StatusBadResourceUnavailable       StatusCode = 0x80040000
	StatusBadCommunicationError        StatusCode = 0x80050000
	StatusBadEncodingError             StatusCode = 0x80060000
	StatusBadDecodingError             StatusCode = 0x80070000
	StatusBadEncodingLimitsExceeded    StatusCode = 0x80080000
	StatusBadUnknownResponse           StatusCode = 0x80090000
	StatusBadTimeout                   StatusCode = 0x800A0000
	StatusBadServiceUnsupported        StatusCode = 0x800B0000
	StatusBadShutdown                  StatusCode = 0x800C0000
	StatusBadServerNotConnected        StatusCode = 0x800D0000
	StatusBadNothingToDo               StatusCode = 0x800F0000
	StatusBadTooManyOperations         StatusCode = 0x80100000
	StatusBadCertificateInvalid        StatusCode = 0x80120000
	StatusBadSecurityChecksFailed      StatusCode = 0x80130000
	StatusBadCertificateUntrusted      StatusCode = 0x801A0000
	StatusBadIdentityTokenInvalid      StatusCode = 0x80200000
	StatusBadIdentityTokenRejected     StatusCode = 0x80210000
	StatusBadSecureChannelIDInvalid    StatusCode = 0x80220000
	StatusBadNonceInvalid              StatusCode = 0x80240000
	StatusBadSessionIDInvalid          StatusCode = 0x80250000
	StatusBadSessionClosed             StatusCode = 0x80260000
	StatusBadSessionNotActivated       StatusCode = 0x80270000
	StatusBadSubscriptionIDInvalid     StatusCode = 0x80280000
	StatusBadNodeIDInvalid             StatusCode = 0x80330000
	StatusBadNodeIDUnknown             StatusCode = 0x80340000
	StatusBadAttributeIDInvalid        StatusCode = 0x80350000
	StatusBadIndexRangeInvalid         StatusCode = 0x80360000
	StatusBadContinuationPointInvalid  StatusCode = 0x804A0000
	StatusBadNoContinuationPoints      StatusCode = 0x804B0000
	StatusBadTypeMismatch              StatusCode = 0x80740000
	StatusBadInvalidArgument           StatusCode = 0x80AB0000
	StatusBadNoSubscription            StatusCode = 0x80790000
	StatusBadSequenceNumberUnknown     StatusCode = 0x807A0000
	StatusBadMessageNotAvailable       StatusCode = 0x807B0000
	StatusBadTCPServerTooBusy          StatusCode = 0x807D0000
	StatusBadTCPMessageTypeInvalid     StatusCode = 0x807E0000
	StatusBadTCPSecureChannelUnknown   StatusCode = 0x807F0000
	StatusBadTCPMessageTooLarge        StatusCode = 0x80800000
	StatusBadTCPInternalError          StatusCode = 0x80820000
	StatusBadTCPEndpointURLInvalid     StatusCode = 0x80830000
	StatusBadRequestInterrupted        StatusCode = 0x80840000
	StatusBadRequestTimeout            StatusCode = 0x80850000
	StatusBadSecureChannelClosed       StatusCode = 0x80860000
	StatusBadSecureChannelTokenUnknown StatusCode = 0x80870000
	StatusBadSequenceNumberInvalid     StatusCode = 0x80880000
	StatusBadRequestTooLarge           StatusCode = 0x80B80000
	StatusBadResponseTooLarge          StatusCode = 0x80B90000
)

var statusNames = map[StatusCode]string{
	StatusGood:                         "Good",
	StatusBadUnexpectedError:           "BadUnexpectedError",
	StatusBadInternalError:             "BadInternalError",
	StatusBadOutOfMemory:               "BadOutOfMemory",
	StatusBadResourceUnavailable:       "BadResourceUnavailable",
	StatusBadCommunicationError:        "BadCommunicationError",
	StatusBadEncodingError:             "BadEncodingError",
	StatusBadDecodingError:             "BadDecodingError",
	StatusBadEncodingLimitsExceeded:    "BadEncodingLimitsExceeded",
	StatusBadUnknownResponse:           "BadUnknownResponse",
	StatusBadTimeout:                   "BadTimeout",
	StatusBadServiceUnsupported:        "BadServiceUnsupported",
	StatusBadShutdown:                  "BadShutdown",
	StatusBadServerNotConnected:        "BadServerNotConnected",
	StatusBadNothingToDo:               "BadNothingToDo",
	StatusBadTooManyOperations:         "BadTooManyOperations",
	StatusBadCertificateInvalid:        "BadCertificateInvalid",
	StatusBadSecurityChecksFailed:      "BadSecurityChecksFailed",
	StatusBadCertificateUntrusted:      "BadCertificateUntrusted",
	StatusBadIdentityTokenInvalid:      "BadIdentityTokenInvalid",
	StatusBadIdentityTokenRejected:     "BadIdentityTokenRejected",
	StatusBadSecureChannelIDInvalid:    "BadSecureChannelIdInvalid",
	StatusBadNonceInvalid:              "BadNonceInvalid",
	StatusBadSessionIDInvalid:          "BadSessionIdInvalid",
	StatusBadSessionClosed:             "BadSessionClosed",
	StatusBadSessionNotActivated:       "BadSessionNotActivated",
	StatusBadSubscriptionIDInvalid:     "BadSubscriptionIdInvalid",
	StatusBadNodeIDInvalid:             "BadNodeIdInvalid",
	StatusBadNodeIDUnknown:             "BadNodeIdUnknown",
	StatusBadAttributeIDInvalid:        "BadAttributeIdInvalid",
	StatusBadIndexRangeInvalid:         "BadIndexRangeInvalid",
	StatusBadContinuationPointInvalid:  "BadContinuationPointInvalid",
	StatusBadNoContinuationPoints:      "BadNoContinuationPoints",
	StatusBadTypeMismatch:              "BadTypeMismatch",
	StatusBadInvalidArgument:           "BadInvalidArgument",
	StatusBadNoSubscription:            "BadNoSubscription",
	StatusBadSequenceNumberUnknown:     "BadSequenceNumberUnknown",
	StatusBadMessageNotAvailable:       "BadMessageNotAvailable",
	StatusBadTCPServerTooBusy:          "BadTcpServerTooBusy",
	StatusBadTCPMessageTypeInvalid:     "BadTcpMessageTypeInvalid",
	StatusBadTCPSecureChannelUnknown:   "BadTcpSecureChannelUnknown",
	StatusBadTCPMessageTooLarge:        "BadTcpMessageTooLarge",
	StatusBadTCPInternalError:          "BadTcpInternalError",
	StatusBadTCPEndpointURLInvalid:     "BadTcpEndpointUrlInvalid",
	StatusBadRequestInterrupted:        "BadRequestInterrupted",
	StatusBadRequestTimeout:            "BadRequestTimeout",
	StatusBadSecureChannelClosed:       "BadSecureChannelClosed",
	StatusBadSecureChannelTokenUnknown: "BadSecureChannelTokenUnknown",
	StatusBadSequenceNumberInvalid:     "BadSequenceNumberInvalid",
	StatusBadRequestTooLarge:           "BadRequestTooLarge",
	StatusBadResponseTooLarge:          "BadResponseTooLarge",
}

func (w *Writer) WriteStatusCode(s StatusCode) { w.WriteUint32(uint32(s)) }

func (r *Reader) ReadStatusCode() StatusCode { return StatusCode(r.ReadUint32()) }
