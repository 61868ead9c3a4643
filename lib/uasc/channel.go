// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uasc

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/thejerf/suture/v4"

	"github.com/edgefield/opcua/internal/slogutil"
	"github.com/edgefield/opcua/lib/rand"
	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uacp"
	"github.com/edgefield/opcua/lib/uapolicy"
)

var (
	// ErrChannelClosed is returned to callers whose requests were pending
	// when the channel went down.
	ErrChannelClosed = errors.New("uasc: secure channel closed")
	// ErrSequenceViolation is a fatal ordering error on inbound chunks.
	ErrSequenceViolation = errors.New("uasc: unexpected sequence number")
	// ErrPeerAborted is returned when the server aborts a message mid
	// assembly.
	ErrPeerAborted = errors.New("uasc: peer aborted message")
)

const (
	// DefaultLifetime is the requested token lifetime.
	DefaultLifetime = 10 * time.Minute
	// DefaultRequestTimeout bounds a single service call.
	DefaultRequestTimeout = 30 * time.Second
	// renewalFactor is the fraction of the token lifetime after which the
	// client renews.
	renewalFactor = 0.75

	// sequenceWrapLimit is where the outbound sequence wraps back to 1.
	sequenceWrapLimit = math.MaxUint32 - 1023
)

// Config parameterises a secure channel.
type Config struct {
	SecurityPolicyURI string
	SecurityMode      ua.MessageSecurityMode
	Certificate       []byte // client certificate, DER
	PrivateKey        *rsa.PrivateKey
	RemoteCertificate []byte // server certificate, DER
	Lifetime          time.Duration
	RequestTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.SecurityPolicyURI == "" {
		c.SecurityPolicyURI = uapolicy.PolicyURINone
	}
	if c.SecurityMode == ua.SecurityModeInvalid {
		c.SecurityMode = ua.SecurityModeNone
	}
	if c.Lifetime == 0 {
		c.Lifetime = DefaultLifetime
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// token is one issued security token with its derived ciphers.
type token struct {
	id        uint32
	createdAt time.Time
	lifetime  time.Duration
	encrypt   *uapolicy.SymmetricCipher // client → server
	decrypt   *uapolicy.SymmetricCipher // server → client
}

func (t *token) expired(now time.Time) bool {
	return now.After(t.createdAt.Add(t.lifetime))
}

type response struct {
	resp ua.Response
	err  error
}

// SecureChannel multiplexes service requests over one transport connection.
// A single writer mutex serialises outbound framing; the reader loop (Serve)
// demultiplexes responses to waiting callers by request id.
type SecureChannel struct {
	endpoint string
	c        *uacp.Conn
	cfg      Config
	policy   *uapolicy.Policy
	log      *slog.Logger

	// writeMut serialises chunk framing and the counters below.
	writeMut      sync.Mutex
	sequence      uint32
	requestID     uint32
	requestHandle uint32

	// stateMut guards channel id, tokens and the remote sequence.
	stateMut       sync.Mutex
	channelID      uint32
	tokens         []*token
	remoteSequence uint32
	open           bool
	closing        bool

	asym *uapolicy.AsymmetricCipher

	pending *xsync.MapOf[uint32, chan response]

	// chunk reassembly state, owned by the reader loop.
	partial     map[uint32][][]byte
	partialSize map[uint32]uint32

	done chan struct{}
}

// NewSecureChannel wraps an established transport connection. Open must be
// called before requests are sent, and Serve must be running for responses
// to be delivered.
func NewSecureChannel(endpoint string, c *uacp.Conn, cfg Config) (*SecureChannel, error) {
	cfg.applyDefaults()
	policy, err := uapolicy.Lookup(cfg.SecurityPolicyURI)
	if err != nil {
		return nil, err
	}
	if !policy.IsNone() && cfg.SecurityMode == ua.SecurityModeNone {
		return nil, fmt.Errorf("uasc: policy %s cannot be used with security mode None", cfg.SecurityPolicyURI)
	}
	var remoteKey *rsa.PublicKey
	if !policy.IsNone() {
		if cfg.PrivateKey == nil {
			return nil, fmt.Errorf("uasc: policy %s requires a private key", cfg.SecurityPolicyURI)
		}
		remoteKey, err = uapolicy.PublicKeyFromCertificate(cfg.RemoteCertificate)
		if err != nil {
			return nil, err
		}
	}
	asym, err := uapolicy.NewAsymmetricCipher(policy, cfg.PrivateKey, remoteKey)
	if err != nil {
		return nil, err
	}
	return &SecureChannel{
		endpoint:    endpoint,
		c:           c,
		cfg:         cfg,
		policy:      policy,
		log:         slog.With(slog.String("pkg", "uasc"), slogutil.URI(endpoint)),
		asym:        asym,
		pending:     xsync.NewMapOf[uint32, chan response](),
		partial:     make(map[uint32][][]byte),
		partialSize: make(map[uint32]uint32),
		done:        make(chan struct{}),
	}, nil
}

// ChannelID returns the server-assigned channel id, zero before Open.
func (s *SecureChannel) ChannelID() uint32 {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	return s.channelID
}

// IsOpen reports whether the channel currently holds a valid token.
func (s *SecureChannel) IsOpen() bool {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	return s.open
}

// RenewalDue reports whether the current token has passed the renewal
// point.
func (s *SecureChannel) RenewalDue() bool {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	if !s.open || len(s.tokens) == 0 {
		return false
	}
	t := s.tokens[len(s.tokens)-1]
	due := t.createdAt.Add(time.Duration(float64(t.lifetime) * renewalFactor))
	return time.Now().After(due)
}

// TokenLifetime returns the revised lifetime of the current token.
func (s *SecureChannel) TokenLifetime() time.Duration {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	if len(s.tokens) == 0 {
		return s.cfg.Lifetime
	}
	return s.tokens[len(s.tokens)-1].lifetime
}

func (s *SecureChannel) nextSequence() uint32 {
	s.sequence++
	if s.sequence >= sequenceWrapLimit {
		s.sequence = 1
	}
	return s.sequence
}

func (s *SecureChannel) nextRequestID() uint32 {
	s.requestID++
	if s.requestID == 0 {
		s.requestID = 1
	}
	return s.requestID
}

func (s *SecureChannel) nextRequestHandle() uint32 {
	s.requestHandle++
	if s.requestHandle == 0 {
		s.requestHandle = 1
	}
	return s.requestHandle
}

// Open performs the initial OpenSecureChannel exchange (Issue).
func (s *SecureChannel) Open(ctx context.Context) error {
	return s.openSecureChannel(ctx, ua.SecurityTokenRequestIssue)
}

// Renew refreshes the security token on an open channel. The previous key
// set stays valid until its lifetime elapses; inbound chunks select keys by
// token id.
func (s *SecureChannel) Renew(ctx context.Context) error {
	return s.openSecureChannel(ctx, ua.SecurityTokenRequestRenew)
}

func (s *SecureChannel) openSecureChannel(ctx context.Context, reqType ua.SecurityTokenRequestType) error {
	nonce := []byte(nil)
	if !s.policy.IsNone() {
		nonce = rand.Bytes(s.policy.NonceLength)
	}

	req := &ua.OpenSecureChannelRequest{
		ClientProtocolVersion: 0,
		RequestType:           reqType,
		SecurityMode:          s.cfg.SecurityMode,
		ClientNonce:           nonce,
		RequestedLifetime:     uint32(s.cfg.Lifetime / time.Millisecond),
	}

	s.writeMut.Lock()
	s.fillRequestHeader(req.Header(), s.cfg.RequestTimeout)
	body, err := ua.EncodeRequest(req)
	if err != nil {
		s.writeMut.Unlock()
		return err
	}
	reqID := s.nextRequestID()
	ch := s.registerPending(reqID)
	err = s.writeAsymmetric(reqID, body)
	s.writeMut.Unlock()
	if err != nil {
		s.unregisterPending(reqID)
		return err
	}

	resp, err := s.waitResponse(ctx, reqID, ch, s.cfg.RequestTimeout)
	if err != nil {
		return err
	}
	osc, ok := resp.(*ua.OpenSecureChannelResponse)
	if !ok {
		return fmt.Errorf("uasc: got %T, want OpenSecureChannelResponse", resp)
	}
	return s.installToken(osc, nonce)
}

func (s *SecureChannel) installToken(resp *ua.OpenSecureChannelResponse, clientNonce []byte) error {
	if !s.policy.IsNone() && len(resp.ServerNonce) != s.policy.NonceLength {
		return fmt.Errorf("uasc: server nonce length %d, want %d: %w",
			len(resp.ServerNonce), s.policy.NonceLength, ua.StatusBadNonceInvalid)
	}
	ks := s.policy.DeriveKeySet(clientNonce, resp.ServerNonce, resp.SecurityToken.TokenID)
	encrypt, err := uapolicy.NewSymmetricCipher(s.policy, ks.Client)
	if err != nil {
		return err
	}
	decrypt, err := uapolicy.NewSymmetricCipher(s.policy, ks.Server)
	if err != nil {
		return err
	}

	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	s.channelID = resp.SecurityToken.ChannelID
	tok := &token{
		id:        resp.SecurityToken.TokenID,
		createdAt: time.Now(),
		lifetime:  time.Duration(resp.SecurityToken.RevisedLifetime) * time.Millisecond,
		encrypt:   encrypt,
		decrypt:   decrypt,
	}
	s.tokens = append(s.tokens, tok)
	s.purgeTokensLocked(time.Now())
	s.open = true
	s.log.Debug("Security token installed",
		slogutil.ChannelID(s.channelID),
		slog.Any("tokenID", tok.id),
		slog.Any("lifetime", tok.lifetime))
	return nil
}

// purgeTokensLocked drops expired superseded tokens, keeping at least the
// newest.
func (s *SecureChannel) purgeTokensLocked(now time.Time) {
	for len(s.tokens) > 1 && s.tokens[0].expired(now) {
		s.tokens = s.tokens[1:]
	}
	// Never hold more than two sets; the server confirms the switch by
	// using the new token.
	for len(s.tokens) > 2 {
		s.tokens = s.tokens[1:]
	}
}

func (s *SecureChannel) tokenByID(id uint32) *token {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	s.purgeTokensLocked(time.Now())
	for _, t := range s.tokens {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (s *SecureChannel) currentToken() *token {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	if len(s.tokens) == 0 {
		return nil
	}
	return s.tokens[len(s.tokens)-1]
}

// Close sends CloseSecureChannel and tears down the transport. The server
// does not respond to CLO.
func (s *SecureChannel) Close(ctx context.Context) error {
	s.stateMut.Lock()
	wasOpen := s.open
	s.open = false
	s.closing = true
	s.stateMut.Unlock()

	if wasOpen {
		req := &ua.CloseSecureChannelRequest{}
		s.writeMut.Lock()
		s.fillRequestHeader(req.Header(), s.cfg.RequestTimeout)
		if body, err := ua.EncodeRequest(req); err == nil {
			reqID := s.nextRequestID()
			_ = s.writeSymmetric(uacp.MessageTypeClose, reqID, body)
		}
		s.writeMut.Unlock()
	}
	err := s.c.Close()
	s.failPending(ErrChannelClosed)
	return err
}

func (s *SecureChannel) fillRequestHeader(h *ua.RequestHeader, timeout time.Duration) {
	h.Timestamp = time.Now().UTC()
	h.RequestHandle = s.nextRequestHandle()
	h.TimeoutHint = uint32(timeout / time.Millisecond)
}

// SendRequest issues a service request and waits for the matching response
// or the per-request deadline.
func (s *SecureChannel) SendRequest(ctx context.Context, req ua.Request) (ua.Response, error) {
	return s.SendRequestWithTimeout(ctx, req, s.cfg.RequestTimeout)
}

// SendRequestWithTimeout issues a service request with an explicit deadline.
func (s *SecureChannel) SendRequestWithTimeout(ctx context.Context, req ua.Request, timeout time.Duration) (ua.Response, error) {
	if !s.IsOpen() {
		return nil, ua.StatusBadServerNotConnected
	}
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}

	s.writeMut.Lock()
	s.fillRequestHeader(req.Header(), timeout)
	body, err := ua.EncodeRequest(req)
	if err != nil {
		s.writeMut.Unlock()
		return nil, err
	}
	reqID := s.nextRequestID()
	ch := s.registerPending(reqID)
	err = s.writeSymmetric(uacp.MessageTypeMessage, reqID, body)
	s.writeMut.Unlock()
	if err != nil {
		s.unregisterPending(reqID)
		return nil, err
	}
	s.log.Debug("Request sent", slogutil.RequestID(reqID), slog.String("type", fmt.Sprintf("%T", req)))

	return s.waitResponse(ctx, reqID, ch, timeout)
}

func (s *SecureChannel) registerPending(reqID uint32) chan response {
	ch := make(chan response, 1)
	s.pending.Store(reqID, ch)
	return ch
}

func (s *SecureChannel) unregisterPending(reqID uint32) {
	s.pending.Delete(reqID)
}

// waitResponse blocks until the reader delivers the response, the deadline
// elapses, or the channel dies. Late responses after a timeout are
// discarded by the reader since the waiter is gone.
func (s *SecureChannel) waitResponse(ctx context.Context, reqID uint32, ch chan response, timeout time.Duration) (ua.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		if r.err != nil {
			return r.resp, r.err
		}
		// A bad service result propagates as an error without tearing
		// down the channel.
		if hdr := r.resp.Header(); hdr.ServiceResult.IsBad() {
			return r.resp, hdr.ServiceResult
		}
		return r.resp, nil
	case <-timer.C:
		s.unregisterPending(reqID)
		return nil, ua.StatusBadTimeout
	case <-ctx.Done():
		s.unregisterPending(reqID)
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrChannelClosed
	}
}

// Serve is the reader loop: it assembles chunks, decrypts and verifies
// them, and routes complete responses to the pending waiters. It exits when
// the transport fails or the channel closes. Fatal protocol errors close
// the channel and fail all waiters.
func (s *SecureChannel) Serve(ctx context.Context) error {
	defer s.shutdown()
	stop := context.AfterFunc(ctx, func() { _ = s.c.Close() })
	defer stop()

	for {
		hdr, frame, err := s.c.ReadChunk()
		if err != nil {
			if ctx.Err() != nil || s.isClosing() {
				return suture.ErrDoNotRestart
			}
			s.failWith(fmt.Errorf("uasc: transport: %w", err))
			return suture.ErrDoNotRestart
		}
		if err := s.handleChunk(hdr, frame); err != nil {
			s.failWith(err)
			return suture.ErrDoNotRestart
		}
	}
}

func (s *SecureChannel) isClosing() bool {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	return s.closing
}

func (s *SecureChannel) shutdown() {
	s.failPending(ErrChannelClosed)
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// failWith is invoked for fatal errors per the error taxonomy: the channel
// closes and every pending waiter fails.
func (s *SecureChannel) failWith(err error) {
	s.log.Warn("Secure channel failed", slogutil.Error(err))
	s.stateMut.Lock()
	s.open = false
	s.stateMut.Unlock()
	s.failPending(err)
	_ = s.c.Close()
}

func (s *SecureChannel) failPending(err error) {
	s.pending.Range(func(reqID uint32, ch chan response) bool {
		s.pending.Delete(reqID)
		select {
		case ch <- response{err: err}:
		default:
		}
		return true
	})
}

// handleChunk processes one inbound chunk. A non-nil error is fatal to the
// channel.
func (s *SecureChannel) handleChunk(hdr uacp.Header, frame []byte) error {
	switch hdr.MessageType {
	case uacp.MessageTypeOpen:
		return s.handleOpenResponse(frame)
	case uacp.MessageTypeMessage:
		return s.handleMessageChunk(hdr, frame)
	case uacp.MessageTypeClose:
		return ErrChannelClosed
	default:
		return fmt.Errorf("uasc: unexpected %s chunk", hdr.MessageType)
	}
}

func (s *SecureChannel) handleMessageChunk(hdr uacp.Header, frame []byte) error {
	if len(frame) < symmetricHeaderLength+sequenceHeaderLength {
		return fmt.Errorf("uasc: truncated MSG chunk: %w", ua.ErrShortBuffer)
	}

	var sec SymmetricSecurityHeader
	r := ua.NewReader(frame[uacp.HeaderLength:symmetricHeaderLength])
	sec.Decode(r)

	tok := s.tokenByID(sec.TokenID)
	if tok == nil {
		return fmt.Errorf("uasc: token %d: %w", sec.TokenID, ua.StatusBadSecureChannelTokenUnknown)
	}

	plain, reqID, err := s.openSymmetric(tok, frame)
	if err != nil {
		return err
	}

	switch hdr.ChunkKind {
	case uacp.ChunkAbort:
		s.dropPartial(reqID)
		ar := ua.NewReader(plain)
		code := ua.StatusCode(ar.ReadUint32())
		reason := ar.ReadString()
		s.deliver(reqID, response{err: fmt.Errorf("%w: %v %s", ErrPeerAborted, code, reason)})
		return nil
	case uacp.ChunkIntermediate:
		return s.appendPartial(reqID, plain)
	case uacp.ChunkFinal:
		if err := s.appendPartial(reqID, plain); err != nil {
			return err
		}
		body := s.takePartial(reqID)
		resp, err := ua.DecodeResponse(body)
		if err != nil {
			return err
		}
		s.deliver(reqID, response{resp: resp})
		return nil
	default:
		return fmt.Errorf("uasc: chunk kind %q", hdr.ChunkKind)
	}
}

// openSymmetric decrypts, verifies and unpads one MSG chunk, returning the
// service body slice and the request id. It also enforces the sequence
// number discipline.
func (s *SecureChannel) openSymmetric(tok *token, frame []byte) (body []byte, reqID uint32, err error) {
	encrypted := s.cfg.SecurityMode == ua.SecurityModeSignAndEncrypt
	signed := s.cfg.SecurityMode != ua.SecurityModeNone

	region := frame[symmetricHeaderLength:]
	if encrypted {
		if err := tok.decrypt.Decrypt(region); err != nil {
			return nil, 0, err
		}
	}
	if signed {
		sigLen := tok.decrypt.SignatureLength()
		if len(region) < sigLen+sequenceHeaderLength {
			return nil, 0, ua.ErrShortBuffer
		}
		sig := frame[len(frame)-sigLen:]
		if err := tok.decrypt.Verify(frame[:len(frame)-sigLen], sig); err != nil {
			return nil, 0, err
		}
		region = region[:len(region)-sigLen]
	}
	if encrypted {
		region, err = uapolicy.RemovePadding(region, tok.decrypt.BlockSize())
		if err != nil {
			return nil, 0, err
		}
	}

	var seq SequenceHeader
	r := ua.NewReader(region[:sequenceHeaderLength])
	seq.Decode(r)
	if err := r.Error(); err != nil {
		return nil, 0, err
	}
	if err := s.checkRemoteSequence(seq.SequenceNumber); err != nil {
		return nil, 0, err
	}
	return region[sequenceHeaderLength:], seq.RequestID, nil
}

// checkRemoteSequence enforces monotonically increasing inbound sequence
// numbers. Wrap to 1 is accepted only once the counter has reached the wrap
// limit, and never before 1024 numbers have been consumed.
func (s *SecureChannel) checkRemoteSequence(seq uint32) error {
	s.stateMut.Lock()
	defer s.stateMut.Unlock()
	prev := s.remoteSequence
	switch {
	case prev == 0:
		// First chunk on the channel sets the baseline.
	case seq == prev+1:
	case seq == 1 && prev >= sequenceWrapLimit:
	default:
		return fmt.Errorf("%w: got %d after %d", ErrSequenceViolation, seq, prev)
	}
	s.remoteSequence = seq
	return nil
}

func (s *SecureChannel) appendPartial(reqID uint32, body []byte) error {
	limits := s.c.Limits()
	cp := make([]byte, len(body))
	copy(cp, body)
	s.partial[reqID] = append(s.partial[reqID], cp)
	s.partialSize[reqID] += uint32(len(cp))
	if limits.MaxChunkCount != 0 && uint32(len(s.partial[reqID])) > limits.MaxChunkCount {
		return fmt.Errorf("%w: %d chunks", uacp.ErrTooManyChunks, len(s.partial[reqID]))
	}
	if limits.MaxMessageSize != 0 && s.partialSize[reqID] > limits.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", uacp.ErrMessageTooLarge, s.partialSize[reqID])
	}
	return nil
}

func (s *SecureChannel) takePartial(reqID uint32) []byte {
	parts := s.partial[reqID]
	s.dropPartial(reqID)
	if len(parts) == 1 {
		return parts[0]
	}
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func (s *SecureChannel) dropPartial(reqID uint32) {
	delete(s.partial, reqID)
	delete(s.partialSize, reqID)
}

// deliver routes a complete response to its waiter. Responses without a
// waiter (late arrivals after a timeout) are discarded.
func (s *SecureChannel) deliver(reqID uint32, r response) {
	ch, ok := s.pending.LoadAndDelete(reqID)
	if !ok {
		s.log.Debug("Discarding response with no waiter", slogutil.RequestID(reqID))
		return
	}
	ch <- r
}

func (s *SecureChannel) handleOpenResponse(frame []byte) error {
	r := ua.NewReader(frame[uacp.HeaderLength:])
	channelID := r.ReadUint32()
	var asymHdr AsymmetricSecurityHeader
	asymHdr.Decode(r)
	if err := r.Error(); err != nil {
		return err
	}
	if asymHdr.SecurityPolicyURI != s.cfg.SecurityPolicyURI {
		return fmt.Errorf("uasc: OPN response policy %q, want %q", asymHdr.SecurityPolicyURI, s.cfg.SecurityPolicyURI)
	}

	region := frame[len(frame)-r.Remaining():]
	var err error
	if !s.policy.IsNone() {
		// The server encrypted to our public key and signed with its
		// private key.
		plainStart := len(frame) - len(region)
		region, err = s.asym.Decrypt(region)
		if err != nil {
			return err
		}
		full := append(append([]byte(nil), frame[:plainStart]...), region...)
		sigLen := s.asym.RemoteSignatureLength()
		if len(region) < sigLen {
			return ua.ErrShortBuffer
		}
		if err := s.asym.Verify(full[:len(full)-sigLen], full[len(full)-sigLen:]); err != nil {
			return err
		}
		region = region[:len(region)-sigLen]
		region, err = removeAsymPadding(region, s.cfg.PrivateKey)
		if err != nil {
			return err
		}
	}

	rr := ua.NewReader(region)
	var seq SequenceHeader
	seq.Decode(rr)
	if err := rr.Error(); err != nil {
		return err
	}
	if err := s.checkRemoteSequence(seq.SequenceNumber); err != nil {
		return err
	}
	body := region[sequenceHeaderLength:]
	resp, err := ua.DecodeResponse(body)
	if err != nil {
		return err
	}
	if osc, ok := resp.(*ua.OpenSecureChannelResponse); ok && channelID != 0 && osc.SecurityToken.ChannelID == 0 {
		osc.SecurityToken.ChannelID = channelID
	}
	s.deliver(seq.RequestID, response{resp: resp})
	return nil
}

// removeAsymPadding strips the OPN padding. The padding size field is two
// bytes when the local key exceeds 2048 bits.
func removeAsymPadding(data []byte, key *rsa.PrivateKey) ([]byte, error) {
	if len(data) == 0 {
		return nil, uapolicy.ErrPaddingInvalid
	}
	if key.Size() > 256 {
		if len(data) < 2 {
			return nil, uapolicy.ErrPaddingInvalid
		}
		p := int(data[len(data)-2]) | int(data[len(data)-1])<<8
		if p+2 > len(data) {
			return nil, uapolicy.ErrPaddingInvalid
		}
		return data[:len(data)-2-p], nil
	}
	p := int(data[len(data)-1])
	if p+1 > len(data) {
		return nil, uapolicy.ErrPaddingInvalid
	}
	return data[:len(data)-1-p], nil
}
