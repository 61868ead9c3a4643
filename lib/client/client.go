// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package client implements the OPC UA client session: create/activate with
// the three identity token classes, the address-space services, the
// subscription engine with its publish loop, and batch splitting against the
// server's operational limits.
package client

import (
	"bytes"
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/edgefield/opcua/internal/slogutil"
	"github.com/edgefield/opcua/lib/nodecache"
	"github.com/edgefield/opcua/lib/rand"
	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uacp"
	"github.com/edgefield/opcua/lib/uapolicy"
	"github.com/edgefield/opcua/lib/uasc"
)

var (
	ErrNotConnected = errors.New("client: not connected")
	ErrNoSession    = errors.New("client: session not active")
)

const (
	defaultSessionTimeout  = 30 * time.Minute
	defaultSessionNameLen  = 8
	defaultPublishWorkers  = 2
	sessionNonceLength     = 32
	renewalCheckInterval   = time.Second
	defaultApplicationName = "edgefield opcua client"
)

// UserIdentity selects how ActivateSession authenticates the user.
type UserIdentity interface {
	isIdentity()
}

// AnonymousIdentity authenticates as the anonymous user.
type AnonymousIdentity struct{}

func (AnonymousIdentity) isIdentity() {}

// UserNameIdentity authenticates with user name and password. The password
// is encrypted with the endpoint's user token security policy unless that
// policy is None.
type UserNameIdentity struct {
	UserName string
	Password string
}

func (UserNameIdentity) isIdentity() {}

// X509Identity authenticates with a user certificate; the private key signs
// the server nonce as proof of possession.
type X509Identity struct {
	Certificate []byte // DER
	Key         *rsa.PrivateKey
}

func (X509Identity) isIdentity() {}

// Option configures a Client before it connects.
type Option func(*Client)

func WithSecurity(policyURI string, mode ua.MessageSecurityMode) Option {
	return func(c *Client) {
		c.channelCfg.SecurityPolicyURI = policyURI
		c.channelCfg.SecurityMode = mode
	}
}

// WithCertificate sets the client application certificate and key used for
// secure channels and session signatures.
func WithCertificate(der []byte, key *rsa.PrivateKey) Option {
	return func(c *Client) {
		c.channelCfg.Certificate = der
		c.channelCfg.PrivateKey = key
	}
}

// WithServerCertificate pins the server certificate used for the asymmetric
// handshake and session signature verification.
func WithServerCertificate(der []byte) Option {
	return func(c *Client) { c.channelCfg.RemoteCertificate = der }
}

func WithUserIdentity(id UserIdentity) Option {
	return func(c *Client) { c.identity = id }
}

func WithSessionName(name string) Option {
	return func(c *Client) { c.sessionName = name }
}

func WithSessionTimeout(d time.Duration) Option {
	return func(c *Client) { c.sessionTimeout = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.channelCfg.RequestTimeout = d }
}

func WithTokenLifetime(d time.Duration) Option {
	return func(c *Client) { c.channelCfg.Lifetime = d }
}

// WithPublishWorkers sets the number of outstanding publish requests the
// publish loop keeps in flight.
func WithPublishWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.publishWorkers = n
		}
	}
}

// WithBatchSize caps the client-side batch size regardless of the server's
// advertised limits.
func WithBatchSize(n uint32) Option {
	return func(c *Client) { c.batchSize = n }
}

// WithNodeCache enables the node metadata cache used by Children and
// CachedValue. Zero values select the cache defaults.
func WithNodeCache(maxSize int, ttl time.Duration) Option {
	return func(c *Client) { c.cache = nodecache.New(maxSize, ttl) }
}

// secureChannel is the slice of the uasc channel the client uses, narrowed
// for testability.
type secureChannel interface {
	Open(ctx context.Context) error
	Renew(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool
	RenewalDue() bool
	SendRequest(ctx context.Context, req ua.Request) (ua.Response, error)
	SendRequestWithTimeout(ctx context.Context, req ua.Request, timeout time.Duration) (ua.Response, error)
	Serve(ctx context.Context) error
}

// session mirrors the server-side session state.
type session struct {
	id                  ua.NodeID
	authenticationToken ua.NodeID
	timeout             time.Duration
	serverNonce         []byte
	serverCertificate   []byte
	active              bool
}

// Client is an OPC UA client bound to one endpoint. It owns the transport,
// the secure channel, one session, and any number of subscriptions.
type Client struct {
	endpoint   string
	channelCfg uasc.Config
	log        *slog.Logger

	identity       UserIdentity
	sessionName    string
	sessionTimeout time.Duration
	publishWorkers int
	batchSize      uint32

	conn    *uacp.Conn
	channel secureChannel

	sup     *suture.Supervisor
	supStop context.CancelFunc
	supErr  <-chan error

	sessionMut sync.Mutex
	session    *session
	namespaces []string

	subMut sync.Mutex
	subs   map[uint32]*Subscription

	ackMut sync.Mutex
	acks   []ua.SubscriptionAcknowledgement

	handleMut  sync.Mutex
	nextHandle uint32

	limitsOnce sync.Mutex
	limits     *OperationLimits

	cache *nodecache.Cache
}

// New prepares a client for the endpoint without connecting.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:       endpoint,
		sessionTimeout: defaultSessionTimeout,
		identity:       AnonymousIdentity{},
		publishWorkers: defaultPublishWorkers,
		subs:           make(map[uint32]*Subscription),
		log:            slog.With(slog.String("pkg", "client"), slogutil.URI(endpoint)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.channelCfg.SecurityPolicyURI == "" {
		c.channelCfg.SecurityPolicyURI = uapolicy.PolicyURINone
		c.channelCfg.SecurityMode = ua.SecurityModeNone
	}
	if c.channelCfg.RequestTimeout == 0 {
		c.channelCfg.RequestTimeout = uasc.DefaultRequestTimeout
	}
	if c.sessionName == "" {
		c.sessionName = "edgefield-" + rand.String(defaultSessionNameLen)
	}
	return c
}

// Dial connects, opens the secure channel and activates a session.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	c := New(endpoint, opts...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect establishes the transport, secure channel and session.
func (c *Client) Connect(ctx context.Context) error {
	if c.channel != nil {
		return errors.New("client: already connected")
	}
	conn, err := uacp.Dial(ctx, c.endpoint)
	if err != nil {
		return err
	}
	ch, err := uasc.NewSecureChannel(c.endpoint, conn, c.channelCfg)
	if err != nil {
		conn.Close()
		return err
	}
	c.conn = conn
	c.channel = ch

	sup := suture.NewSimple("opcua-client")
	sup.Add(ch)
	sup.Add(serviceFunc(c.renewLoop))
	sup.Add(&publisher{c: c})
	supCtx, cancel := context.WithCancel(context.Background())
	c.sup = sup
	c.supStop = cancel
	c.supErr = sup.ServeBackground(supCtx)

	if err := ch.Open(ctx); err != nil {
		c.teardown()
		return err
	}
	if err := c.openSession(ctx); err != nil {
		c.teardown()
		return err
	}
	return nil
}

func (c *Client) teardown() {
	if c.supStop != nil {
		c.supStop()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.channel = nil
	c.conn = nil
}

// Close closes the session, the subscriptions on the server, the secure
// channel and the transport, in that order.
func (c *Client) Close(ctx context.Context) error {
	if c.channel == nil {
		return ErrNotConnected
	}
	c.sessionMut.Lock()
	active := c.session != nil && c.session.active
	c.sessionMut.Unlock()
	if active {
		req := &ua.CloseSessionRequest{DeleteSubscriptions: true}
		if _, err := c.request(ctx, req); err != nil {
			c.log.Debug("CloseSession failed", slogutil.Error(err))
		}
	}
	err := c.channel.Close(ctx)
	c.teardown()
	return err
}

// Namespaces returns the server's namespace array as read at activation.
func (c *Client) Namespaces() []string {
	c.sessionMut.Lock()
	defer c.sessionMut.Unlock()
	return c.namespaces
}

// request attaches the session authentication token and dispatches the
// request over the secure channel.
func (c *Client) request(ctx context.Context, req ua.Request) (ua.Response, error) {
	ch := c.channel
	if ch == nil {
		return nil, ErrNotConnected
	}
	c.sessionMut.Lock()
	if c.session != nil {
		req.Header().AuthenticationToken = c.session.authenticationToken
	}
	c.sessionMut.Unlock()
	return ch.SendRequest(ctx, req)
}

// requestWithTimeout is request with an explicit per-call deadline.
func (c *Client) requestWithTimeout(ctx context.Context, req ua.Request, timeout time.Duration) (ua.Response, error) {
	ch := c.channel
	if ch == nil {
		return nil, ErrNotConnected
	}
	c.sessionMut.Lock()
	if c.session != nil {
		req.Header().AuthenticationToken = c.session.authenticationToken
	}
	c.sessionMut.Unlock()
	return ch.SendRequestWithTimeout(ctx, req, timeout)
}

// renewLoop renews the channel token when it passes 75% of its lifetime.
func (c *Client) renewLoop(ctx context.Context) error {
	ticker := time.NewTicker(renewalCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.channel != nil && c.channel.RenewalDue() {
				renewCtx, cancel := context.WithTimeout(ctx, c.channelCfg.RequestTimeout)
				err := c.channel.Renew(renewCtx)
				cancel()
				if err != nil {
					c.log.Warn("Token renewal failed", slogutil.Error(err))
				}
			}
		}
	}
}

func (c *Client) openSession(ctx context.Context) error {
	clientNonce := rand.Bytes(sessionNonceLength)
	policy, err := uapolicy.Lookup(c.channelCfg.SecurityPolicyURI)
	if err != nil {
		return err
	}

	createReq := &ua.CreateSessionRequest{
		ClientDescription: ua.ApplicationDescription{
			ApplicationURI:  "urn:edgefield:opcua:client",
			ProductURI:      "https://github.com/edgefield/opcua",
			ApplicationName: ua.LocalizedText{Text: defaultApplicationName},
			ApplicationType: ua.ApplicationTypeClient,
		},
		EndpointURL:             c.endpoint,
		SessionName:             c.sessionName,
		ClientNonce:             clientNonce,
		ClientCertificate:       c.channelCfg.Certificate,
		RequestedSessionTimeout: float64(c.sessionTimeout / time.Millisecond),
		MaxResponseMessageSize:  uacp.DefaultMaxMessageSize,
	}
	resp, err := c.request(ctx, createReq)
	if err != nil {
		return err
	}
	createResp, ok := resp.(*ua.CreateSessionResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want CreateSessionResponse", resp)
	}

	if !policy.IsNone() {
		// The server proves possession of its key by signing our
		// certificate and nonce.
		serverKey, err := uapolicy.PublicKeyFromCertificate(createResp.ServerCertificate)
		if err != nil {
			return err
		}
		signed := append(append([]byte(nil), c.channelCfg.Certificate...), clientNonce...)
		if err := policy.VerifySession(serverKey, signed, createResp.ServerSignature.Signature); err != nil {
			return fmt.Errorf("client: server signature: %w", err)
		}
		if len(c.channelCfg.RemoteCertificate) > 0 &&
			!bytes.Equal(c.channelCfg.RemoteCertificate, createResp.ServerCertificate) {
			return ua.StatusBadCertificateInvalid
		}
	}

	sess := &session{
		id:                  createResp.SessionID,
		authenticationToken: createResp.AuthenticationToken,
		timeout:             time.Duration(createResp.RevisedSessionTimeout) * time.Millisecond,
		serverNonce:         createResp.ServerNonce,
		serverCertificate:   createResp.ServerCertificate,
	}
	c.sessionMut.Lock()
	c.session = sess
	c.sessionMut.Unlock()

	if err := c.activateSession(ctx, policy, createResp); err != nil {
		c.sessionMut.Lock()
		c.session = nil
		c.sessionMut.Unlock()
		return err
	}

	if err := c.readNamespaces(ctx); err != nil {
		c.log.Debug("Namespace array read failed", slogutil.Error(err))
	}
	return nil
}

func (c *Client) activateSession(ctx context.Context, policy *uapolicy.Policy, createResp *ua.CreateSessionResponse) error {
	serverNonce := createResp.ServerNonce

	var clientSig ua.SignatureData
	if !policy.IsNone() {
		data := append(append([]byte(nil), createResp.ServerCertificate...), serverNonce...)
		sig, alg, err := policy.SignSession(c.channelCfg.PrivateKey, data)
		if err != nil {
			return err
		}
		clientSig = ua.SignatureData{Algorithm: alg, Signature: sig}
	}

	tokenPolicies := userTokenPolicies(createResp.ServerEndpoints, c.endpoint, c.channelCfg.SecurityPolicyURI)
	identityToken, tokenSig, err := c.encodeIdentity(tokenPolicies, serverNonce, createResp.ServerCertificate)
	if err != nil {
		return err
	}

	req := &ua.ActivateSessionRequest{
		ClientSignature:    clientSig,
		LocaleIDs:          []string{"en"},
		UserIdentityToken:  identityToken,
		UserTokenSignature: tokenSig,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return err
	}
	actResp, ok := resp.(*ua.ActivateSessionResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want ActivateSessionResponse", resp)
	}

	c.sessionMut.Lock()
	c.session.active = true
	c.session.serverNonce = actResp.ServerNonce
	sessionID := c.session.id
	c.sessionMut.Unlock()
	c.log.Debug("Session activated", slog.Any("sessionID", sessionID))
	return nil
}

// userTokenPolicies extracts the token policies of the endpoint matching our
// URL and security settings, falling back to all advertised policies.
func userTokenPolicies(endpoints []ua.EndpointDescription, url, policyURI string) []ua.UserTokenPolicy {
	var fallback []ua.UserTokenPolicy
	for _, e := range endpoints {
		fallback = append(fallback, e.UserIdentityTokens...)
		if e.EndpointURL == url && e.SecurityPolicyURI == policyURI {
			return e.UserIdentityTokens
		}
	}
	return fallback
}

func findTokenPolicy(policies []ua.UserTokenPolicy, t ua.UserTokenType) (ua.UserTokenPolicy, bool) {
	for _, p := range policies {
		if p.TokenType == t {
			return p, true
		}
	}
	return ua.UserTokenPolicy{}, false
}

// encodeIdentity builds the user identity token extension object and, for
// X509 identities, the proof-of-possession signature.
func (c *Client) encodeIdentity(policies []ua.UserTokenPolicy, serverNonce, serverCert []byte) (ua.ExtensionObject, ua.SignatureData, error) {
	switch id := c.identity.(type) {
	case AnonymousIdentity:
		pol, ok := findTokenPolicy(policies, ua.UserTokenTypeAnonymous)
		if !ok {
			pol = ua.UserTokenPolicy{PolicyID: "anonymous"}
		}
		tok := &ua.AnonymousIdentityToken{PolicyID: pol.PolicyID}
		return tok.ExtensionObject(), ua.SignatureData{}, nil

	case UserNameIdentity:
		pol, ok := findTokenPolicy(policies, ua.UserTokenTypeUserName)
		if !ok {
			pol = ua.UserTokenPolicy{PolicyID: "username"}
		}
		secPolicyURI := pol.SecurityPolicyURI
		if secPolicyURI == "" {
			secPolicyURI = c.channelCfg.SecurityPolicyURI
		}
		if secPolicyURI == "" {
			secPolicyURI = uapolicy.PolicyURINone
		}
		secPolicy, err := uapolicy.Lookup(secPolicyURI)
		if err != nil {
			return ua.ExtensionObject{}, ua.SignatureData{}, err
		}
		tok := &ua.UserNameIdentityToken{
			PolicyID: pol.PolicyID,
			UserName: id.UserName,
		}
		if secPolicy.IsNone() {
			tok.Password = []byte(id.Password)
		} else {
			serverKey, err := uapolicy.PublicKeyFromCertificate(serverCert)
			if err != nil {
				return ua.ExtensionObject{}, ua.SignatureData{}, err
			}
			ct, alg, err := secPolicy.EncryptSecret(serverKey, []byte(id.Password), serverNonce)
			if err != nil {
				return ua.ExtensionObject{}, ua.SignatureData{}, err
			}
			tok.Password = ct
			tok.EncryptionAlgorithm = alg
		}
		return tok.ExtensionObject(), ua.SignatureData{}, nil

	case X509Identity:
		pol, ok := findTokenPolicy(policies, ua.UserTokenTypeCertificate)
		if !ok {
			pol = ua.UserTokenPolicy{PolicyID: "certificate"}
		}
		secPolicyURI := pol.SecurityPolicyURI
		if secPolicyURI == "" {
			secPolicyURI = c.channelCfg.SecurityPolicyURI
		}
		if secPolicyURI == "" {
			secPolicyURI = uapolicy.PolicyURINone
		}
		secPolicy, err := uapolicy.Lookup(secPolicyURI)
		if err != nil {
			return ua.ExtensionObject{}, ua.SignatureData{}, err
		}
		tok := &ua.X509IdentityToken{
			PolicyID:        pol.PolicyID,
			CertificateData: id.Certificate,
		}
		var tokenSig ua.SignatureData
		if !secPolicy.IsNone() {
			data := append(append([]byte(nil), serverCert...), serverNonce...)
			sig, alg, err := secPolicy.SignSession(id.Key, data)
			if err != nil {
				return ua.ExtensionObject{}, ua.SignatureData{}, err
			}
			tokenSig = ua.SignatureData{Algorithm: alg, Signature: sig}
		}
		return tok.ExtensionObject(), tokenSig, nil

	default:
		return ua.ExtensionObject{}, ua.SignatureData{}, fmt.Errorf("client: unsupported identity %T", c.identity)
	}
}

func (c *Client) readNamespaces(ctx context.Context) error {
	values, err := c.Read(ctx, []ua.ReadValueID{
		{NodeID: ua.VarServerNamespaceArray, AttributeID: ua.AttributeIDValue},
	})
	if err != nil {
		return err
	}
	if len(values) == 1 && values[0].HasValue {
		if ss, ok := values[0].Value.Value.([]string); ok {
			c.sessionMut.Lock()
			c.namespaces = ss
			c.sessionMut.Unlock()
		}
	}
	return nil
}

// nextClientHandle allocates a session-unique monitored item handle.
func (c *Client) nextClientHandle() uint32 {
	c.handleMut.Lock()
	defer c.handleMut.Unlock()
	c.nextHandle++
	return c.nextHandle
}

// serviceFunc adapts a plain function to a suture service.
type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Serve(ctx context.Context) error { return f(ctx) }
