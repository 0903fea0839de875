package fractionmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WebSocket endpoint
	DefaultFeedEndpoint = "wss://feed.fraction.market"

	// Heartbeat interval
	HeartbeatInterval = 30 * time.Second

	// Reconnect settings
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
)

// Feed action types
const (
	ActionHeartbeat   = "HEARTBEAT"
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
)

// Feed channel types
const (
	ChannelOrderUpdate      = "asset.order.update"
	ChannelOrderInvalidated = "asset.order.invalidated"
	ChannelAssetAttested    = "asset.attested"
	ChannelAssetMinted      = "asset.minted"
)

// SubscribeMessage represents a subscription message for an asset channel
type SubscribeMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	AssetID string `json:"assetId"`
}

// HeartbeatMessage represents a heartbeat message
type HeartbeatMessage struct {
	Action string `json:"action"`
}

// OrderUpdateEvent is an order change pushed over the feed. A received
// Invalidated=true means the order must drop out of selection immediately;
// the next GetAsset would reflect it anyway, but the feed is faster.
type OrderUpdateEvent struct {
	AssetID              string `json:"assetId"`
	OrderID              string `json:"orderId"`
	Seller               string `json:"seller"`
	PricePerPercentUSD   string `json:"pricePerPercentUsd"`
	PricePerPercentToken string `json:"pricePerPercentToken"`
	UnitsForSale         string `json:"unitsForSale"`
	Currency             string `json:"currency"`
	ChainID              int    `json:"chainId"`
	Invalidated          bool   `json:"invalidated"`
	MsgType              string `json:"msgType"`
}

// AttestationEvent is an attestation confirmation pushed over the feed
type AttestationEvent struct {
	AssetID   string `json:"assetId"`
	ID        string `json:"attestationId"`
	Attester  string `json:"attester"`
	ClaimHash string `json:"claimHash"`
	PriorID   string `json:"priorId"`
	TxHash    string `json:"txHash"`
	MsgType   string `json:"msgType"`
}

// FeedEventHandler is a callback function for handling feed events
type FeedEventHandler func(messageType int, data []byte)

// FeedErrorHandler is a callback function for handling feed errors
type FeedErrorHandler func(err error)

// FeedConfig holds configuration for the feed client
type FeedConfig struct {
	Endpoint             string
	APIKey               string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	OnMessage            FeedEventHandler
	OnError              FeedErrorHandler
	OnConnect            func()
	OnDisconnect         func()
}

// FeedClient is the live order-update feed for the marketplace
type FeedClient struct {
	config           FeedConfig
	conn             *websocket.Conn
	mu               sync.RWMutex
	isConnected      bool
	subscriptions    map[string]interface{} // Track active subscriptions for reconnection
	subMu            sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	heartbeatTicker  *time.Ticker
	reconnectAttempt int
}

// NewFeedClient creates a new feed client
func NewFeedClient(config FeedConfig) *FeedClient {
	if config.Endpoint == "" {
		config.Endpoint = DefaultFeedEndpoint
	}
	if config.ReconnectInterval == 0 {
		config.ReconnectInterval = DefaultReconnectInterval
	}
	if config.MaxReconnectAttempts == 0 {
		config.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}

	return &FeedClient{
		config:        config,
		subscriptions: make(map[string]interface{}),
	}
}

// Connect establishes the feed connection
func (fc *FeedClient) Connect(ctx context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.isConnected {
		return nil
	}

	fc.ctx, fc.cancel = context.WithCancel(ctx)

	u, err := url.Parse(fc.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse feed endpoint: %w", err)
	}
	q := u.Query()
	q.Set("apikey", fc.config.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(fc.ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to feed: %w", err)
	}

	fc.conn = conn
	fc.isConnected = true
	fc.reconnectAttempt = 0

	fc.startHeartbeat()
	go fc.readLoop()

	if fc.config.OnConnect != nil {
		go fc.config.OnConnect()
	}

	return nil
}

// Disconnect closes the feed connection
func (fc *FeedClient) Disconnect() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.isConnected {
		return nil
	}

	fc.isConnected = false

	if fc.cancel != nil {
		fc.cancel()
	}
	if fc.heartbeatTicker != nil {
		fc.heartbeatTicker.Stop()
	}

	var err error
	if fc.conn != nil {
		err = fc.conn.Close()
		fc.conn = nil
	}

	if fc.config.OnDisconnect != nil {
		go fc.config.OnDisconnect()
	}

	return err
}

// IsConnected returns the current connection status
func (fc *FeedClient) IsConnected() bool {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.isConnected
}

// Subscribe subscribes to a channel for one asset
func (fc *FeedClient) Subscribe(channel, assetID string) error {
	msg := SubscribeMessage{
		Action:  ActionSubscribe,
		Channel: channel,
		AssetID: assetID,
	}

	if err := fc.sendMessage(msg); err != nil {
		return err
	}

	// Track subscription for reconnection
	fc.subMu.Lock()
	fc.subscriptions[subscriptionKey(channel, assetID)] = msg
	fc.subMu.Unlock()

	return nil
}

// Unsubscribe unsubscribes from a channel for one asset
func (fc *FeedClient) Unsubscribe(channel, assetID string) error {
	msg := SubscribeMessage{
		Action:  ActionUnsubscribe,
		Channel: channel,
		AssetID: assetID,
	}

	if err := fc.sendMessage(msg); err != nil {
		return err
	}

	fc.subMu.Lock()
	delete(fc.subscriptions, subscriptionKey(channel, assetID))
	fc.subMu.Unlock()

	return nil
}

// SubscribeOrderUpdates subscribes to sell-order changes for an asset
func (fc *FeedClient) SubscribeOrderUpdates(assetID string) error {
	return fc.Subscribe(ChannelOrderUpdate, assetID)
}

// UnsubscribeOrderUpdates unsubscribes from sell-order changes for an asset
func (fc *FeedClient) UnsubscribeOrderUpdates(assetID string) error {
	return fc.Unsubscribe(ChannelOrderUpdate, assetID)
}

// SubscribeAttestations subscribes to attestation confirmations for an asset
func (fc *FeedClient) SubscribeAttestations(assetID string) error {
	return fc.Subscribe(ChannelAssetAttested, assetID)
}

// UnsubscribeAttestations unsubscribes from attestation confirmations for an asset
func (fc *FeedClient) UnsubscribeAttestations(assetID string) error {
	return fc.Unsubscribe(ChannelAssetAttested, assetID)
}

// GetSubscriptions returns a list of current subscriptions
func (fc *FeedClient) GetSubscriptions() []string {
	fc.subMu.RLock()
	defer fc.subMu.RUnlock()

	subs := make([]string, 0, len(fc.subscriptions))
	for key := range fc.subscriptions {
		subs = append(subs, key)
	}
	return subs
}

func subscriptionKey(channel, assetID string) string {
	return fmt.Sprintf("%s:%s", channel, assetID)
}

// sendMessage sends a message over the feed connection
func (fc *FeedClient) sendMessage(msg interface{}) error {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	if !fc.isConnected || fc.conn == nil {
		return fmt.Errorf("feed not connected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := fc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// startHeartbeat starts the heartbeat ticker
func (fc *FeedClient) startHeartbeat() {
	fc.heartbeatTicker = time.NewTicker(HeartbeatInterval)

	go func() {
		for {
			select {
			case <-fc.heartbeatTicker.C:
				if err := fc.sendMessage(HeartbeatMessage{Action: ActionHeartbeat}); err != nil {
					if fc.config.OnError != nil {
						fc.config.OnError(fmt.Errorf("heartbeat failed: %w", err))
					}
				}
			case <-fc.ctx.Done():
				return
			}
		}
	}()
}

// readLoop continuously reads messages from the feed
func (fc *FeedClient) readLoop() {
	for {
		select {
		case <-fc.ctx.Done():
			return
		default:
			fc.mu.RLock()
			conn := fc.conn
			fc.mu.RUnlock()

			if conn == nil {
				return
			}

			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					fc.handleDisconnect()
					return
				}
				if fc.config.OnError != nil {
					fc.config.OnError(fmt.Errorf("read error: %w", err))
				}
				fc.handleDisconnect()
				return
			}

			if fc.config.OnMessage != nil {
				fc.config.OnMessage(messageType, data)
			}
		}
	}
}

// handleDisconnect handles disconnection and attempts reconnection
func (fc *FeedClient) handleDisconnect() {
	fc.mu.Lock()
	wasConnected := fc.isConnected
	fc.isConnected = false
	if fc.heartbeatTicker != nil {
		fc.heartbeatTicker.Stop()
	}
	fc.mu.Unlock()

	if wasConnected && fc.config.OnDisconnect != nil {
		fc.config.OnDisconnect()
	}

	go fc.attemptReconnect()
}

// attemptReconnect attempts to reconnect to the feed
func (fc *FeedClient) attemptReconnect() {
	for fc.reconnectAttempt < fc.config.MaxReconnectAttempts {
		fc.reconnectAttempt++

		select {
		case <-fc.ctx.Done():
			return
		case <-time.After(fc.config.ReconnectInterval):
		}

		if err := fc.Connect(context.Background()); err != nil {
			if fc.config.OnError != nil {
				fc.config.OnError(fmt.Errorf("reconnect attempt %d failed: %w", fc.reconnectAttempt, err))
			}
			continue
		}

		fc.resubscribe()
		return
	}

	if fc.config.OnError != nil {
		fc.config.OnError(fmt.Errorf("max reconnect attempts (%d) reached", fc.config.MaxReconnectAttempts))
	}
}

// resubscribe resubscribes to all tracked subscriptions
func (fc *FeedClient) resubscribe() {
	fc.subMu.RLock()
	defer fc.subMu.RUnlock()

	for _, msg := range fc.subscriptions {
		if err := fc.sendMessage(msg); err != nil {
			if fc.config.OnError != nil {
				fc.config.OnError(fmt.Errorf("resubscribe failed: %w", err))
			}
		}
	}
}
