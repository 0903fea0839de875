package fractionmarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fractionlabs/fraction-market-sdk-go/chain"
	"github.com/fractionlabs/fraction-market-sdk-go/fixedpoint"
)

// APIClient handles HTTP requests to the marketplace API
type APIClient struct {
	host    string
	apiKey  string
	chainID ChainID
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(host, apiKey string, chainID ChainID) *APIClient {
	return &APIClient{
		host:    host,
		apiKey:  apiKey,
		chainID: chainID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request
func (c *APIClient) doRequest(method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := fmt.Sprintf("%s%s", c.host, endpoint)
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// decodeJSONResponse reads the response body, checks HTTP status, and decodes JSON
func (c *APIClient) decodeJSONResponse(resp *http.Response, result interface{}) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(bodyBytes)
		if bodyStr == "" {
			bodyStr = resp.Status
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodyStr)
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		bodyStr := string(bodyBytes)
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		return fmt.Errorf("failed to decode JSON response: %w (body: %s)", err, bodyStr)
	}

	return nil
}

// apiSellOrder is the wire shape of a sell order. Prices arrive as decimal
// strings and are converted into ScaledValues exactly once, here at the
// boundary.
type apiSellOrder struct {
	ID                   string          `json:"order_id"`
	AssetID              string          `json:"asset_id"`
	Seller               string          `json:"seller"`
	PricePerPercentUSD   decimal.Decimal `json:"price_per_percent_usd"`
	PricePerPercentToken decimal.Decimal `json:"price_per_percent_token"`
	UnitsForSale         string          `json:"units_for_sale"`
	Currency             string          `json:"currency"`
	ChainID              int             `json:"chain_id"`
	Invalidated          bool            `json:"invalidated"`
}

type apiAsset struct {
	ID          string         `json:"asset_id"`
	TokenID     string         `json:"token_id"`
	Collection  string         `json:"collection"`
	TotalSupply string         `json:"total_supply"`
	Orders      []apiSellOrder `json:"orders"`
}

type getAssetResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result struct {
		Data apiAsset `json:"data"`
	} `json:"result"`
}

func (a *apiAsset) toModel() (*Asset, error) {
	totalSupply, ok := new(big.Int).SetString(a.TotalSupply, 10)
	if !ok {
		return nil, &MarketAPIError{Message: fmt.Sprintf("invalid total_supply: %s", a.TotalSupply)}
	}

	asset := &Asset{
		ID:          a.ID,
		TokenID:     a.TokenID,
		Collection:  a.Collection,
		TotalSupply: totalSupply,
		Orders:      make([]SellOrder, 0, len(a.Orders)),
	}

	for _, o := range a.Orders {
		units, ok := new(big.Int).SetString(o.UnitsForSale, 10)
		if !ok {
			return nil, &MarketAPIError{Message: fmt.Sprintf("invalid units_for_sale: %s", o.UnitsForSale)}
		}
		asset.Orders = append(asset.Orders, SellOrder{
			ID:                   o.ID,
			AssetID:              o.AssetID,
			Seller:               o.Seller,
			PricePerPercentUSD:   fixedpoint.FromDecimal(o.PricePerPercentUSD),
			PricePerPercentToken: fixedpoint.FromDecimal(o.PricePerPercentToken),
			UnitsForSale:         units,
			Currency:             Currency(o.Currency),
			ChainScope:           ChainID(o.ChainID),
			Invalidated:          o.Invalidated,
		})
	}

	return asset, nil
}

// GetAsset fetches an asset and its open sell orders by id
func (c *APIClient) GetAsset(assetID string) (*Asset, error) {
	endpoint := fmt.Sprintf("/asset/%s?chain_id=%d", assetID, c.chainID)
	resp, err := c.doRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result getAssetResponse
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}

	if result.Code != 0 {
		return nil, &MarketAPIError{Message: result.Msg}
	}

	return result.Result.Data.toModel()
}

// RegisterOrder registers a signed sale order with the marketplace
func (c *APIClient) RegisterOrder(signed *chain.SignedSaleOrder) (string, error) {
	orderReq := map[string]interface{}{
		"salt":           signed.Order.Salt,
		"maker":          signed.Order.Maker,
		"collection":     signed.Order.Collection,
		"token_id":       signed.Order.TokenID,
		"units_for_sale": signed.Order.UnitsForSale,
		"price_per_unit": signed.Order.PricePerUnit,
		"currency":       signed.Order.Currency,
		"expiration":     signed.Order.Expiration,
		"nonce":          signed.Order.Nonce,
		"signature":      signed.Signature,
		"chain_id":       int(c.chainID),
		"timestamp":      time.Now().Unix(),
	}

	resp, err := c.doRequest("POST", "/order", orderReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Code   int    `json:"code"`
		Msg    string `json:"msg"`
		Result struct {
			OrderID string `json:"order_id"`
		} `json:"result"`
	}
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return "", err
	}

	if result.Code != 0 {
		return "", &MarketAPIError{Message: result.Msg}
	}

	return result.Result.OrderID, nil
}

// GetAttestation fetches an attestation by id. A missing attestation is not
// an error; it returns (nil, nil) so callers can link-or-skip.
func (c *APIClient) GetAttestation(attestationID string) (*Attestation, error) {
	endpoint := fmt.Sprintf("/attestation/%s", attestationID)
	resp, err := c.doRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var result struct {
		Code   int    `json:"code"`
		Msg    string `json:"msg"`
		Result struct {
			Data Attestation `json:"data"`
		} `json:"result"`
	}
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}

	if result.Code != 0 {
		return nil, &MarketAPIError{Message: result.Msg}
	}

	return &result.Result.Data, nil
}

// Upload stores a file durably and returns its content address
func (c *APIClient) Upload(name string, data []byte) (string, error) {
	uploadReq := map[string]interface{}{
		"name": name,
		"data": data, // base64-encoded by encoding/json
	}

	resp, err := c.doRequest("POST", "/storage/upload", uploadReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Code   int    `json:"code"`
		Msg    string `json:"msg"`
		Result struct {
			URI string `json:"uri"`
		} `json:"result"`
	}
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return "", err
	}

	if result.Code != 0 {
		return "", &MarketAPIError{Message: result.Msg}
	}

	return result.Result.URI, nil
}

// Notify sends a notification record. Callers invoke it best-effort only.
func (c *APIClient) Notify(event string, payload map[string]interface{}) error {
	notifyReq := map[string]interface{}{
		"event":   event,
		"payload": payload,
	}

	resp, err := c.doRequest("POST", "/notify", notifyReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return err
	}

	if result.Code != 0 {
		return &MarketAPIError{Message: result.Msg}
	}

	return nil
}
