// Package ledgerclient talks to the external ledger network's RPC surface:
// tick info, account balances, and wager/claim broadcast.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/samsuzzoha404/Tick-Deriv/internal/models"
)

// Client provides access to the ledger RPC API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// TxResult is the outcome of a broadcast transaction.
type TxResult struct {
	TxID    string `json:"tx_id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NewClient creates a ledger client for the given RPC base URL.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

type tickInfoResponse struct {
	TickInfo struct {
		Tick int64 `json:"tick"`
	} `json:"tickInfo"`
	Tick int64 `json:"tick"`
}

// GetCurrentTick fetches the network's current tick. Both response shapes
// the RPC nodes emit are accepted.
func (c *Client) GetCurrentTick(ctx context.Context) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/v1/tick-info", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tick info: %w", err)
	}
	defer resp.Body.Close()

	var data tickInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode tick info: %w", err)
	}
	if data.TickInfo.Tick > 0 {
		return data.TickInfo.Tick, nil
	}
	if data.Tick > 0 {
		return data.Tick, nil
	}
	return 0, fmt.Errorf("tick info response carried no tick")
}

type balanceResponse struct {
	Balance *float64 `json:"balance"`
	Entity  struct {
		Balance *float64 `json:"balance"`
	} `json:"entity"`
}

// GetBalance fetches the spendable balance for an address.
func (c *Client) GetBalance(ctx context.Context, address string) (float64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/v1/balances/"+address, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	defer resp.Body.Close()

	var data balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode balance: %w", err)
	}
	if data.Balance != nil {
		return *data.Balance, nil
	}
	if data.Entity.Balance != nil {
		return *data.Entity.Balance, nil
	}
	return 0, nil
}

// Contract input types for broadcast transactions.
const (
	inputTypeBet   = 1
	inputTypeClaim = 2
)

type broadcastRequest struct {
	TxID      string  `json:"tx_id"`
	Address   string  `json:"address"`
	InputType int     `json:"input_type"`
	InputData []byte  `json:"input_data"` // base64 over the wire
	Amount    float64 `json:"amount"`
}

// BroadcastWager submits a wager transaction for the given round.
func (c *Client) BroadcastWager(ctx context.Context, address string, direction models.Direction, amount float64, roundID int64) (*TxResult, error) {
	return c.broadcast(ctx, broadcastRequest{
		TxID:      uuid.New().String(),
		Address:   address,
		InputType: inputTypeBet,
		InputData: encodeWagerInput(direction, roundID),
		Amount:    amount,
	})
}

// BroadcastClaim submits a claim transaction for the given round.
func (c *Client) BroadcastClaim(ctx context.Context, address string, roundID int64) (*TxResult, error) {
	return c.broadcast(ctx, broadcastRequest{
		TxID:      uuid.New().String(),
		Address:   address,
		InputType: inputTypeClaim,
		InputData: encodeClaimInput(roundID),
	})
}

func (c *Client) broadcast(ctx context.Context, req broadcastRequest) (*TxResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal broadcast request: %w", err)
	}
	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/v1/broadcast", body)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	defer resp.Body.Close()

	var result TxResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode broadcast response: %w", err)
	}
	if result.TxID == "" {
		result.TxID = req.TxID
	}
	return &result, nil
}

// encodeWagerInput packs the contract payload: direction byte followed by
// the round id as a little-endian uint32.
func encodeWagerInput(direction models.Direction, roundID int64) []byte {
	buf := make([]byte, 5)
	if direction == models.DirectionUp {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint32(buf[1:], uint32(roundID))
	return buf
}

// encodeClaimInput packs the round id as a little-endian uint32.
func encodeClaimInput(roundID int64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(roundID))
	return buf
}

// doRequest performs an HTTP request with linear-backoff retry on transport
// errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body []byte) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("request rejected: %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
