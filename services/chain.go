package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
)

// ErrChainDisabled is returned when no gateway is configured.
var ErrChainDisabled = errors.New("on-chain submission disabled")

// ChainSubmitter is the optional capability boundary towards the externally
// deployed contract. The local visit record is the source of truth: a
// failure here never rolls back an already-committed visit.
type ChainSubmitter interface {
	RecordVisitOnChain(ctx context.Context, record *models.VisitRecord) (string, error)
	MintVisitToken(ctx context.Context, record *models.VisitRecord) (string, error)
}

// DisabledChain is the default when chain submission is turned off.
type DisabledChain struct{}

func (DisabledChain) RecordVisitOnChain(ctx context.Context, record *models.VisitRecord) (string, error) {
	return "", ErrChainDisabled
}

func (DisabledChain) MintVisitToken(ctx context.Context, record *models.VisitRecord) (string, error) {
	return "", ErrChainDisabled
}

// HTTPChainGateway submits records to an external signing gateway which owns
// wallet keys and the contract ABI.
type HTTPChainGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPChainGateway builds a gateway client with a bounded timeout.
func NewHTTPChainGateway(baseURL string, timeout time.Duration) *HTTPChainGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPChainGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type chainVisitPayload struct {
	VisitID   string `json:"visit_id"`
	UserID    uint   `json:"user_id"`
	ShrineID  uint   `json:"shrine_id"`
	VisitedAt int64  `json:"visited_at"`
	Method    string `json:"method"`
}

type chainResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error"`
}

func (g *HTTPChainGateway) post(ctx context.Context, path string, record *models.VisitRecord) (string, error) {
	payload := chainVisitPayload{
		VisitID:   record.PublicID,
		UserID:    record.UserID,
		ShrineID:  record.ShrineID,
		VisitedAt: record.VisitedAt.Unix(),
		Method:    record.Method,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chainResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", errors.New(out.Error)
		}
		return "", fmt.Errorf("chain gateway returned status %d", resp.StatusCode)
	}
	return out.TxHash, nil
}

func (g *HTTPChainGateway) RecordVisitOnChain(ctx context.Context, record *models.VisitRecord) (string, error) {
	return g.post(ctx, "/visits", record)
}

func (g *HTTPChainGateway) MintVisitToken(ctx context.Context, record *models.VisitRecord) (string, error) {
	return g.post(ctx, "/visits/mint", record)
}

// NewChainSubmitter picks the gateway when enabled and configured, else the disabled stub.
func NewChainSubmitter(cfg config.AppConfig) ChainSubmitter {
	if cfg.ChainEnabled && cfg.ChainGatewayURL != "" {
		return NewHTTPChainGateway(cfg.ChainGatewayURL, time.Duration(cfg.ChainTimeoutSec)*time.Second)
	}
	return DisabledChain{}
}
