package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/pkg/utils"

	"go.uber.org/zap"
)

// Order is a payment order as issued by the provider. Amount is in minor units.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type razorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	log       *zap.Logger
}

func NewRazorpayGateway(config utils.PaymentConfig, log *zap.Logger) PaymentGateway {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &razorpayGateway{
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		log:       log.With(zap.String("gateway", "razorpay")),
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

func (g *razorpayGateway) KeyID() string {
	return g.keyID
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("razorpay credentials not configured: %w", entity.ErrGatewayUnavailable)
	}

	payload, err := json.Marshal(createOrderRequest{
		Amount:         utils.ToCents(amount),
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("Order request failed", zap.Error(err), zap.String("receipt", receipt))
		return nil, fmt.Errorf("create order %s: %w: %w", receipt, entity.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		g.log.Error("Order response read failed",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", receipt),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create order %s: read response: %w: %w", receipt, entity.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Error("Order request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", receipt),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("create order %s: provider returned %d: %w", receipt, resp.StatusCode, entity.ErrGatewayUnavailable)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil || order.ID == "" {
		g.log.Error("Order response unreadable", zap.Error(err), zap.String("receipt", receipt))
		return nil, fmt.Errorf("create order %s: unreadable response: %w", receipt, entity.ErrGatewayUnavailable)
	}

	g.log.Info("Payment order created",
		zap.String("order_id", order.ID),
		zap.String("receipt", receipt),
		zap.Int64("amount", order.Amount),
	)

	return &order, nil
}

// VerifySignature fails closed: without a secret nothing verifies.
func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.keySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	expected := Sign(g.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
