// ABOUTME: REST wrappers for the platform endpoints used by ridectl
// ABOUTME: Auth, profile, orders and wallet calls on top of Client.do

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/markalston/ridectl/internal/models"
)

// HealthResponse represents the /api/health endpoint response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health calls GET /api/health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Login calls POST /api/auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /api/auth/register
func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me calls GET /api/auth/me
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile calls PATCH /api/users/me
func (c *Client) UpdateProfile(ctx context.Context, update *models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPatch, "/api/users/me", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListOrders calls GET /api/orders
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder calls POST /api/orders
func (c *Client) CreateOrder(ctx context.Context, req *models.OrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder calls POST /api/orders/{id}/cancel
func (c *Client) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	return c.orderAction(ctx, id, "cancel")
}

// CompleteOrder calls POST /api/orders/{id}/complete
func (c *Client) CompleteOrder(ctx context.Context, id string) (*models.Order, error) {
	return c.orderAction(ctx, id, "complete")
}

func (c *Client) orderAction(ctx context.Context, id, action string) (*models.Order, error) {
	var order models.Order
	path := "/api/orders/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Wallet calls GET /api/wallet
func (c *Client) Wallet(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := c.do(ctx, http.MethodGet, "/api/wallet", nil, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}
