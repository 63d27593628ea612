package payments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tutorhive/payouts/cache"
)

const paypalTokenCacheKey = "paypal:access_token"

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// paypalTokenProvider lazily fetches and caches the client-credentials
// bearer token PayPal requires before every call. Tokens are cached slightly
// short of their real lifetime so a cached token is never used while expiring.
type paypalTokenProvider struct {
	clientID     string
	clientSecret string
	baseURL      string
	cache        cache.Store
	client       *http.Client
}

func (p *paypalTokenProvider) getAccessToken() (string, error) {
	if token, ok := p.cache.Get(paypalTokenCacheKey); ok {
		return token, nil
	}

	reqBody := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequest("POST", p.baseURL+"/v1/oauth2/token", reqBody)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get paypal access token, status: %s", resp.Status)
	}

	var tokenResp paypalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	ttl := time.Duration(tokenResp.ExpiresIn-600) * time.Second
	if ttl <= 0 {
		ttl = 50 * time.Minute
	}
	p.cache.Set(paypalTokenCacheKey, tokenResp.AccessToken, ttl)

	return tokenResp.AccessToken, nil
}
