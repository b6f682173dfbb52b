package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/mckriel/omg-backend/internal/config"
)

const oauthTokenURL = "https://oauth.battle.net/token"

// BlizzardClient talks to the Battle.net profile API. A token is acquired
// once per ingestion run via Authenticate and held by the client instance;
// there is no background refresh.
type BlizzardClient struct {
	clientID     string
	clientSecret string
	region       string
	client       *fasthttp.Client

	tokenMu sync.RWMutex
	token   string
}

func NewBlizzardClient(cfg *config.Config) *BlizzardClient {
	return &BlizzardClient{
		clientID:     cfg.BattleNetClientID,
		clientSecret: cfg.BattleNetClientSecret,
		region:       cfg.Region,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *BlizzardClient) apiHost() string {
	return fmt.Sprintf("https://%s.api.blizzard.com", c.region)
}

func (c *BlizzardClient) namespace() string {
	return "profile-" + c.region
}

// Authenticate performs the client-credentials exchange and stores the
// resulting bearer token on the client.
func (c *BlizzardClient) Authenticate(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(oauthTokenURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.SetBodyString("grant_type=client_credentials")

	if err := c.do(ctx, req, resp); err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("token request failed: status %d", resp.StatusCode())
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(resp.Body(), &tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.tokenMu.Lock()
	c.token = tokenResp.AccessToken
	c.tokenMu.Unlock()
	return nil
}

func (c *BlizzardClient) bearer() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

func (c *BlizzardClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}

func (c *BlizzardClient) GetGuildRoster(ctx context.Context, realm, guild string) (*RosterResponse, error) {
	u := fmt.Sprintf("%s/data/wow/guild/%s/%s/roster?namespace=%s&locale=en_US",
		c.apiHost(), slug(realm), slug(guild), c.namespace())
	return doRequest[RosterResponse](ctx, c, u)
}

func (c *BlizzardClient) GetCharacterProfile(ctx context.Context, realm, name string) (*ProfileResponse, error) {
	return doRequest[ProfileResponse](ctx, c, c.characterURL(realm, name, ""))
}

func (c *BlizzardClient) GetCharacterEquipment(ctx context.Context, realm, name string) (*EquipmentResponse, error) {
	return doRequest[EquipmentResponse](ctx, c, c.characterURL(realm, name, "/equipment"))
}

func (c *BlizzardClient) GetCharacterRaids(ctx context.Context, realm, name string) (*RaidsResponse, error) {
	return doRequest[RaidsResponse](ctx, c, c.characterURL(realm, name, "/encounters/raids"))
}

func (c *BlizzardClient) GetMythicKeystoneProfile(ctx context.Context, realm, name string) (*MythicKeystoneResponse, error) {
	return doRequest[MythicKeystoneResponse](ctx, c, c.characterURL(realm, name, "/mythic-keystone-profile"))
}

func (c *BlizzardClient) GetPvPSummary(ctx context.Context, realm, name string) (*PvPSummaryResponse, error) {
	return doRequest[PvPSummaryResponse](ctx, c, c.characterURL(realm, name, "/pvp-summary"))
}

func (c *BlizzardClient) GetPvPBracket(ctx context.Context, realm, name, bracket string) (*PvPBracketResponse, error) {
	return doRequest[PvPBracketResponse](ctx, c, c.characterURL(realm, name, "/pvp-bracket/"+url.PathEscape(bracket)))
}

func (c *BlizzardClient) GetCharacterMedia(ctx context.Context, realm, name string) (*MediaResponse, error) {
	return doRequest[MediaResponse](ctx, c, c.characterURL(realm, name, "/character-media"))
}

func (c *BlizzardClient) characterURL(realm, name, suffix string) string {
	return fmt.Sprintf("%s/profile/wow/character/%s/%s%s?namespace=%s&locale=en_US",
		c.apiHost(), slug(realm), slug(name), suffix, c.namespace())
}

// slug lowercases and path-escapes a realm or character name the way the
// profile API expects.
func slug(s string) string {
	return url.PathEscape(strings.ToLower(s))
}

func doRequest[T any](ctx context.Context, client *BlizzardClient, u string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+client.bearer())

	if err := client.do(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
