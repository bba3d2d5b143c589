package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	// refreshCookieName matches the HTTP-only cookie the server sets on
	// login and rotates on refresh.
	refreshCookieName = "refresh_token"
)

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(8), 8),
	}
}

// SetRequestRate adjusts client-side request pacing. Zero or negative
// disables pacing.
func (c *Client) SetRequestRate(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 8)
}

func (c *Client) ListItems(ctx context.Context, q ListQuery) (PostPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	vals := make(url.Values)
	vals.Set("page", strconv.Itoa(q.Page))
	vals.Set("limit", strconv.Itoa(q.Limit))
	if q.Query != "" {
		vals.Set("q", q.Query)
	}
	if q.Sort != "" {
		vals.Set("sort", q.Sort)
	}
	if q.Scope != "" {
		vals.Set("scope", q.Scope)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/items?"+vals.Encode(), q.AccessToken, nil)
	if err != nil {
		return PostPage{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return PostPage{}, fmt.Errorf("list items request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PostPage{}, fmt.Errorf("list items failed: %w", readAPIError(resp))
	}

	var page PostPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return PostPage{}, fmt.Errorf("decode items response: %w", err)
	}
	return page, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (Post, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/items/"+url.PathEscape(id), "", nil)
	if err != nil {
		return Post{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return Post{}, fmt.Errorf("get item request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Post{}, fmt.Errorf("get item failed: %w", readAPIError(resp))
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return Post{}, fmt.Errorf("decode item response: %w", err)
	}
	return post, nil
}

// ToggleLike flips the caller's like on a post and returns the updated post.
func (c *Client) ToggleLike(ctx context.Context, token, id string) (Post, error) {
	req, err := c.newRequest(ctx, http.MethodPatch, "/items/"+url.PathEscape(id)+"/like", token, nil)
	if err != nil {
		return Post{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return Post{}, fmt.Errorf("toggle like request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Post{}, fmt.Errorf("toggle like failed: %w", readAPIError(resp))
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return Post{}, fmt.Errorf("decode like response: %w", err)
	}
	return post, nil
}

func (c *Client) ListComments(ctx context.Context, id string) ([]Comment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/items/"+url.PathEscape(id)+"/comments", "", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("list comments request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list comments failed: %w", readAPIError(resp))
	}

	var comments []Comment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, fmt.Errorf("decode comments response: %w", err)
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, token, id, content string) (Comment, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return Comment{}, fmt.Errorf("encode comment payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/items/"+url.PathEscape(id)+"/comments", token, bytes.NewReader(payload))
	if err != nil {
		return Comment{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Comment{}, fmt.Errorf("create comment failed: %w", readAPIError(resp))
	}

	var comment Comment
	if err := json.NewDecoder(resp.Body).Decode(&comment); err != nil {
		return Comment{}, fmt.Errorf("decode comment response: %w", err)
	}
	return comment, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode login payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("login failed: %w", readAPIError(resp))
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode login response: %w", err)
	}
	return pair, nil
}

// RefreshToken exchanges the jar's refresh cookie for a fresh access token.
// The server rotates the cookie on success; the jar picks that up
// automatically. A 401 means the durable credential is gone or revoked.
func (c *Client) RefreshToken(ctx context.Context) (TokenPair, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/refresh", "", nil)
	if err != nil {
		return TokenPair{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("refresh failed: %w", readAPIError(resp))
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	return pair, nil
}

func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", "", nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout failed: %w", readAPIError(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) Me(ctx context.Context, token string) (UserSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return UserSummary{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return UserSummary{}, fmt.Errorf("me request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserSummary{}, fmt.Errorf("me failed: %w", readAPIError(resp))
	}

	var user UserSummary
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return UserSummary{}, fmt.Errorf("decode me response: %w", err)
	}
	return user, nil
}

// RefreshCookie reports the refresh credential currently held by the jar,
// so it can be persisted across runs.
func (c *Client) RefreshCookie() (string, bool) {
	if c.http.Jar == nil {
		return "", false
	}
	u, err := url.Parse(c.baseURL + "/auth/refresh")
	if err != nil {
		return "", false
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == refreshCookieName && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

// SeedRefreshCookie installs a refresh credential saved by a previous run.
// The path must match the one the server sets, or rotation would leave the
// stale seed shadowing the fresh cookie in the jar.
func (c *Client) SeedRefreshCookie(value string) {
	if value == "" || c.http.Jar == nil {
		return
	}
	u, err := url.Parse(c.baseURL + "/auth/refresh")
	if err != nil {
		return
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: refreshCookieName, Value: value, Path: "/"}})
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.http.Do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
