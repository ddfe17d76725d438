// Package youtubeadapter adapter for youtube live chat
package youtubeadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

const (
	tokenEndpoint = "https://oauth2.googleapis.com/token"
	apiBase       = "https://www.googleapis.com/youtube/v3"

	// La API puede pedir intervalos más cortos, pero por cuota no bajamos
	// de esto.
	minPollInterval = 10 * time.Second
)

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	VideoID      string
}

type MessageHandler func(ctx context.Context, msg domain.ChatMessage) error

type Adapter struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter

	mu          sync.RWMutex
	handler     MessageHandler
	accessToken string
	tokenExpiry time.Time
	liveChatID  string
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		// Una request por intervalo mínimo, con un burst para el arranque
		// (token + discovery + primer poll).
		limiter: rate.NewLimiter(rate.Every(minPollInterval), 3),
	}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

// Start descubre el live chat del video y lo pollea hasta que el contexto
// muera. La primera página solo siembra el pageToken: el backlog previo al
// arranque no se procesa.
func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.ClientID == "" || a.cfg.RefreshToken == "" {
		return errors.New("youtube: client id o refresh token vacíos")
	}
	if a.cfg.VideoID == "" {
		return errors.New("youtube: video id vacío")
	}

	chatID, err := a.resolveLiveChatID(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.liveChatID = chatID
	a.mu.Unlock()

	log.Printf("youtube: conectado al live chat %s", chatID)

	pageToken := ""
	first := true
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		page, err := a.pollMessages(ctx, chatID, pageToken)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("youtube: poll: %v", err)
			select {
			case <-time.After(minPollInterval):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		pageToken = page.NextPageToken

		if first {
			// descartamos el backlog
			first = false
			continue
		}

		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			continue
		}

		for _, item := range page.Items {
			msg := mapItemToDomain(item)
			if msg.Text == "" {
				continue
			}
			if err := handler(ctx, msg); err != nil {
				log.Printf("youtube: error en handler: %v", err)
			}
		}

		wait := time.Duration(page.PollingIntervalMillis) * time.Millisecond
		if wait < minPollInterval {
			wait = minPollInterval
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ── OAuth ──────────────────────────────────────────────────────────────────

func (a *Adapter) token(ctx context.Context) (string, error) {
	a.mu.RLock()
	tok, expiry := a.accessToken, a.tokenExpiry
	a.mu.RUnlock()
	if tok != "" && time.Now().Before(expiry.Add(-time.Minute)) {
		return tok, nil
	}

	form := url.Values{
		"client_id":     {a.cfg.ClientID},
		"client_secret": {a.cfg.ClientSecret},
		"refresh_token": {a.cfg.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("youtube: token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube: token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("youtube: token refresh status %d: %s", resp.StatusCode, raw)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("youtube: decode token: %w", err)
	}

	a.mu.Lock()
	a.accessToken = payload.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	a.mu.Unlock()

	return payload.AccessToken, nil
}

func (a *Adapter) doAuthorized(req *http.Request) ([]byte, error) {
	tok, err := a.token(req.Context())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("youtube: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("youtube: %s status %d: %s", req.URL.Path, resp.StatusCode, raw)
	}
	return raw, nil
}

// ── API ────────────────────────────────────────────────────────────────────

func (a *Adapter) resolveLiveChatID(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/videos?part=liveStreamingDetails&id=%s", apiBase, url.QueryEscape(a.cfg.VideoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("youtube: build request: %w", err)
	}

	raw, err := a.doAuthorized(req)
	if err != nil {
		return "", err
	}

	var payload struct {
		Items []struct {
			LiveStreamingDetails struct {
				ActiveLiveChatID string `json:"activeLiveChatId"`
			} `json:"liveStreamingDetails"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("youtube: decode videos: %w", err)
	}
	if len(payload.Items) == 0 || payload.Items[0].LiveStreamingDetails.ActiveLiveChatID == "" {
		return "", fmt.Errorf("youtube: el video %s no tiene live chat activo", a.cfg.VideoID)
	}
	return payload.Items[0].LiveStreamingDetails.ActiveLiveChatID, nil
}

type chatItem struct {
	ID      string `json:"id"`
	Snippet struct {
		DisplayMessage string `json:"displayMessage"`
	} `json:"snippet"`
	AuthorDetails struct {
		ChannelID       string `json:"channelId"`
		DisplayName     string `json:"displayName"`
		IsChatOwner     bool   `json:"isChatOwner"`
		IsChatModerator bool   `json:"isChatModerator"`
		IsChatSponsor   bool   `json:"isChatSponsor"`
	} `json:"authorDetails"`
}

type chatPage struct {
	NextPageToken         string     `json:"nextPageToken"`
	PollingIntervalMillis int        `json:"pollingIntervalMillis"`
	Items                 []chatItem `json:"items"`
}

func (a *Adapter) pollMessages(ctx context.Context, chatID, pageToken string) (*chatPage, error) {
	endpoint := fmt.Sprintf(
		"%s/liveChat/messages?part=snippet,authorDetails&liveChatId=%s&maxResults=200",
		apiBase, url.QueryEscape(chatID),
	)
	if pageToken != "" {
		endpoint += "&pageToken=" + url.QueryEscape(pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube: build request: %w", err)
	}

	raw, err := a.doAuthorized(req)
	if err != nil {
		return nil, err
	}

	var page chatPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("youtube: decode chat page: %w", err)
	}
	return &page, nil
}

func mapItemToDomain(item chatItem) domain.ChatMessage {
	return domain.ChatMessage{
		ID:          item.ID,
		AuthorID:    item.AuthorDetails.ChannelID,
		AuthorName:  item.AuthorDetails.DisplayName,
		Text:        item.Snippet.DisplayMessage,
		IsOwner:     item.AuthorDetails.IsChatOwner,
		IsModerator: item.AuthorDetails.IsChatModerator,
		IsMember:    item.AuthorDetails.IsChatSponsor,
	}
}
