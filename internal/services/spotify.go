// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

const (
	SpotifyBaseURL = "https://api.spotify.com/v1"
	DefaultMarket  = "IN"

	// maxTracksPerRequest is the Web API limit for adding items to a playlist.
	maxTracksPerRequest = 100
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ExternalURLs holds the public links of a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// ArtistNames joins the track's artist names.
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Owner        Owner        `json:"owner"`
	Public       bool         `json:"public"`
	SnapshotID   string       `json:"snapshot_id"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// APIError is a non-2xx response from the Web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{shared.ErrAPIRequest, shared.ErrTokenExpired}
	}
	return []error{shared.ErrAPIRequest}
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL   string
	Market    string
	RateLimit float64 // requests per second; zero or less disables limiting
	Timeout   time.Duration
	Cache     TrackCacher
	Logger    *log.Logger
	Transport http.RoundTripper // base transport beneath the bearer-token transport
}

// ContextTokenSource is a token source that can bind a token fetch to a request context, so a
// refresh stuck on the token endpoint is abandoned with the request that needed it.
type ContextTokenSource interface {
	oauth2.TokenSource
	WithContext(ctx context.Context) oauth2.TokenSource
}

// SpotifyService implements the Service interface for Spotify API interactions.
type SpotifyService struct {
	baseURL    string
	market     string
	source     oauth2.TokenSource
	base       http.RoundTripper
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      TrackCacher
	logger     *log.Logger
}

// NewSpotifyService creates a service that authorizes every request with a token from source.
func NewSpotifyService(source oauth2.TokenSource, opts SpotifyOpts) *SpotifyService {
	s := &SpotifyService{
		baseURL: opts.BaseURL,
		market:  opts.Market,
		source:  source,
		base:    opts.Transport,
		cache:   opts.Cache,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Inf, 0),
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: source, Base: opts.Transport},
			Timeout:   opts.Timeout,
		},
	}
	if s.baseURL == "" {
		s.baseURL = SpotifyBaseURL
	}
	if s.market == "" {
		s.market = DefaultMarket
	}
	if s.logger == nil {
		s.logger = shared.DiscardLogger()
	}
	if opts.RateLimit > 0 {
		burst := max(int(opts.RateLimit), 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Market returns the market used for searches.
func (s *SpotifyService) Market() string {
	return s.market
}

// client returns the HTTP client for a request made under ctx.
func (s *SpotifyService) client(ctx context.Context) *http.Client {
	scoped, ok := s.source.(ContextTokenSource)
	if !ok {
		return s.httpClient
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: scoped.WithContext(ctx), Base: s.base},
		Timeout:   s.httpClient.Timeout,
	}
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", req.URL.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errorMessage extracts the message from a Web API error object, falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	if len(body) > 256 {
		return string(body[:256]) + "..."
	}
	return string(body)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserID returns the current user's Spotify ID.
func (s *SpotifyService) UserID(ctx context.Context) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile has no id", shared.ErrAPIRequest)
	}
	return user.ID, nil
}

// SearchTracks returns up to limit tracks matching query in the configured market.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if limit < 1 || limit > 50 {
		return nil, fmt.Errorf("%w: limit must be between 1 and 50", shared.ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("market", s.market)
	params.Set("limit", fmt.Sprint(limit))

	var result searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}

// SearchTrack resolves name to the URI of the first matching track.
func (s *SpotifyService) SearchTrack(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: song name", shared.ErrMissingArgument)
	}

	if s.cache != nil {
		uri, ok, err := s.cache.LookupTrack(name, s.market)
		if err != nil {
			s.logger.Warn("search cache lookup failed", "query", name, "error", err)
		} else if ok {
			s.logger.Debug("search cache hit", "query", name, "uri", uri)
			return uri, nil
		}
	}

	tracks, err := s.SearchTracks(ctx, name, 1)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 || tracks[0].URI == "" {
		return "", fmt.Errorf("%w: %q", shared.ErrNoMatch, name)
	}
	uri := tracks[0].URI

	if s.cache != nil {
		if err := s.cache.CacheTrack(name, s.market, uri); err != nil {
			s.logger.Warn("failed to cache search result", "query", name, "error", err)
		}
	}

	return uri, nil
}

// ResolveTracks resolves every name in order.
func (s *SpotifyService) ResolveTracks(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: song list", shared.ErrMissingArgument)
	}

	uris := make([]string, 0, len(names))
	for _, name := range names {
		uri, err := s.SearchTrack(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", name, err)
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

// CreatePlaylist creates a private playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string) (*SpotifyPlaylist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	body := createPlaylistRequest{Name: name, Description: description, Public: false}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	if playlist.ID == "" {
		return nil, fmt.Errorf("%w: created playlist has no id", shared.ErrAPIRequest)
	}
	return &playlist, nil
}

// AddTracks appends uris to a playlist in batches of 100 and returns the final snapshot ID.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: track uris", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var snapshot string
	for start := 0; start < len(uris); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(uris))

		var result snapshotResponse
		if err := s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris[start:end]}, &result); err != nil {
			if start > 0 {
				return "", fmt.Errorf("added %d of %d tracks: %w", start, len(uris), err)
			}
			return "", err
		}
		snapshot = result.SnapshotID
	}
	return snapshot, nil
}

// IsAuthError reports whether err means the user must authorize again.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrTokenExpired) ||
		errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrNoRefreshToken) ||
		errors.Is(err, shared.ErrRefreshFailed)
}
