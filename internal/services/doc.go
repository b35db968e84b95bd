// Package services implements the [Service] interface against the Spotify Web API.
//
// # Authentication
//
// [SpotifyService] does not hold tokens. Its HTTP client is an [oauth2.Transport] over a
// token source, normally an auth.Session, so every request asks the session for a token and
// the session applies its refresh policy.
//
// # Rate limiting
//
// Requests pass through a token bucket ([rate.Limiter]) sized by api.rate_limit.
//
// # Search cache
//
// When a [TrackCacher] is configured, [SpotifyService.SearchTrack] consults it before searching
// and records every resolved name. Cache failures are logged and never fail a search.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : non-2xx response, as an [*APIError] carrying status and message
//   - [shared.ErrTokenExpired] : 401 response, reauthorization needed
//   - [shared.ErrNoMatch] : search returned no tracks
//   - [shared.ErrMissingArgument] : required input was empty
//
// Token source failures (for example [shared.ErrNotAuthenticated] or a refresh error) are
// returned wrapped and remain matchable with errors.Is.
package services
