// Package auth implements the Spotify authorization code flow and keeps the resulting
// credential usable.
//
// An [Authenticator] either restores the credential from a [FileStore] or runs the browser flow
// through a local callback listener. The resulting [Session] hands out access tokens, refreshing
// them through the [Client] and persisting every refresh before the token is returned.
package auth
