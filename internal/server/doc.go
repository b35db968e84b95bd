// Package server provides the local HTTP listener that completes the OAuth2 authorization code flow.
//
// # Callback Listener
//
// [Listener] binds the host:port of the configured redirect URI, serves exactly one redirect on
// the callback path, and hands the captured code to the caller of [Listener.Await] through a
// channel owned by the listener. The redirect either carries a code (200, success page) or it
// does not (400, failure page, [shared.ErrAuthorizationDenied]). A state mismatch is the same
// denial and also matches [shared.ErrStateMismatch].
//
// Await shuts the server down before returning so a second connection is refused. Requests to
// other paths (a browser asking for /favicon.ico) get 404 and do not consume the single shot.
//
// Binding failures are reported as [*BindError], which matches [shared.ErrBind] with errors.Is.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack.
// [SecureHeaders] and [LogRequests] are applied to the callback route.
package server
