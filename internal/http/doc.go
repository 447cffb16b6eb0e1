// Package http exposes the room access API over chi.
//
// Endpoints:
//   - POST /sessions: {"email","password"} in, {"token","expires_at"} out. The
//     token is also set as the `session_token` cookie and the
//     `X-Session-Token` header.
//   - POST /sessions/refresh: rotates the presented session token.
//   - DELETE /sessions/current: revokes the presented session token. 204.
//   - POST /tokens: exchanges a valid session for a short lived signed access
//     token {"access_token","token_type","expires_at"}.
//   - GET /rooms/{uuid}/access: the access decision for the caller. Credentials
//     are optional; anonymous callers receive a denied decision. Every decision
//     is a 200. Malformed identifiers are 400 and store failures 503.
//   - POST /rooms, GET /rooms/{uuid}, PUT /rooms/{uuid}/status: ad-hoc room
//     management for authenticated callers.
//   - GET /healthz: "OK" when the store answers a ping.
//
// Credentials are read from `Authorization: Bearer <token>` first and the
// `session_token` cookie second. Either an opaque session token or a signed
// access token is accepted wherever a credential is read.
package http
