// Package http exposes the focus ledger as a JSON API mounted on a chi router.
//
// The router exposes the following endpoints:
//   - GET /: health message.
//   - POST /auth/exchange: trades a one-time login code for a bearer token. Body:
//     {"code"}. Response: {"token","expires_at","user"} with the token also surfaced
//     via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /auth/logout: revokes the caller's token. Returns 204 No Content.
//   - GET /api/me: the caller's profile, streak and presence.
//   - POST /api/session: records a completed session. Body: {"type","duration"}
//     where duration is seconds as a number or numeric string.
//   - GET /api/dashboard/day?date=, /week?date=, /month?year= (alias /year): rollups
//     over the daily aggregates exchanging the `rollupResponse` payload.
//   - GET /api/streak and POST /api/presence/{start,heartbeat,stop}.
//   - POST /api/user/browse-ping: counts a visit. Body: {"domain","visited_at"}.
//   - GET /api/admin/{stats,users,users/{id},leaderboard,timeline,session-analytics}
//     and POST /api/admin/users/{id}/streak/rebuild: administrator only.
//
// Every request carries a request scoped slog logger and a deadline. Errors are
// answered as {"error_code","message","errors"}; see responder.handleServiceError
// for the status mapping.
package http
