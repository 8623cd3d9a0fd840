// Package tokenstore persists the access/refresh token pair used by the
// authenticated client.
//
// Every Store replaces the whole pair at once, so a reader never sees a new
// access token next to a stale refresh token. Three backends are provided:
//
//   - MemoryStore keeps the pair in process memory.
//   - RedisStore shares the pair across processes through Redis.
//   - CookieStore reads and writes the pair as HTTP cookies for
//     server-rendered views.
package tokenstore
