// Package repositories implements persistence for the PathFinder client and its development server.
//
// Key Implementations:
//   - [Store] : the client's persisted key-value storage, holding accessToken, user and jobResult
//   - [SQLiteStore] : [Store] over the kv_store table (default driver)
//   - [RedisStore] : [Store] on a Redis server, namespaced by key prefix
//   - [AccountRepository] : development server accounts and bearer tokens
//
// [Store.Update] applies a batch of writes and deletes atomically, which is how logout clears the session and the
// cached analysis result together.
//
// Sequence numbers provide stable ordering for accounts independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
