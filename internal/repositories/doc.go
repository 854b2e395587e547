// Package repositories implements durable storage for the session credential.
//
// Key Implementations:
//   - [SQLiteCredentialRepository] : the local profile database (default), schema managed by shared.RunMigrations
//   - [RedisCredentialRepository] : a redis server, for profiles shared between machines
//   - [MemoryCredentialRepository] : process memory, used when durability is unavailable or not wanted
//
// Backends return errors wrapping shared.ErrStorageUnavailable. The session package wraps a backend in a
// store that never raises and falls back to memory when a backend fails.
package repositories
