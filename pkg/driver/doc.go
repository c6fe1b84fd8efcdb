// Package driver defines the uniform client contract that every benchkv
// backend implements: lifecycle (Init/Cleanup), the five CRUD verbs, the
// result-code taxonomy, connection configuration, and the driver registry.
//
// The contract is what makes benchmark numbers comparable across backends:
// a client behaves identically — same result codes, same encoding rules,
// same concurrency assumptions — no matter which storage engine sits behind
// it. A Client instance is driven by exactly one worker at a time; only the
// registry and the shared pool handles are safe for concurrent use.
package driver
