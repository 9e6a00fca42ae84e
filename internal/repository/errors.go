// Package repository persists users and token records. Sentinel errors let
// handlers map storage outcomes to HTTP statuses without inspecting driver
// error strings.
package repository

import "errors"

// ErrEmailExists is returned when a signup collides with an existing
// account. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no usable row. For token
// lookups this deliberately covers unknown, expired and revoked alike so
// that no distinction can leak to the client.
var ErrNotFound = errors.New("not found")
