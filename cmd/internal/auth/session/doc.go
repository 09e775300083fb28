// Package session implements tunebox's per-caller session lifecycle.
//
// A caller is Anonymous (empty slot), a Guest, or Authenticated. Service
// moves a caller between those states by fully replacing or clearing its
// Slot; CurrentUser reads only the slot and never touches the user store.
//
// Slots are backed by gorilla/sessions stores: the filesystem store, the
// signed cookie store, or RedisStore in this package.
package session
