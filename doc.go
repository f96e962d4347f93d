// Package main provides the entry point for the Shelfwise library backend.
// It runs a Fiber based REST API for managing books, authors, members,
// borrowings and purchases. Access is governed by role-based access control:
// roles bundle (action, resource) permissions provisioned from a catalog, and
// every protected route declares its required permission at registration.
// The application uses gorm for persistence and bearer tokens for sessions.
package main
