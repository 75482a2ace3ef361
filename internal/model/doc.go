// Package model defines domain data structures shared across the service:
// download jobs and their statuses, extraction modes, artifacts and the
// closed error taxonomy surfaced to users.
package model
