package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique identifier for one report run
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewMessageID generates an RFC 5322 Message-ID local part for the given domain.
func NewMessageID(domain string) string {
	if domain == "" {
		domain = "oilreport.local"
	}
	return uuid.New().String() + "@" + domain
}
