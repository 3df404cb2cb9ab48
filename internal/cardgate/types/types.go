package types

import (
	"strings"
	"time"
)

// AccessLevel is the coarse permission tier written onto a card at
// registration time.
type AccessLevel string

const (
	AccessLevelAdmin AccessLevel = "Admin"
	AccessLevelUser  AccessLevel = "User"
	AccessLevelGuest AccessLevel = "Guest"
)

// ParseAccessLevel maps user input onto a known access level.
// Matching is case-insensitive; unknown values return ok=false.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return AccessLevelAdmin, true
	case "user":
		return AccessLevelUser, true
	case "guest":
		return AccessLevelGuest, true
	default:
		return "", false
	}
}

// NormalizeIdentifier canonicalizes a raw card identifier: surrounding
// whitespace is stripped and the token is upper-cased.  Decisions must
// be case- and whitespace-insensitive on input, so every path that
// touches an identifier goes through this.
func NormalizeIdentifier(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ScanRequest carries one scanned card into the decision engine.
// The block payloads are free-form card data; the decision logic never
// interprets them, they are only forwarded to the reasoning engine.
type ScanRequest struct {
	CardUID    string `json:"cardUID"`
	Block1Data string `json:"block1Data,omitempty"`
	Block2Data string `json:"block2Data,omitempty"`
}

// Decision is the verdict returned for a single scan.
type Decision struct {
	Authorized       bool   `json:"authorized"`
	Reason           string `json:"reason"`
	ResolvedUserName string `json:"resolvedUserName"`
	Identifier       string `json:"identifier"`
}

// RegistrationRequest provisions a new card for a person.
type RegistrationRequest struct {
	DisplayName string `json:"displayName"`
	CardUID     string `json:"cardUID"`
	AccessLevel string `json:"accessLevel"`
}

// Permission is one row of the flattened permissions snapshot: a card
// joined with its owner's display name.
type Permission struct {
	Identifier      string
	DisplayName     string
	AccessLevel     AccessLevel
	AuthorizedDoors []string
}

// AccessLogEntry is one line of the append-only audit trail.
type AccessLogEntry struct {
	ID        int64     `json:"id"`
	CardUID   string    `json:"cardUID"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"` // "Granted" | "Denied"
	Reason    string    `json:"reason"`
}

const (
	StatusGranted = "Granted"
	StatusDenied  = "Denied"
)

// FeedStatus reports the reader-feed connection state for the status
// endpoint.
type FeedStatus struct {
	Connected      bool   `json:"connected"`
	LastIdentifier string `json:"lastIdentifier,omitempty"`
}
