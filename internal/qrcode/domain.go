package qrcode

import "time"

// CustomDomain is an external domain that overlays the default short-code
// namespace. Domains are stored lowercased and route traffic only once
// verified.
type CustomDomain struct {
	Domain    string
	OwnerID   AccountID
	Verified  bool
	CreatedAt time.Time
}
