// File: utils/constants.go
package utils

import "time"

// ShopTokenTTL is how long a shop staff login stays valid.
const ShopTokenTTL = 12 * time.Hour

// ShopRole is the role claim carried by shop staff tokens.
const ShopRole = "shop"

// SessionCookieName is the cookie carrying a customer's session id.
const SessionCookieName = "autoshop_session"

// SessionHeader lets API clients pass the session id without cookies.
const SessionHeader = "X-Session-ID"
