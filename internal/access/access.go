// Package access decides whether the current user may enter a protected
// area (Public, Authenticated or Owner) and latches the redirect so it fires
// once.
package access

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Role int

const (
	Public Role = iota
	Authenticated
	Owner
)

func (r Role) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Owner:
		return "owner"
	}
	return "unknown"
}

type Decision int

const (
	Allow Decision = iota
	Redirect
	Pending
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Decide is the pure access rule. Owner checks wait for the owner lookup;
// addresses compare case-insensitively.
func Decide(connected, owner *common.Address, ownerResolved bool, required Role) Decision {
	switch required {
	case Owner:
		if !ownerResolved {
			return Pending
		}
		if connected == nil || owner == nil || !sameAddress(*connected, *owner) {
			return Redirect
		}
		return Allow
	case Authenticated:
		if connected == nil {
			return Redirect
		}
		return Allow
	default:
		return Allow
	}
}

func sameAddress(a, b common.Address) bool {
	return strings.EqualFold(a.Hex(), b.Hex())
}
