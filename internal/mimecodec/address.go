package mimecodec

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Address is an email address with an optional display name.
type Address struct {
	Name  string
	Email string
}

// ParseAddress splits a header value such as `"Jane Doe" <jane@example.com>`.
// Values the RFC 5322 parser rejects are split leniently.
func ParseAddress(s string) Address {
	if a, err := mail.ParseAddress(s); err == nil {
		return Address{Name: a.Name, Email: a.Address}
	}

	return parseAddressLoose(s)
}

// ParseAddressList splits a comma separated list of addresses. Commas inside
// quoted display names do not split unless the list is malformed.
func ParseAddressList(s string) []Address {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if list, err := mail.ParseAddressList(s); err == nil && len(list) > 0 {
		result := make([]Address, 0, len(list))
		for _, a := range list {
			result = append(result, Address{Name: a.Name, Email: a.Address})
		}
		return result
	}

	parts := strings.Split(s, ",")
	result := make([]Address, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, parseAddressLoose(trimmed))
		}
	}

	return result
}

func parseAddressLoose(s string) Address {
	addr := Address{}

	if idx := strings.Index(s, "<"); idx != -1 {
		addr.Name = strings.TrimSpace(s[:idx])
		if endIdx := strings.Index(s[idx:], ">"); endIdx != -1 {
			addr.Email = strings.TrimSpace(s[idx+1 : idx+endIdx])
		}
	} else {
		addr.Email = strings.TrimSpace(s)
	}

	addr.Name = strings.Trim(addr.Name, "\"")

	return addr
}
