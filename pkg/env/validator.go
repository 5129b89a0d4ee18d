package env

import (
	"regexp"
	"strings"
)

var (
	ethAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	portPattern       = regexp.MustCompile("^[0-9]{2,5}$")
)

// IsValidEthAddress reports whether address is a 20-byte hex address with 0x prefix.
func IsValidEthAddress(address string) bool {
	return ethAddressPattern.MatchString(address)
}

func IsValidPort(port string) bool {
	if !portPattern.MatchString(port) {
		return false
	}
	return true
}

func IsValidURL(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://")
}
