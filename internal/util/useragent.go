package util

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// ClientInfo is the device metadata derived from a raw user-agent string
type ClientInfo struct {
	DeviceType string // desktop, mobile, bot
	Browser    string
	OS         string
}

// ParseUserAgent extracts device type, browser and OS from a user-agent
// string. Unknown agents come back as "unknown" rather than empty so the
// aggregation queries group them under one bucket.
func ParseUserAgent(raw string) ClientInfo {
	info := ClientInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	if strings.TrimSpace(raw) == "" {
		return info
	}

	parsed := ua.New(raw)

	switch {
	case parsed.Bot():
		info.DeviceType = "bot"
	case parsed.Mobile():
		info.DeviceType = "mobile"
	default:
		info.DeviceType = "desktop"
	}

	if name, _ := parsed.Browser(); name != "" {
		info.Browser = name
	}
	if os := parsed.OS(); os != "" {
		info.OS = os
	}

	return info
}
