package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// detectClientOS derives the session's client descriptor. It prefers the
// sec-ch-ua-platform client hint and falls back to sniffing the User-Agent.
func detectClientOS(c *gin.Context) string {
	if platform := strings.Trim(c.GetHeader("sec-ch-ua-platform"), `"`); platform != "" {
		return platform
	}
	return osFromUserAgent(c.GetHeader("User-Agent"))
}

func osFromUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}
