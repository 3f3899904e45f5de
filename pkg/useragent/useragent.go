// Package useragent extracts coarse device information from User-Agent
// strings. The output is intentionally shallow: enough to label a session
// ("Chrome on Windows, desktop"), not a full UA database.
package useragent

import "strings"

// Device type labels.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// Info is the parsed summary of a User-Agent string.
type Info struct {
	Browser    string
	OS         string
	DeviceType string
}

// Parse extracts browser, OS, and device type from a User-Agent string.
// Unrecognized parts come back as "unknown" rather than an error.
func Parse(ua string) Info {
	if strings.TrimSpace(ua) == "" {
		return Info{Browser: "unknown", OS: "unknown", DeviceType: DeviceUnknown}
	}
	lower := strings.ToLower(ua)
	return Info{
		Browser:    detectBrowser(lower),
		OS:         detectOS(lower),
		DeviceType: detectDevice(lower),
	}
}

// Map renders the info as session metadata.
func (i Info) Map() map[string]string {
	return map[string]string{
		"browser":     i.Browser,
		"os":          i.OS,
		"device_type": i.DeviceType,
	}
}

// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
var browserChecks = []struct {
	token string
	name  string
}{
	{"edg/", "Edge"},
	{"edge/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser", "Samsung Internet"},
	{"firefox/", "Firefox"},
	{"chrome/", "Chrome"},
	{"crios/", "Chrome"},
	{"safari/", "Safari"},
}

func detectBrowser(lower string) string {
	for _, c := range browserChecks {
		if strings.Contains(lower, c.token) {
			return c.name
		}
	}
	return "unknown"
}

var osChecks = []struct {
	token string
	name  string
}{
	{"windows", "Windows"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"android", "Android"},
	{"mac os x", "macOS"},
	{"macintosh", "macOS"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
}

func detectOS(lower string) string {
	for _, c := range osChecks {
		if strings.Contains(lower, c.token) {
			return c.name
		}
	}
	return "unknown"
}

var botTokens = []string{"bot", "crawler", "spider", "curl/", "wget/", "python-requests"}

func detectDevice(lower string) string {
	for _, token := range botTokens {
		if strings.Contains(lower, token) {
			return DeviceBot
		}
	}
	switch {
	case strings.Contains(lower, "ipad"),
		strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return DeviceTablet
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "iphone"):
		return DeviceMobile
	case strings.Contains(lower, "windows"),
		strings.Contains(lower, "macintosh"),
		strings.Contains(lower, "linux"),
		strings.Contains(lower, "cros"):
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}
