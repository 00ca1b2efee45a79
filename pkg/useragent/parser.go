package useragent

import (
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser classifies User-Agent strings into device/browser/OS metadata
// attached to analytics entries.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo is the parsed result for one User-Agent string.
type DeviceInfo struct {
	DeviceType string // mobile, tablet, desktop, bot, unknown
	Browser    string
	OS         string
	Raw        string
}

// NewParser creates a parser backed by the uap-core regex set compiled
// into uap-go.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{
		parser: uaparser.NewFromSaved(),
		log:    log,
	}
}

// Parse returns device information for a User-Agent string. An empty or
// unparseable string yields "unknown" fields rather than an error.
func (p *Parser) Parse(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)

	info := &DeviceInfo{
		Browser:    orUnknown(client.UserAgent.Family),
		OS:         orUnknown(client.Os.Family),
		Raw:        userAgent,
		DeviceType: deviceType(client, userAgent),
	}

	p.log.Debug("parsed user agent",
		zap.String("device_type", info.DeviceType),
		zap.String("browser", info.Browser),
		zap.String("os", info.OS))

	return info
}

var botMarkers = []string{"bot", "crawler", "spider", "scraper", "facebookexternalhit", "slurp", "preview"}

var mobileOS = []string{"iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS"}

var desktopOS = []string{"Windows", "Mac OS X", "Linux", "Ubuntu", "Chrome OS", "FreeBSD", "OpenBSD"}

func deviceType(client *uaparser.Client, userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) || strings.Contains(strings.ToLower(client.UserAgent.Family), marker) {
			return "bot"
		}
	}

	device := client.Device.Family
	if strings.Contains(device, "iPad") || strings.Contains(device, "Tablet") || strings.Contains(device, "Kindle") {
		return "tablet"
	}

	for _, os := range mobileOS {
		if strings.Contains(client.Os.Family, os) {
			// Android tablets typically omit "Mobile" from the User-Agent.
			if os == "Android" && !strings.Contains(ua, "mobile") {
				return "tablet"
			}
			return "mobile"
		}
	}

	for _, os := range desktopOS {
		if strings.Contains(client.Os.Family, os) {
			return "desktop"
		}
	}

	return "unknown"
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
