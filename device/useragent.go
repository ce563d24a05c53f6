package device

import (
	"strings"

	"golang.org/x/text/cases"
)

// ParseUserAgent classifies a user-agent string by case-folded substring
// matching. Unrecognised strings yield BrowserUnknown and OSUnknown with all
// form-factor flags false.
func ParseUserAgent(raw string) UserAgent {
	ua := cases.Fold().String(raw)
	if strings.TrimSpace(ua) == "" {
		return UserAgent{}
	}

	out := UserAgent{
		Browser: parseBrowser(ua),
		OS:      parseOS(ua),
	}

	switch {
	case containsAny(ua, "ipad", "tablet", "kindle", "silk/", "playbook"),
		out.OS == OSAndroid && !strings.Contains(ua, "mobile"):
		out.IsTablet = true
	case containsAny(ua, "mobi", "iphone", "ipod", "windows phone", "blackberry", "opera mini"),
		out.OS == OSAndroid:
		out.IsMobile = true
	case out.OS == OSWindows, out.OS == OSMacOS, out.OS == OSLinux, out.OS == OSChromeOS:
		out.IsDesktop = true
	}
	return out
}

// Order matters: most engines embed the tokens of the ones they derive from.
func parseBrowser(ua string) Browser {
	switch {
	case containsAny(ua, "edg/", "edge/", "edga/", "edgios/"):
		return BrowserEdge
	case containsAny(ua, "opr/", "opera"):
		return BrowserOpera
	case strings.Contains(ua, "samsungbrowser"):
		return BrowserSamsung
	case containsAny(ua, "firefox/", "fxios/"):
		return BrowserFirefox
	case containsAny(ua, "chrome/", "crios/", "chromium/"):
		return BrowserChrome
	case strings.Contains(ua, "safari/") && strings.Contains(ua, "version/"):
		return BrowserSafari
	}
	return BrowserUnknown
}

func parseOS(ua string) OS {
	switch {
	case containsAny(ua, "iphone", "ipad", "ipod"):
		return OSIOS
	case strings.Contains(ua, "android"):
		return OSAndroid
	case strings.Contains(ua, " cros "):
		return OSChromeOS
	case strings.Contains(ua, "windows"):
		return OSWindows
	case containsAny(ua, "mac os x", "macintosh"):
		return OSMacOS
	case containsAny(ua, "linux", "x11"):
		return OSLinux
	}
	return OSUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
