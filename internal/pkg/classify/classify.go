// Package classify maps raw referrer URLs and user-agent strings to the
// canonical labels the dashboards group by.
//
// Two referrer schemes coexist on purpose: Referrer produces canonical
// traffic-source labels for the workspace dashboard, ReferrerHost produces
// raw hostnames for the per-document dashboard. They are different products
// of different dashboards and must not be unified.
package classify

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical device labels.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// sourceRule maps a referrer substring to its canonical label. Rules are
// checked in order and the first match wins; the substrings are not
// mutually exclusive, so order is the tie-break.
type sourceRule struct {
	substr string
	label  string
}

var sourceRules = []sourceRule{
	{"google", "Google"},
	{"bing", "Bing"},
	{"twitter", "Twitter"},
	{"t.co", "Twitter"},
	{"linkedin", "LinkedIn"},
	{"facebook", "Facebook"},
	{"instagram", "Instagram"},
	{"youtube", "YouTube"},
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Referrer returns the canonical traffic-source label for a raw referrer
// URL. A utm_source, when present, takes precedence over the referrer and
// is returned capitalized. No referrer at all is "Direct"; an unrecognized
// referrer is "Other".
func Referrer(referrer, utmSource string) string {
	if utmSource != "" {
		return titleCaser.String(strings.ToLower(utmSource))
	}
	if referrer == "" {
		return "Direct"
	}

	ref := strings.ToLower(referrer)
	for _, rule := range sourceRules {
		if strings.Contains(ref, rule.substr) {
			return rule.label
		}
	}
	return "Other"
}

// ReferrerHost returns the referrer's hostname verbatim for per-document
// grouping. Absent or malformed referrers collapse to "direct".
func ReferrerHost(referrer string) string {
	if referrer == "" {
		return "direct"
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return "direct"
	}
	return u.Hostname()
}

// UserAgent classifies a raw user-agent string into a (device, browser)
// pair. The checks are independent substring tests in fixed priority
// order: the mobile check precedes the tablet check, and the Chrome check
// precedes Safari so Chrome UAs containing "safari" stay Chrome.
func UserAgent(ua string) (device, browser string) {
	s := strings.ToLower(ua)

	switch {
	case strings.Contains(s, "mobile") || strings.Contains(s, "android") || strings.Contains(s, "iphone"):
		device = DeviceMobile
	case strings.Contains(s, "tablet") || strings.Contains(s, "ipad"):
		device = DeviceTablet
	default:
		device = DeviceDesktop
	}

	switch {
	case strings.Contains(s, "chrome") && !strings.Contains(s, "edg"):
		browser = "Chrome"
	case strings.Contains(s, "safari") && !strings.Contains(s, "chrome"):
		browser = "Safari"
	case strings.Contains(s, "firefox"):
		browser = "Firefox"
	case strings.Contains(s, "edg"):
		browser = "Edge"
	default:
		browser = "Other"
	}

	return device, browser
}
