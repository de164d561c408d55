package registry

import (
	"fmt"

	random "github.com/mazen160/go-random"
)

// fingerprint is the set of user-agent headers a desktop browser sends.
type fingerprint struct {
	UserAgent string
	Brands    string
	Mobile    string
	Platform  string
}

var fingerprints = map[string]fingerprint{
	"chrome-windows": {
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Brands:    `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		Mobile:    "?0",
		Platform:  `"Windows"`,
	},
	"chrome-macos": {
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		Brands:    `"Google Chrome";v="125", "Chromium";v="125", "Not.A/Brand";v="24"`,
		Mobile:    "?0",
		Platform:  `"macOS"`,
	},
	"chrome-linux": {
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Brands:    `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		Mobile:    "?0",
		Platform:  `"Linux"`,
	},
	"edge-windows": {
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
		Brands:    `"Not/A)Brand";v="8", "Chromium";v="126", "Microsoft Edge";v="126"`,
		Mobile:    "?0",
		Platform:  `"Windows"`,
	},
	"yandex-windows": {
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 YaBrowser/24.6.0.0 Safari/537.36",
		Brands:    `"Chromium";v="124", "YaBrowser";v="24.6", "Not-A.Brand";v="99", "Yowser";v="2.5"`,
		Mobile:    "?0",
		Platform:  `"Windows"`,
	},
}

func fingerprintNames() []string {
	names := make([]string, 0, len(fingerprints))
	for name := range fingerprints {
		names = append(names, name)
	}
	return names
}

// randomFingerprint picks the fingerprint a session keeps for its lifetime.
func randomFingerprint() (fingerprint, error) {
	name, err := random.Choice(fingerprintNames())
	if err != nil {
		return fingerprint{}, fmt.Errorf("pick user agent: %w", err)
	}
	return fingerprints[name], nil
}

func (f fingerprint) headers(referer string) map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           "ru,en;q=0.9,en-GB;q=0.8,en-US;q=0.7",
		"Cache-Control":             "max-age=0",
		"Connection":                "keep-alive",
		"Referer":                   referer,
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "same-origin",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
		"User-Agent":                f.UserAgent,
		"sec-ch-ua":                 f.Brands,
		"sec-ch-ua-mobile":          f.Mobile,
		"sec-ch-ua-platform":        f.Platform,
	}
}
