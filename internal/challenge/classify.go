// Package challenge implements the registry's anti-automation cookie
// protocol: recognizing the challenge page, pulling the seed tokens out of
// its script and deriving the cookie from them.
package challenge

import (
	"github.com/PuerkitoBio/goquery"
)

type Kind int

const (
	KindResult Kind = iota
	KindChallenge
)

func (k Kind) String() string {
	switch k {
	case KindChallenge:
		return "challenge"
	case KindResult:
		return "result"
	}
	return "unknown"
}

// scriptSelector matches the script that computes the cookie on the client.
const scriptSelector = `script[type="text/javascript"][src="/aes.min.js"]`

// Classify decides whether a page is a challenge or a result page. The site
// answers 200 for both so only the content is looked at.
func Classify(doc *goquery.Document) Kind {
	if doc.Find(scriptSelector).Length() > 0 {
		return KindChallenge
	}
	return KindResult
}
