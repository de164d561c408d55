package challenge

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"bankrot-check/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var ErrMalformedChallenge = errors.New("malformed challenge")

// Seeds are the three numeric arrays the challenge script feeds into the
// cookie transform.
type Seeds struct {
	A []byte
	B []byte
	C []byte
}

var seedPatterns = [3]*regexp.Regexp{
	regexp.MustCompile(`\ba=toNumbers\("([^"]+)"\)`),
	regexp.MustCompile(`\bb=toNumbers\("([^"]+)"\)`),
	regexp.MustCompile(`\bc=toNumbers\("([^"]+)"\)`),
}

var seedNames = [3]string{"a", "b", "c"}

// ParseSeeds extracts the seed arrays from the inline scripts of a challenge
// page. Every one of the three has to be present.
func ParseSeeds(doc *goquery.Document) (Seeds, error) {
	var raw [3]string
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		for i, pattern := range seedPatterns {
			if raw[i] != "" {
				continue
			}
			groups := pattern.FindStringSubmatch(text)
			if len(groups) < 2 {
				continue
			}
			raw[i] = groups[1]
		}
	}

	var decoded [3][]byte
	for i, value := range raw {
		if value == "" {
			return Seeds{}, fmt.Errorf("%w: no %s seed in challenge script", ErrMalformedChallenge, seedNames[i])
		}
		numbers, err := toNumbers(value)
		if err != nil {
			return Seeds{}, fmt.Errorf("%w: %s seed: %w", ErrMalformedChallenge, seedNames[i], err)
		}
		decoded[i] = numbers
	}

	return Seeds{A: decoded[0], B: decoded[1], C: decoded[2]}, nil
}

// toNumbers turns the hex literal into its byte values, two digits per
// number, like the page's own script does.
func toNumbers(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// SeedsFromHex builds Seeds out of the three hex literals of a challenge.
func SeedsFromHex(a, b, c string) (Seeds, error) {
	var decoded [3][]byte
	for i, value := range [3]string{a, b, c} {
		numbers, err := toNumbers(value)
		if err != nil {
			return Seeds{}, fmt.Errorf("%w: %s seed: %w", ErrMalformedChallenge, seedNames[i], err)
		}
		decoded[i] = numbers
	}
	return Seeds{A: decoded[0], B: decoded[1], C: decoded[2]}, nil
}
