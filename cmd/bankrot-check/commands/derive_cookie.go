package commands

import (
	"fmt"
	"os"

	"bankrot-check/internal/challenge"
	"bankrot-check/internal/components/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var derivePage *string
var deriveSeeds [3]*string
var deriveMode *int

func init() {
	flags := deriveCookieCmd.Flags()
	derivePage = flags.String("page", "", "A saved challenge page to take the seeds from.")
	deriveSeeds[0] = flags.String("a", "", "The hex key seed.")
	deriveSeeds[1] = flags.String("b", "", "The hex iv seed.")
	deriveSeeds[2] = flags.String("c", "", "The hex ciphertext seed.")
	deriveMode = flags.Int("mode", int(challenge.ModeCBC), "The cipher mode, 0 OFB, 1 CFB, 2 CBC.")
	rootCmd.AddCommand(deriveCookieCmd)
}

var deriveCookieCmd = &cobra.Command{
	Use:   "derive-cookie (--page <challenge.html> | --a <hex> --b <hex> --c <hex>)",
	Short: "Prints the access cookie a challenge page resolves to.",
	Run: func(cmd *cobra.Command, args []string) {
		seeds, err := readSeeds()
		if err != nil {
			serviceutil.Fatal("failed to read seeds", err)
		}
		cookie, err := challenge.AESDeriver{}.Derive(seeds, challenge.Mode(*deriveMode))
		if err != nil {
			serviceutil.Fatal("failed to derive cookie", err)
		}
		fmt.Println(cookie)
	},
}

func readSeeds() (challenge.Seeds, error) {
	if *derivePage == "" {
		return challenge.SeedsFromHex(*deriveSeeds[0], *deriveSeeds[1], *deriveSeeds[2])
	}

	f, err := os.Open(*derivePage)
	if err != nil {
		return challenge.Seeds{}, err
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return challenge.Seeds{}, err
	}
	if challenge.Classify(doc) != challenge.KindChallenge {
		return challenge.Seeds{}, fmt.Errorf("%s is not a challenge page", *derivePage)
	}
	return challenge.ParseSeeds(doc)
}
