package ui

import (
	_ "embed"
	"math/rand/v2"
	"strings"
)

//go:embed splash.csv
var splashCSV string

// rareOdds is the 1-in-n chance of picking a rare splash.
const rareOdds = 20

// Splashes splits the embedded splash texts. Lines containing '*' are rare.
func Splashes() (common, rare []string) {
	return parseSplashes(splashCSV)
}

func parseSplashes(data string) (common, rare []string) {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "*") {
			rare = append(rare, line)
		} else {
			common = append(common, line)
		}
	}
	return common, rare
}

// Splash picks a greeting for the browser header. pick(n) returns a value in
// [0, n); nil uses math/rand.
func Splash(pick func(n int) int) string {
	if pick == nil {
		pick = rand.IntN
	}
	common, rare := Splashes()
	if len(rare) > 0 && (len(common) == 0 || pick(rareOdds) == 0) {
		return strings.Trim(rare[pick(len(rare))], "* ")
	}
	if len(common) == 0 {
		return ""
	}
	return common[pick(len(common))]
}
