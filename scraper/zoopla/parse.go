package zoopla

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"house-price-pipeline/models"
)

// searchCard is one property card extracted from a search results page.
type searchCard struct {
	DetailURL string
	RawPrice  string
	Address   string
}

var (
	detailLinkRe = regexp.MustCompile(`/for-sale/details/\d+`)
	// embedded-JSON fields present in the detail page source
	incodeRe       = regexp.MustCompile(`"incode"\s*:\s*"([^"]+)"`)
	outcodeRe      = regexp.MustCompile(`"outcode"\s*:\s*"([^"]+)"`)
	propertyTypeRe = regexp.MustCompile(`"propertyType"\s*:\s*"([^"]+)"`)
	latitudeRe     = regexp.MustCompile(`"latitude"\s*:\s*(-?[\d.]+)`)
	longitudeRe    = regexp.MustCompile(`"longitude"\s*:\s*(-?[\d.]+)`)
	bedsRe         = regexp.MustCompile(`(\d+)\s*bed`)
	bathsRe        = regexp.MustCompile(`(\d+)\s*bath`)
	receptsRe      = regexp.MustCompile(`(\d+)\s*reception`)
	areaRe         = regexp.MustCompile(`([\d,]+)\s*sq\.?\s*ft`)
)

// parseSearchHTML extracts property cards from a rendered search results
// page. Relative detail links are resolved against baseURL.
func parseSearchHTML(html, baseURL string) ([]searchCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var cards []searchCard
	seen := make(map[string]struct{})

	doc.Find(`a[href*="/for-sale/details/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		match := detailLinkRe.FindString(href)
		if match == "" {
			return
		}
		url := baseURL + match + "/"
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}

		// The card container carries the price and address lines.
		card := a.Closest(`[data-testid="search-result"]`)
		if card.Length() == 0 {
			card = a.Closest("div")
		}

		cards = append(cards, searchCard{
			DetailURL: url,
			RawPrice:  firstText(card, `[data-testid="listing-price"]`, "p"),
			Address:   firstText(card, `[data-testid="listing-description"]`, "address", "h2"),
		})
	})

	return cards, nil
}

// parseDetailHTML fills a raw listing from a rendered detail page. Fields
// that cannot be found stay empty; the cleaner imputes or drops them later.
func parseDetailHTML(html string, listing *models.RawListing) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}

	// Postcode parts are only present in the page's embedded JSON.
	outcode := firstMatch(outcodeRe, html)
	incode := firstMatch(incodeRe, html)
	listing.Outcode = outcode
	if outcode != "" && incode != "" {
		listing.Postcode = outcode + " " + incode
	}
	if pt := firstMatch(propertyTypeRe, html); pt != "" {
		listing.RawPropertyType = pt
	}
	listing.Latitude = firstMatch(latitudeRe, html)
	listing.Longitude = firstMatch(longitudeRe, html)

	if listing.RawPrice == "" {
		listing.RawPrice = firstText(doc.Selection, `[data-testid="price"]`, `p[class*="price"]`)
	}
	if listing.DisplayAddress == "" {
		listing.DisplayAddress = firstText(doc.Selection, `[data-testid="address-label"]`, "address", "h1")
	}

	// Feature counts live in the summary strip ("3 bed", "2 bath", ...).
	features := doc.Find(`[data-testid="listing-summary-details"]`).Text()
	if features == "" {
		features = doc.Find("body").Text()
	}
	features = strings.ToLower(features)
	listing.RawBedrooms = firstMatch(bedsRe, features)
	listing.RawBathrooms = firstMatch(bathsRe, features)
	listing.RawReceptions = firstMatch(receptsRe, features)
	if area := firstMatch(areaRe, features); area != "" {
		listing.RawFloorArea = area + " sq ft"
	}

	if desc := doc.Find(`section[data-testid="page_features_section"]`).Text(); desc != "" {
		listing.Description = truncateText(strings.TrimSpace(desc), 500)
	}

	return nil
}

// firstText returns the first non-empty trimmed text among the selectors.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if txt := strings.TrimSpace(s.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// firstMatch returns the first capture group of the regexp, or "".
func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
