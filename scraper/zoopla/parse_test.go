package zoopla

import (
	"strings"
	"testing"

	"house-price-pipeline/models"
)

const searchFixture = `<!DOCTYPE html>
<html><body>
  <div data-testid="search-result">
    <a href="/for-sale/details/67123456/?search_identifier=abc">
      <p data-testid="listing-price">£325,000</p>
      <address data-testid="listing-description">12 Harrow Road, Leeds LS6</address>
    </a>
  </div>
  <div data-testid="search-result">
    <a href="https://www.zoopla.co.uk/for-sale/details/67891011">
      <p data-testid="listing-price">£199,950</p>
      <h2>4 Mill Lane, York</h2>
    </a>
  </div>
  <div data-testid="search-result">
    <a href="/for-sale/details/67123456">
      <p data-testid="listing-price">£325,000</p>
    </a>
  </div>
  <a href="/for-sale/houses/leeds/">Browse houses in Leeds</a>
</body></html>`

const detailFixture = `<!DOCTYPE html>
<html><body>
  <script>window.__DATA__ = {"listing":{"outcode":"LS6","incode":"2AB","propertyType":"terraced","latitude":53.8321,"longitude":-1.5655}};</script>
  <p data-testid="price">£325,000</p>
  <h1 data-testid="address-label">12 Harrow Road, Leeds LS6 2AB</h1>
  <div data-testid="listing-summary-details">3 bed &middot; 1 bath &middot; 2 reception &middot; 1,050 sq. ft</div>
  <section data-testid="page_features_section">
    Recently refurbished terraced house close to Meanwood Park.
  </section>
</body></html>`

func TestParseSearchHTML(t *testing.T) {
	cards, err := parseSearchHTML(searchFixture, "https://www.zoopla.co.uk")
	if err != nil {
		t.Fatalf("parseSearchHTML: %v", err)
	}

	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2 (duplicate and non-detail links excluded)", len(cards))
	}

	first := cards[0]
	if first.DetailURL != "https://www.zoopla.co.uk/for-sale/details/67123456/" {
		t.Errorf("DetailURL = %q", first.DetailURL)
	}
	if first.RawPrice != "£325,000" {
		t.Errorf("RawPrice = %q", first.RawPrice)
	}
	if !strings.Contains(first.Address, "Harrow Road") {
		t.Errorf("Address = %q", first.Address)
	}

	if cards[1].DetailURL != "https://www.zoopla.co.uk/for-sale/details/67891011/" {
		t.Errorf("second DetailURL = %q", cards[1].DetailURL)
	}
}

func TestParseSearchHTMLEmptyPage(t *testing.T) {
	cards, err := parseSearchHTML("<html><body><p>No results</p></body></html>", "https://www.zoopla.co.uk")
	if err != nil {
		t.Fatalf("parseSearchHTML: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("got %d cards from an empty page", len(cards))
	}
}

func TestParseDetailHTML(t *testing.T) {
	listing := &models.RawListing{URL: "https://www.zoopla.co.uk/for-sale/details/67123456/"}
	if err := parseDetailHTML(detailFixture, listing); err != nil {
		t.Fatalf("parseDetailHTML: %v", err)
	}

	cases := []struct {
		field string
		got   string
		want  string
	}{
		{"Outcode", listing.Outcode, "LS6"},
		{"Postcode", listing.Postcode, "LS6 2AB"},
		{"RawPropertyType", listing.RawPropertyType, "terraced"},
		{"Latitude", listing.Latitude, "53.8321"},
		{"Longitude", listing.Longitude, "-1.5655"},
		{"RawPrice", listing.RawPrice, "£325,000"},
		{"RawBedrooms", listing.RawBedrooms, "3"},
		{"RawBathrooms", listing.RawBathrooms, "1"},
		{"RawReceptions", listing.RawReceptions, "2"},
		{"RawFloorArea", listing.RawFloorArea, "1,050 sq ft"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}

	if !strings.Contains(listing.DisplayAddress, "Harrow Road") {
		t.Errorf("DisplayAddress = %q", listing.DisplayAddress)
	}
	if !strings.Contains(listing.Description, "Meanwood Park") {
		t.Errorf("Description = %q", listing.Description)
	}
}

func TestParseDetailHTMLKeepsExistingPrice(t *testing.T) {
	listing := &models.RawListing{RawPrice: "£300,000"}
	if err := parseDetailHTML(detailFixture, listing); err != nil {
		t.Fatalf("parseDetailHTML: %v", err)
	}
	if listing.RawPrice != "£300,000" {
		t.Errorf("search-page price overwritten: %q", listing.RawPrice)
	}
}

func TestParseDetailHTMLSparsePage(t *testing.T) {
	listing := &models.RawListing{}
	if err := parseDetailHTML("<html><body><p>gone</p></body></html>", listing); err != nil {
		t.Fatalf("parseDetailHTML: %v", err)
	}
	if listing.Outcode != "" || listing.RawBedrooms != "" || listing.RawFloorArea != "" {
		t.Errorf("sparse page produced fields: %+v", listing)
	}
}
