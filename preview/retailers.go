package preview

import (
	"net/url"
	"strings"
)

// Retailer is a store the backend scraper can import products from, with the
// page selectors used when a page carries no OpenGraph tags.
type Retailer struct {
	Name           string
	hosts          []string
	titleSelectors []string
	priceSelectors []string
	imageSelectors []string
}

var retailers = []Retailer{
	{
		Name:           "amazon",
		hosts:          []string{"amazon", "amzn"},
		titleSelectors: []string{"#productTitle"},
		priceSelectors: []string{".priceToPay .a-offscreen", "#priceblock_dealprice", "#priceblock_ourprice", ".a-price .a-offscreen"},
		imageSelectors: []string{"#landingImage", "#imgBlkFront"},
	},
	{
		Name:           "flipkart",
		hosts:          []string{"flipkart.com"},
		titleSelectors: []string{".B_NuCI", "h1.yhB1nd span", "h1"},
		priceSelectors: []string{"div._30jeq3._16Jk6d", "div.Nx9bqj.CxhGGd"},
	},
	{
		Name:           "myntra",
		hosts:          []string{"myntra.com"},
		titleSelectors: []string{".pdp-title", ".pdp-name"},
		priceSelectors: []string{".pdp-price strong"},
	},
	{
		Name:           "tatacliq",
		hosts:          []string{"tatacliq.com"},
		titleSelectors: []string{"h1.ProductDescriptionPage__productName", ".ProductDetailsMainCard__productName"},
		priceSelectors: []string{".ProductDescriptionPage__price", ".ProductDetailsMainCard__price"},
	},
	{
		Name:           "peterengland",
		hosts:          []string{"peterengland"},
		titleSelectors: []string{"h1.pdp-title", ".ProductDetails__productName"},
		priceSelectors: []string{".pdp-price strong", ".ProductDetails__price"},
	},
}

// RetailerFor returns the retailer serving rawURL.
func RetailerFor(rawURL string) (Retailer, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Retailer{}, false
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range retailers {
		for _, h := range r.hosts {
			if strings.Contains(host, h) {
				return r, true
			}
		}
	}
	return Retailer{}, false
}

// Supported reports whether the backend can import products from rawURL.
func Supported(rawURL string) bool {
	_, ok := RetailerFor(rawURL)
	return ok
}
