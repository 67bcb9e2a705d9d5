package retailer

import "github.com/shopspring/decimal"

// apiResponse mirrors the commerce API envelope. Only the fields the watcher
// reads are declared; everything else in the payload is ignored.
type apiResponse struct {
	Result apiResult `json:"result"`
}

type apiResult struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	Name   string     `json:"name"`
	Colors []apiCode  `json:"colors"`
	Sizes  []apiCode  `json:"sizes"`
	Images apiImages  `json:"images"`
	L2s    []apiL2    `json:"l2s"`
}

type apiCode struct {
	Code        string `json:"code"`
	DisplayCode string `json:"displayCode"`
	Name        string `json:"name"`
}

type apiImages struct {
	Main []apiMainImage `json:"main"`
}

type apiMainImage struct {
	ColorCode string `json:"colorCode"`
	URL       string `json:"url"`
}

// apiL2 is one sellable color+size combination.
type apiL2 struct {
	Color  apiCode   `json:"color"`
	Size   apiCode   `json:"size"`
	Prices apiPrices `json:"prices"`
	Stock  apiStock  `json:"stock"`
}

type apiPrices struct {
	Base  *apiPrice `json:"base"`
	Promo *apiPrice `json:"promo"`
}

type apiPrice struct {
	Value decimal.Decimal `json:"value"`
}

type apiStock struct {
	StatusCode      string `json:"statusCode"`
	StatusLocalized string `json:"statusLocalized"`
	Quantity        int    `json:"quantity"`
}
