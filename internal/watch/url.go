package watch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	productPathRe = regexp.MustCompile(`products/([\dA-Z\-]+)`)
	nonNumericRe  = regexp.MustCompile(`[^0-9]`)
	nonAlphaRe    = regexp.MustCompile(`[^A-Za-z]`)
)

// Resolver maps human-shareable product page URLs onto the retailer's
// commerce API. A URL that does not match the configured host or the
// region/language path shape cannot be monitored; callers log and skip it.
type Resolver struct {
	host    string
	apiBase string
	pathRe  *regexp.Regexp
}

// NewResolver builds a Resolver for one retailer storefront. apiBase must
// end with a trailing slash, e.g. "https://www.uniqlo.com/ca/api/commerce/v3/en/".
func NewResolver(host, apiBase, region, language string) *Resolver {
	return &Resolver{
		host:    host,
		apiBase: strings.TrimSuffix(apiBase, "/") + "/",
		pathRe:  regexp.MustCompile(fmt.Sprintf(`(%s)/(%s)([A-Za-z0-9\-/]+)?`, regexp.QuoteMeta(region), regexp.QuoteMeta(language))),
	}
}

// Host returns the storefront host the resolver accepts.
func (r *Resolver) Host() string {
	return r.host
}

// APIURL converts a product or content page URL into an API endpoint.
// Product detail pages become products/<ID> calls; anything else under the
// region/language path becomes a CMS lookup on the percent-encoded URI.
func (r *Resolver) APIURL(pageURL string) (string, error) {
	m := r.pathRe.FindStringSubmatch(pageURL)
	if m == nil {
		return "", fmt.Errorf("url %q does not match the storefront path shape", pageURL)
	}
	uri := m[3]
	if uri == "" {
		uri = "/"
	}
	if pm := productPathRe.FindStringSubmatch(uri); pm != nil {
		return r.apiBase + "products/" + pm[1], nil
	}
	return r.apiBase + "cms?path=" + url.QueryEscape(uri), nil
}

// Selector extracts the variant display codes from the URL query. When only
// a raw code is present the display code is derived by stripping non-numeric
// characters; this mapping is a retailer quirk and lives here so it can be
// overridden in one place.
func (r *Resolver) Selector(pageURL string) VariantSelector {
	u, err := url.Parse(pageURL)
	if err != nil {
		return VariantSelector{}
	}
	q := u.Query()
	sel := VariantSelector{
		ColorCode: q.Get("colorDisplayCode"),
		SizeCode:  q.Get("sizeDisplayCode"),
	}
	if sel.ColorCode == "" {
		sel.ColorCode = DisplayCode(q.Get("colorCode"))
	}
	if sel.SizeCode == "" {
		sel.SizeCode = DisplayCode(q.Get("sizeCode"))
	}
	return sel
}

// Rehost rewrites a command-line fragment into a full https URL on the
// storefront host. It fails when the fragment does not mention the host.
func (r *Resolver) Rehost(fragment string) (string, error) {
	idx := strings.Index(fragment, r.host)
	if idx < 0 {
		return "", fmt.Errorf("no %s url in %q", r.host, fragment)
	}
	return "https://" + fragment[idx:], nil
}

// DisplayCode reduces a raw variant code to its numeric display form.
func DisplayCode(code string) string {
	return nonNumericRe.ReplaceAllString(code, "")
}

// CodePrefix returns the alphabetic prefix of a raw variant code, used to
// rebuild full codes from display codes when canonicalizing URLs.
func CodePrefix(code string) string {
	return nonAlphaRe.ReplaceAllString(code, "")
}

// CanonicalURL strips the query from a page URL and re-appends the variant
// selection as normalized colorCode/sizeCode parameters. The result is the
// unique tracking key for the product.
func CanonicalURL(pageURL string, sel VariantSelector, colorPrefix, sizePrefix string) string {
	base, _, _ := strings.Cut(pageURL, "?")
	out := base
	if sel.ColorCode != "" {
		out += delimiter(out) + "colorCode=" + colorPrefix + sel.ColorCode
	}
	if sel.SizeCode != "" {
		out += delimiter(out) + "sizeCode=" + sizePrefix + sel.SizeCode
	}
	return out
}

func delimiter(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}
