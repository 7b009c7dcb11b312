package blocklist

// fallbackDomains is the bundled seed list: a small, high-value set of ad
// and tracking domains that protects the user from first launch, before the
// cache or a remote refresh is available.
var fallbackDomains = []string{
	"doubleclick.net",
	"googleadservices.com",
	"googlesyndication.com",
	"googletagmanager.com",
	"googletagservices.com",
	"google-analytics.com",
	"adservice.google.com",
	"pagead2.googlesyndication.com",
	"adnxs.com",
	"adsrvr.org",
	"advertising.com",
	"adsafeprotected.com",
	"amazon-adsystem.com",
	"criteo.com",
	"criteo.net",
	"facebook.net",
	"connect.facebook.net",
	"moatads.com",
	"outbrain.com",
	"taboola.com",
	"pubmatic.com",
	"rubiconproject.com",
	"scorecardresearch.com",
	"quantserve.com",
	"hotjar.com",
	"mixpanel.com",
	"segment.io",
}

// FallbackDomains returns a copy of the bundled seed list.
func FallbackDomains() []string {
	out := make([]string, len(fallbackDomains))
	copy(out, fallbackDomains)
	return out
}
