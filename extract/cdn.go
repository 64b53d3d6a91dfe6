package extract

import "regexp"

// HighResProfile is the resize parameter set requested for CDN fill URLs.
const HighResProfile = "w_1440,h_900,al_c,q_85"

var cdnFillRe = regexp.MustCompile(`^(https?://[^/]+/media/[^/]+)/v1/fill/[^/]+/([^/?#]+)(.*)$`)

// NormalizeCDN rewrites a CDN fill thumbnail (.../media/{id}/v1/fill/{params}/{file})
// to request the high-resolution profile, keeping the media id and file name.
// Any other URL, including other CDNs, is returned unchanged.
func NormalizeCDN(u string) string {
	return cdnFillRe.ReplaceAllString(u, "${1}/v1/fill/"+HighResProfile+"/${2}${3}")
}

// NormalizeImages applies NormalizeCDN to each URL and removes duplicates
// created by the rewrite.
func NormalizeImages(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range Dedupe(urls) {
		out = append(out, NormalizeCDN(u))
	}
	return Dedupe(out)
}
