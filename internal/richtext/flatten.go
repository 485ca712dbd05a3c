package richtext

import (
	"html"
	"regexp"
	"strings"
)

// Stat block text supports only a reduced markup, so compendium content is
// flattened: headings and emphasis become bold/italic, tables become
// pipe-separated lines, images become links, and GM-only secret sections
// replace everything after them.
var (
	headingRe    = regexp.MustCompile(`<h([0-9])[^>]*?>(.*?)</h[0-9]>`)
	emRe         = regexp.MustCompile(`<em.*?>(.*?)</em>`)
	strongRe     = regexp.MustCompile(`<strong.*?>(.*?)</strong>`)
	blockquoteRe = regexp.MustCompile(`<blockquote.*?>(.*?)</blockquote>`)
	imgRe        = regexp.MustCompile(`<img(.*?)src="?(.*?)"?( .*?)?>`)
	trFirstTdRe  = regexp.MustCompile(`<tr.*?><td.*?>(.*?)</td>`)
	tdRe         = regexp.MustCompile(`<td.*?>(.*?)</td>`)
	trEndRe      = regexp.MustCompile(`</tr>`)
	pRe          = regexp.MustCompile(`</?p.*?>`)
	brRe         = regexp.MustCompile(`<br.*?>`)
	hrRe         = regexp.MustCompile(`<hr.*?>`)
	commentRe    = regexp.MustCompile(`<!--.*?-->`)
	secretRe     = regexp.MustCompile(`(?s)<section .*?class=.secret..*?>(.*?)</section>.*`)
)

// Flatten converts page HTML into stat-block text, resolving references on
// the way through.
func (x *Index) Flatten(text string) string {
	text = x.RewriteEntityLinks(text)
	text = x.RewriteRefTags(text)
	text = headingRe.ReplaceAllString(text, "<b>$2</b>\n")
	text = emRe.ReplaceAllString(text, "<i>$1</i>")
	text = strongRe.ReplaceAllString(text, "<b>$1</b>")
	text = blockquoteRe.ReplaceAllString(text, "-------------\n$1-------------\n")
	text = imgRe.ReplaceAllString(text, `<a$1href="$2"$3>Image</a>`)
	text = trFirstTdRe.ReplaceAllString(text, "$1")
	text = tdRe.ReplaceAllString(text, " | $1")
	text = trEndRe.ReplaceAllString(text, "\n")
	text = pRe.ReplaceAllString(text, "")
	text = brRe.ReplaceAllString(text, "\n")
	text = hrRe.ReplaceAllString(text, "------------------------\n")
	text = commentRe.ReplaceAllString(text, "")
	text = RewriteRolls(text)
	text = secretRe.ReplaceAllString(text, "$1")
	return html.UnescapeString(strings.TrimSpace(text))
}
