package scraper

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minArticleLength is the minimum readability TextContent length for the
// article to be used instead of the whole-page text.
const minArticleLength = 50

// newMarkdownConverter creates a goroutine-safe converter. The base plugin
// drops script, style, iframe, noscript and head content.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// pageText turns fetched HTML into text: the readability article rendered as
// markdown when one is found, otherwise the visible text of the body.
func pageText(conv *converter.Converter, rawHTML, pageURL string) string {
	if md, ok := articleMarkdown(conv, rawHTML, pageURL); ok {
		return md
	}
	return extractVisibleText([]byte(rawHTML))
}

func articleMarkdown(conv *converter.Converter, rawHTML, pageURL string) (string, bool) {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability failed, using visible text", "url", pageURL, "error", err)
		return "", false
	}
	if len(strings.TrimSpace(article.TextContent)) < minArticleLength {
		return "", false
	}

	md, err := conv.ConvertString(article.Content, converter.WithDomain(pageURL))
	if err != nil || strings.TrimSpace(md) == "" {
		return "", false
	}
	if article.Title != "" && !strings.HasPrefix(md, "# ") {
		md = "# " + article.Title + "\n\n" + md
	}
	return md, true
}

// renderedMarkdown converts a whole rendered document to markdown.
func renderedMarkdown(conv *converter.Converter, rawHTML, pageURL string) string {
	md, err := conv.ConvertString(rawHTML, converter.WithDomain(pageURL))
	if err != nil {
		return extractVisibleText([]byte(rawHTML))
	}
	return md
}

var (
	reNoscript  = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)
	reEmptyRoot = regexp.MustCompile(`<div id="(?:root|app|__next)">\s*</div>`)
)

// needsBrowser guesses whether the HTML is an SPA shell whose content only
// appears after JavaScript runs.
func needsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	if reEmptyRoot.MatchString(lower) || reNoscript.MatchString(lower) {
		return true
	}

	scriptCount := strings.Count(lower, "<script")
	return scriptCount > 10 && len(bodyText) < 500
}

// extractVisibleText returns the text inside <body>, without tags and without
// script, style or noscript content.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := !bytes.Contains(bytes.ToLower(body), []byte("<body"))
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
