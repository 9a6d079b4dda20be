package listing

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ParseLegacyListing reads a legacy list export: a JSON array of HTML cards
// scraped from the purchase library page. Cards that describe the same item
// are merged; the first non-empty value of each field wins.
func ParseLegacyListing(blob []byte) (*PartialItem, error) {
	var cards []string
	if err := json.Unmarshal(blob, &cards); err != nil {
		return nil, err
	}

	p := &PartialItem{}
	for _, card := range cards {
		c, err := parseCard(card)
		if err != nil {
			continue
		}
		if p.Name == "" {
			p.Name = c.Name
		}
		if p.Author == "" {
			p.Author, p.AuthorURL = c.Author, c.AuthorURL
		}
		if p.URL == "" {
			p.URL = c.URL
		}
		for _, img := range c.ImageURLs {
			if !slices.Contains(p.ImageURLs, img) {
				p.ImageURLs = append(p.ImageURLs, img)
			}
		}
	}
	return p, nil
}

func parseCard(card string) (*PartialItem, error) {
	doc, err := html.Parse(strings.NewReader(card))
	if err != nil {
		return nil, err
	}

	p := &PartialItem{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "div":
				class := attr(n, "class")
				if p.Name == "" && strings.HasPrefix(class, "text-text-default") {
					p.Name = textContent(n)
				}
			case "img":
				if src := attr(n, "src"); src != "" {
					p.ImageURLs = append(p.ImageURLs, src)
				}
			case "a":
				href := attr(n, "href")
				switch {
				case strings.Contains(href, "/items/"):
					if p.URL == "" {
						p.URL = href
					}
				case p.Author == "" && isShopURL(href):
					p.Author, p.AuthorURL = textContent(n), href
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return p, nil
}

// isShopURL matches seller storefronts such as https://example.booth.pm/.
func isShopURL(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.HasSuffix(u.Host, ".booth.pm") && u.Host != "accounts.booth.pm"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
