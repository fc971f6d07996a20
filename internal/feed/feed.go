// Package feed builds third-party product catalog feeds. Builders are pure:
// given already-loaded products they return the XML document as a string.
package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
)

type Type string

const (
	TypeFacebook Type = "facebook"
	TypeGoogle   Type = "google"
	TypeTikTok   Type = "tiktok"
	TypeGeneric  Type = "xml"
)

// ParseType validates a feed type from the URL.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeFacebook, TypeGoogle, TypeTikTok, TypeGeneric:
		return Type(s), true
	default:
		return "", false
	}
}

// Build renders the requested feed. now is injected so generated_at/updated
// stamps are testable.
func Build(t Type, store *domain.Store, products []domain.Product, baseURL string, now time.Time) string {
	switch t {
	case TypeFacebook:
		return buildFacebook(store, products, baseURL)
	case TypeGoogle:
		return buildGoogle(store, products, baseURL)
	case TypeTikTok:
		return buildTikTok(store, products, baseURL, now)
	default:
		return buildGeneric(store, products, baseURL, now)
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// variantTitle joins product and variant titles, suppressing the placeholder
// "Default Title" single-variant name.
func variantTitle(p *domain.Product, v *domain.Variant) string {
	if v.Title != "" && v.Title != "Default Title" {
		return p.Title + " - " + v.Title
	}
	return p.Title
}

func productURL(baseURL string, p *domain.Product, v *domain.Variant) string {
	return fmt.Sprintf("%s/products/%s?variant=%d", baseURL, p.Handle, v.ID)
}

func currencyOr(store *domain.Store, fallback string) string {
	if store.Currency != "" {
		return store.Currency
	}
	return fallback
}

func mainImage(p *domain.Product) string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].Src
}

func additionalImages(p *domain.Product, max int) []string {
	if len(p.Images) <= 1 {
		return nil
	}
	rest := p.Images[1:]
	if len(rest) > max {
		rest = rest[:max]
	}
	srcs := make([]string, 0, len(rest))
	for _, img := range rest {
		srcs = append(srcs, img.Src)
	}
	return srcs
}

func onSale(v *domain.Variant) bool {
	return v.CompareAtPrice != nil && *v.CompareAtPrice > v.Price
}

func buildFacebook(store *domain.Store, products []domain.Product, baseURL string) string {
	var b strings.Builder
	currency := currencyOr(store, "ILS")

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s - Product Catalog</title>\n", escapeXML(store.Name))
	fmt.Fprintf(&b, "    <link>%s</link>\n", escapeXML(baseURL))
	fmt.Fprintf(&b, "    <description>Product catalog for %s</description>\n", escapeXML(store.Name))

	forEachVariant(products, func(p *domain.Product, v *domain.Variant) {
		availability := "out of stock"
		if v.InventoryQuantity > 0 {
			availability = "in stock"
		}

		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <g:id>%d_%d</g:id>\n", p.ID, v.ID)
		fmt.Fprintf(&b, "      <g:title>%s</g:title>\n", escapeXML(variantTitle(p, v)))
		fmt.Fprintf(&b, "      <g:description>%s</g:description>\n", escapeXML(stripHTML(p.Description)))
		fmt.Fprintf(&b, "      <g:link>%s</g:link>\n", escapeXML(productURL(baseURL, p, v)))
		fmt.Fprintf(&b, "      <g:image_link>%s</g:image_link>\n", escapeXML(mainImage(p)))
		for _, img := range additionalImages(p, 9) {
			fmt.Fprintf(&b, "      <g:additional_image_link>%s</g:additional_image_link>\n", escapeXML(img))
		}
		fmt.Fprintf(&b, "      <g:availability>%s</g:availability>\n", availability)
		fmt.Fprintf(&b, "      <g:price>%.2f %s</g:price>\n", v.Price, currency)
		if onSale(v) {
			fmt.Fprintf(&b, "      <g:sale_price>%.2f %s</g:sale_price>\n", v.Price, currency)
		}
		fmt.Fprintf(&b, "      <g:brand>%s</g:brand>\n", escapeXML(brand(p, store)))
		b.WriteString("      <g:condition>new</g:condition>\n")
		if v.SKU != "" {
			fmt.Fprintf(&b, "      <g:mpn>%s</g:mpn>\n", escapeXML(v.SKU))
		}
		if v.Barcode != "" {
			fmt.Fprintf(&b, "      <g:gtin>%s</g:gtin>\n", escapeXML(v.Barcode))
		}
		if p.ProductType != "" {
			fmt.Fprintf(&b, "      <g:product_type>%s</g:product_type>\n", escapeXML(p.ProductType))
		}
		fmt.Fprintf(&b, "      <g:item_group_id>%d</g:item_group_id>\n", p.ID)
		if v.Option1 != "" {
			fmt.Fprintf(&b, "      <g:custom_label_0>%s</g:custom_label_0>\n", escapeXML(v.Option1))
		}
		if v.Option2 != "" {
			fmt.Fprintf(&b, "      <g:custom_label_1>%s</g:custom_label_1>\n", escapeXML(v.Option2))
		}
		b.WriteString("    </item>\n")
	})

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

func buildGoogle(store *domain.Store, products []domain.Product, baseURL string) string {
	var b strings.Builder
	currency := currencyOr(store, "ILS")

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s - Product Feed</title>\n", escapeXML(store.Name))
	fmt.Fprintf(&b, "    <link>%s</link>\n", escapeXML(baseURL))
	fmt.Fprintf(&b, "    <description>Google Merchant Center product feed for %s</description>\n", escapeXML(store.Name))

	forEachVariant(products, func(p *domain.Product, v *domain.Variant) {
		availability := "out_of_stock"
		if v.InventoryQuantity > 0 {
			availability = "in_stock"
		}

		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <g:id>%d_%d</g:id>\n", p.ID, v.ID)
		fmt.Fprintf(&b, "      <g:title>%s</g:title>\n", escapeXML(variantTitle(p, v)))
		fmt.Fprintf(&b, "      <g:description>%s</g:description>\n", escapeXML(stripHTML(p.Description)))
		fmt.Fprintf(&b, "      <g:link>%s</g:link>\n", escapeXML(productURL(baseURL, p, v)))
		fmt.Fprintf(&b, "      <g:image_link>%s</g:image_link>\n", escapeXML(mainImage(p)))
		for _, img := range additionalImages(p, 9) {
			fmt.Fprintf(&b, "      <g:additional_image_link>%s</g:additional_image_link>\n", escapeXML(img))
		}
		fmt.Fprintf(&b, "      <g:availability>%s</g:availability>\n", availability)
		fmt.Fprintf(&b, "      <g:price>%.2f %s</g:price>\n", v.Price, currency)
		if onSale(v) {
			fmt.Fprintf(&b, "      <g:sale_price>%.2f %s</g:sale_price>\n", v.Price, currency)
		}
		fmt.Fprintf(&b, "      <g:brand>%s</g:brand>\n", escapeXML(brand(p, store)))
		b.WriteString("      <g:condition>new</g:condition>\n")
		if v.SKU != "" {
			fmt.Fprintf(&b, "      <g:mpn>%s</g:mpn>\n", escapeXML(v.SKU))
		}
		if v.Barcode != "" {
			fmt.Fprintf(&b, "      <g:gtin>%s</g:gtin>\n", escapeXML(v.Barcode))
		}
		if p.ProductType != "" {
			fmt.Fprintf(&b, "      <g:google_product_category>%s</g:google_product_category>\n", escapeXML(p.ProductType))
			fmt.Fprintf(&b, "      <g:product_type>%s</g:product_type>\n", escapeXML(p.ProductType))
		}
		fmt.Fprintf(&b, "      <g:item_group_id>%d</g:item_group_id>\n", p.ID)
		fmt.Fprintf(&b, "      <g:identifier_exists>%t</g:identifier_exists>\n", v.Barcode != "" || v.SKU != "")
		if v.Weight != nil {
			unit := v.WeightUnit
			if unit == "" {
				unit = "kg"
			}
			fmt.Fprintf(&b, "      <g:shipping_weight>%g %s</g:shipping_weight>\n", *v.Weight, unit)
		}
		b.WriteString("    </item>\n")
	})

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

func buildTikTok(store *domain.Store, products []domain.Product, baseURL string, now time.Time) string {
	var b strings.Builder
	currency := currencyOr(store, "ILS")

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:g="http://base.google.com/ns/1.0">` + "\n")
	fmt.Fprintf(&b, "  <title>%s - TikTok Product Catalog</title>\n", escapeXML(store.Name))
	fmt.Fprintf(&b, "  <link href=%q rel=\"alternate\"/>\n", escapeXML(baseURL))
	fmt.Fprintf(&b, "  <updated>%s</updated>\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  <id>%s</id>\n", escapeXML(baseURL))

	forEachVariant(products, func(p *domain.Product, v *domain.Variant) {
		availability := "out of stock"
		if v.InventoryQuantity > 0 {
			availability = "in stock"
		}

		b.WriteString("  <item>\n")
		fmt.Fprintf(&b, "    <sku_id>%d_%d</sku_id>\n", p.ID, v.ID)
		fmt.Fprintf(&b, "    <title>%s</title>\n", escapeXML(variantTitle(p, v)))
		fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(stripHTML(p.Description)))
		fmt.Fprintf(&b, "    <link>%s</link>\n", escapeXML(productURL(baseURL, p, v)))
		fmt.Fprintf(&b, "    <image_link>%s</image_link>\n", escapeXML(mainImage(p)))
		for _, img := range additionalImages(p, 4) {
			fmt.Fprintf(&b, "    <additional_image_link>%s</additional_image_link>\n", escapeXML(img))
		}
		fmt.Fprintf(&b, "    <availability>%s</availability>\n", availability)
		fmt.Fprintf(&b, "    <price>%.2f</price>\n", v.Price)
		fmt.Fprintf(&b, "    <price_currency>%s</price_currency>\n", currency)
		if onSale(v) {
			fmt.Fprintf(&b, "    <sale_price>%.2f</sale_price>\n", v.Price)
		}
		fmt.Fprintf(&b, "    <brand>%s</brand>\n", escapeXML(brand(p, store)))
		b.WriteString("    <condition>new</condition>\n")
		if v.Barcode != "" {
			fmt.Fprintf(&b, "    <gtin>%s</gtin>\n", escapeXML(v.Barcode))
		}
		if v.SKU != "" {
			fmt.Fprintf(&b, "    <mpn>%s</mpn>\n", escapeXML(v.SKU))
		}
		fmt.Fprintf(&b, "    <item_group_id>%d</item_group_id>\n", p.ID)
		if p.ProductType != "" {
			fmt.Fprintf(&b, "    <product_type>%s</product_type>\n", escapeXML(p.ProductType))
		}
		fmt.Fprintf(&b, "    <inventory>%d</inventory>\n", v.InventoryQuantity)
		b.WriteString("  </item>\n")
	})

	b.WriteString("</feed>\n")
	return b.String()
}

func buildGeneric(store *domain.Store, products []domain.Product, baseURL string, now time.Time) string {
	var b strings.Builder
	currency := currencyOr(store, "ILS")
	itemCount := 0

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<catalog>\n")
	b.WriteString("  <store>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", escapeXML(store.Name))
	fmt.Fprintf(&b, "    <url>%s</url>\n", escapeXML(baseURL))
	fmt.Fprintf(&b, "    <currency>%s</currency>\n", currency)
	b.WriteString("  </store>\n")
	b.WriteString("  <products>\n")

	forEachVariant(products, func(p *domain.Product, v *domain.Variant) {
		itemCount++
		b.WriteString("    <product>\n")
		fmt.Fprintf(&b, "      <id>%d_%d</id>\n", p.ID, v.ID)
		fmt.Fprintf(&b, "      <product_id>%d</product_id>\n", p.ID)
		fmt.Fprintf(&b, "      <variant_id>%d</variant_id>\n", v.ID)
		fmt.Fprintf(&b, "      <title>%s</title>\n", escapeXML(variantTitle(p, v)))
		fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(stripHTML(p.Description)))
		fmt.Fprintf(&b, "      <url>%s</url>\n", escapeXML(productURL(baseURL, p, v)))
		fmt.Fprintf(&b, "      <image>%s</image>\n", escapeXML(mainImage(p)))
		fmt.Fprintf(&b, "      <price>%.2f</price>\n", v.Price)
		fmt.Fprintf(&b, "      <currency>%s</currency>\n", currency)
		if v.CompareAtPrice != nil {
			fmt.Fprintf(&b, "      <compare_at_price>%.2f</compare_at_price>\n", *v.CompareAtPrice)
		}
		fmt.Fprintf(&b, "      <in_stock>%t</in_stock>\n", v.InventoryQuantity > 0)
		fmt.Fprintf(&b, "      <inventory>%d</inventory>\n", v.InventoryQuantity)
		fmt.Fprintf(&b, "      <brand>%s</brand>\n", escapeXML(brand(p, store)))
		if v.SKU != "" {
			fmt.Fprintf(&b, "      <sku>%s</sku>\n", escapeXML(v.SKU))
		}
		if v.Barcode != "" {
			fmt.Fprintf(&b, "      <barcode>%s</barcode>\n", escapeXML(v.Barcode))
		}
		if p.ProductType != "" {
			fmt.Fprintf(&b, "      <category>%s</category>\n", escapeXML(p.ProductType))
		}
		if p.Tags != "" {
			fmt.Fprintf(&b, "      <tags>%s</tags>\n", escapeXML(p.Tags))
		}
		fmt.Fprintf(&b, "      <created_at>%s</created_at>\n", p.CreatedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "      <updated_at>%s</updated_at>\n", p.UpdatedAt.UTC().Format(time.RFC3339))
		b.WriteString("    </product>\n")
	})

	b.WriteString("  </products>\n")
	fmt.Fprintf(&b, "  <generated_at>%s</generated_at>\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  <total_products>%d</total_products>\n", itemCount)
	b.WriteString("</catalog>\n")
	return b.String()
}

// forEachVariant flattens Product x Variant. Products without variants emit
// nothing.
func forEachVariant(products []domain.Product, fn func(p *domain.Product, v *domain.Variant)) {
	for i := range products {
		p := &products[i]
		for j := range p.Variants {
			fn(p, &p.Variants[j])
		}
	}
}

func brand(p *domain.Product, store *domain.Store) string {
	if p.Vendor != "" {
		return p.Vendor
	}
	return store.Name
}
