package scraper

import "github.com/PuerkitoBio/goquery"

// Amazon product page selectors. The image needs the deepest chain: the
// dynamic-image JSON attribute is preferred, then the hi-res attribute, then
// plain src, then a sweep of the rendered markup.
var amazonFields = fields{
	title: []strategy{
		text{"#productTitle"},
	},
	image: []strategy{
		dynamicImage{"#landingImage"},
		attr{"#landingImage", "data-old-hires"},
		attr{"#landingImage", "src"},
		docQuery{func(doc *goquery.Document) string {
			return doc.Find("#imgTagWrapperId img").AttrOr("src", "")
		}},
	},
	price: []strategy{
		text{".a-price-whole"},
		text{"#corePrice_feature_div .a-price .a-offscreen"},
	},
	discount: []strategy{
		text{".savingsPercentage"},
	},
	availability: []strategy{
		text{"#availability .a-size-medium"},
		text{"#availability span"},
	},
	ratings: []strategy{
		text{"#acrPopover > span.a-declarative > a > span"},
		attr{"#acrPopover", "title"},
	},
	totalRatings: []strategy{
		text{"#acrCustomerReviewText"},
	},
}
