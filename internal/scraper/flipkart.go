package scraper

import "github.com/PuerkitoBio/goquery"

// Flipkart product page selectors. Class names here are build artifacts and
// rotate without notice, hence the generic fallbacks at the end of each
// chain. There is no stable availability element; listings are treated as in
// stock.
var flipkartFields = fields{
	title: []strategy{
		text{".VU-ZEz"},
		text{"h1 span"},
	},
	image: []strategy{
		attr{"#container > div > div._39kFie.N3De93.JxFEK3._48O0EI > div.DOjaWF.YJG4Cf > " +
			"div.DOjaWF.gdgoEp.col-5-12.MfqIAz > div:nth-child(1) > div > div.qOPjUY > " +
			"div._8id3KM > div > div._4WELSP._6lpKCl > img", "src"},
		attr{"._4WELSP img", "src"},
		docQuery{func(doc *goquery.Document) string {
			return doc.Find("meta[property='og:image']").AttrOr("content", "")
		}},
	},
	price: []strategy{
		text{".Nx9bqj"},
	},
	discount: []strategy{
		text{".UkUFwK span"},
	},
	availability: []strategy{
		literal("Available"),
	},
	ratings: []strategy{
		text{".XQDdHH"},
	},
	totalRatings: []strategy{
		text{".Wphh3N span span"},
	},
}
