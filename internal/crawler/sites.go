package crawler

import (
	"regexp"
	"time"

	"golang.org/x/text/encoding/korean"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
	"github.com/shonsungje/hotdeal-notifier/internal/util"
)

var fmkoreaIDPattern = regexp.MustCompile(`fmkorea\.com/(\d+)`)
var quasarzoneIDPattern = regexp.MustCompile(`/bbs/qb_saleinfo/views/(\d+)`)

// NewPpomppu crawls the 뽐뿌게시판. The board still serves EUC-KR, so the
// body is transcoded before parsing. Rows carry list0/list1 classes; ad
// and notice rows do not.
func NewPpomppu(timeout time.Duration, userAgent string) Crawler {
	return New(SiteConfig{
		Site:     models.SitePpomppu,
		ListURL:  "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu",
		BaseURL:  "https://www.ppomppu.co.kr/zboard/",
		Encoding: korean.EUCKR,
		Selectors: Selectors{
			Row:          "tr.list0, tr.list1",
			TitleLink:    ".list_title",
			Thumbnail:    "img",
			CommentCount: ".list_comment2",
			PostedAt:     ".eng.list_vspace",
		},
		ExtractOriginID: func(absURL string) string {
			// Detail pages look like view.php?id=ppomppu&no=123456; the
			// no= parameter is the post id. Links into other boards or
			// category pages never carry it.
			if util.QueryParam(absURL, "id") != "ppomppu" {
				return ""
			}
			return util.QueryParam(absURL, "no")
		},
		EndedTitleMarkers:     []string{"종료", "품절"},
		ThumbnailPlaceholders: []string{"noimage", "no_image"},
	}, timeout, userAgent)
}

// NewFmkorea crawls the 펨코 핫딜 board. Titles end with a bracketed
// reply count; the shop name lives in the hotdeal_info span and doubles
// as the category.
func NewFmkorea(timeout time.Duration, userAgent string) Crawler {
	return New(SiteConfig{
		Site:    models.SiteFmkorea,
		ListURL: "https://www.fmkorea.com/hotdeal",
		BaseURL: "https://www.fmkorea.com",
		Selectors: Selectors{
			Row:          ".fm_best_widget .li",
			TitleLink:    ".title a",
			Category:     ".hotdeal_info a.strong",
			Price:        ".hotdeal_info span:last-child",
			Thumbnail:    "img.thumb",
			CommentCount: ".comment_count",
			PostedAt:     ".regdate",
		},
		ExtractOriginID: func(absURL string) string {
			m := fmkoreaIDPattern.FindStringSubmatch(absURL)
			if m == nil {
				return ""
			}
			return m[1]
		},
		EndedTitleMarkers:     []string{"종료"},
		ThumbnailPlaceholders: []string{"noimage"},
	}, timeout, userAgent)
}

// NewQuasarzone crawls the 퀘이사존 sale-info board. Ended deals carry a
// "done" label badge; blinded posts keep the row but replace the title.
func NewQuasarzone(timeout time.Duration, userAgent string) Crawler {
	return New(SiteConfig{
		Site:    models.SiteQuasarzone,
		ListURL: "https://quasarzone.com/bbs/qb_saleinfo",
		BaseURL: "https://quasarzone.com",
		Selectors: Selectors{
			Row:          ".list-row",
			EndedMarker:  ".label.done",
			TitleLink:    ".subject a.subject-link",
			Category:     ".category",
			Price:        ".market-info-sub .price .text-orange",
			Thumbnail:    ".thumb-wrap img",
			CommentCount: ".subject-link .count",
			PostedAt:     ".date",
		},
		ExtractOriginID: func(absURL string) string {
			m := quasarzoneIDPattern.FindStringSubmatch(absURL)
			if m == nil {
				return ""
			}
			return m[1]
		},
		EndedTitleMarkers:     []string{"블라인드 처리"},
		ThumbnailPlaceholders: []string{"noimage"},
	}, timeout, userAgent)
}

// All returns one adapter per supported site.
func All(timeout time.Duration, userAgent string) []Crawler {
	return []Crawler{
		NewPpomppu(timeout, userAgent),
		NewFmkorea(timeout, userAgent),
		NewQuasarzone(timeout, userAgent),
	}
}
