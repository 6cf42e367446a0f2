package rules

import "github.com/haukened/pageguard/internal/guard/domain"

var defaultBlockDomains = []string{
	"tsukulink.net",
	"carcon.co.jp",
}

var defaultSearchIdentifiers = []string{
	"search",
	"query",
	"q=",
	"keyword",
	"キーワード",
	"検索",
	"サーチ",
}

// The default groups list one entry per exclusion; the detector merges them.
func defaultGroup1() domain.RuleGroup {
	return domain.NewRuleGroup(domain.GroupSolicitation,
		domain.Bare("勧誘"),
		domain.Structured("営業", "営業時間"),
		domain.Structured("営業", "営業内容"),
		domain.Structured("営業", "営業部"),
		domain.Structured("営業", "営業日"),
		domain.Structured("取引", "取引銀行"),
		domain.Structured("取引", "特定商取引"),
		domain.Bare("売り込"),
		domain.Bare("売込"),
		domain.Bare("セールス"),
		domain.Bare("営利目的"),
		domain.Bare("商用利用"),
		domain.Structured("業者", "販売業者"),
		domain.Structured("業者", "事業者"),
		domain.Bare("業務"),
		domain.Structured("広告", "広告媒体"),
	)
}

func defaultGroup2() domain.RuleGroup {
	return domain.NewRuleGroup(domain.GroupRefusal,
		domain.Bare("かねます"),
		domain.Bare("兼ねます"),
		domain.Bare("断り"),
		domain.Bare("おりません"),
		domain.Structured("遠慮", "遠慮なく"),
		domain.Bare("控え"),
		domain.Bare("ありません"),
		domain.Bare("ではない"),
		domain.Bare("いたしません"),
		domain.Bare("ございません"),
		domain.Bare("しかるべき対応"),
		domain.Bare("訴訟"),
		domain.Structured("請求", "資料請求"),
		domain.Structured("請求", "保険請求"),
		domain.Structured("請求", "請求日"),
		domain.Structured("請求", "請求書ダウンロード"),
	)
}

// Default returns the built-in rule set.
func Default() RuleSet {
	return RuleSet{
		Group1:            defaultGroup1(),
		Group2:            defaultGroup2(),
		SearchIdentifiers: append([]string(nil), defaultSearchIdentifiers...),
		BlockDomains:      append([]string(nil), defaultBlockDomains...),
		Messages:          domain.DefaultBlockMessages(),
		Source:            "builtin",
	}
}
