package notify

import (
	"github.com/scriptmirror/scriptmirror/internal/reconcile"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Summary is the part of a run result that notifications report.
type Summary struct {
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int
}

// SummaryOf extracts the notification summary from a run result.
func SummaryOf(res *reconcile.Result) Summary {
	return Summary{
		Created:   res.Created,
		Updated:   res.Updated,
		Deleted:   res.Deleted,
		Unchanged: res.Unchanged,
		Failed:    res.Failed,
	}
}

// Changed reports whether the run created, updated or deleted anything.
func (s Summary) Changed() bool {
	return s.Created+s.Updated+s.Deleted > 0
}

// Message is a rendered notification.
type Message struct {
	Title string
	Body  string
}

// Text joins title and body the way single-field channels expect.
func (m Message) Text() string {
	return m.Title + "\n" + m.Body
}

const (
	keyTitle = "title"
	keyBody  = "body"
)

// supported lists the message languages; the first is the fallback.
var supported = []language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
}

var (
	matcher  = language.NewMatcher(supported)
	messages = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
	en, zh := supported[0], supported[1]

	_ = b.SetString(en, keyTitle, "📦 Remote Script Backup")
	_ = b.SetString(en, keyBody, "✅Remote Script Backup Completed\n🆕 Added: %d\n📝 Updated: %d\n🗑️ Deleted: %d")
	_ = b.SetString(zh, keyTitle, "📦 远程脚本自动备份")
	_ = b.SetString(zh, keyBody, "✅远程脚本自动备份完成\n🆕 新增: %d 个\n📝 修改: %d 个\n🗑️ 删除: %d 个")
	return b
}

// MatchLanguage maps a user setting such as "zh-cn" or "en-us" to a
// supported language. Unknown or empty input selects English.
func MatchLanguage(raw string) language.Tag {
	tag, err := language.Parse(raw)
	if err != nil {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Render builds the summary message in lang.
func Render(s Summary, lang language.Tag) Message {
	p := message.NewPrinter(lang, message.Catalog(messages))
	return Message{
		Title: p.Sprintf(keyTitle),
		Body:  p.Sprintf(keyBody, s.Created, s.Updated, s.Deleted),
	}
}
