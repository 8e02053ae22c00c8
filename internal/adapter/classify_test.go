package adapter

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFromText(t *testing.T) {
	assert.Equal(t, "concerts", CategoryFromText("Jazz Concert at the Esplanade"))
	assert.Equal(t, "food", CategoryFromText("Hawker Food Tasting Tour"))
	assert.Equal(t, "business", CategoryFromText("Tech Startup Networking Night", "meet founders"))
	assert.Equal(t, "general", CategoryFromText("Something Unremarkable"))

	// 多关键词命中时按优先级取靠前的分类
	assert.Equal(t, "concerts", CategoryFromText("Music Festival Food Market"))

	// 关键词按词首匹配，词中子串不算命中（"startup"不含词"art"）
	assert.Equal(t, "business", CategoryFromText("Startup Pitch Evening"))
	assert.Equal(t, "concerts", CategoryFromText("Rock Concerts This Week"))
}

func TestFirstMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="event-card"><h3>A</h3></div><div class="event-card"><h3>B</h3></div>`))
	require.NoError(t, err)

	sel := FirstMatch(doc, []string{".missing", ".event-card"})
	require.NotNil(t, sel)
	assert.Equal(t, 2, sel.Length())

	assert.Nil(t, FirstMatch(doc, []string{".missing", ".also-missing"}))
}

func TestFindByClassKeyword(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="promo-event-tile">x</div><div class="navbar">y</div>`))
	require.NoError(t, err)

	sel := FindByClassKeyword(doc, []string{"event"})
	assert.Equal(t, 1, sel.Length())
}

func TestTextAndAttrHelpers(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="card"><h3>  Jazz&nbsp;Night </h3><a href="/events/1">more</a><img data-src="/img/1.jpg"></div>`))
	require.NoError(t, err)
	card := doc.Find(".card")

	assert.Equal(t, "Jazz Night", TextOf(card, "h2", "h3"))
	assert.Equal(t, "/events/1", LinkOf(card))
	assert.Equal(t, "/img/1.jpg", ImageOf(card))
	assert.Equal(t, "", TextOf(card, ".missing"))
}
