package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

func TestRenderArticle(t *testing.T) {
	a := articles.Article{
		Title:   "Заголовок <b>",
		Summary: "Текст & новости",
		Link:    "http://a/1",
	}

	text := renderArticle(a)

	assert.Contains(t, text, "<b>Заголовок &lt;b&gt;</b>")
	assert.Contains(t, text, "Текст &amp; новости")
	assert.Contains(t, text, "<a href='http://a/1'>Источник</a>")
}

func TestReviewKeyboard(t *testing.T) {
	kb := reviewKeyboard("id-1")
	require.Len(t, kb.InlineKeyboard, 3)

	var datas []string
	for _, row := range kb.InlineKeyboard {
		require.Len(t, row, 1)
		datas = append(datas, *row[0].CallbackData)
	}

	assert.Equal(t, []string{"approve_id-1", "edit_id-1", "reject_id-1"}, datas)

	// каждая кнопка разбирается обратно в действие
	for _, data := range datas {
		_, itemID, err := workflow.ParseAction(data)
		require.NoError(t, err)
		assert.Equal(t, "id-1", itemID)
	}
}

func TestKeepKeyboards(t *testing.T) {
	kb := keepTitleKeyboard("id-1")
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "keep_title_id-1", *kb.InlineKeyboard[0][0].CallbackData)

	kb = keepSummaryKeyboard("id-1")
	assert.Equal(t, "keep_summary_id-1", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestChunkTextShort(t *testing.T) {
	chunks := chunkText("короткий текст", messageLimit)
	assert.Equal(t, []string{"короткий текст"}, chunks)
}

func TestChunkTextLong(t *testing.T) {
	line := strings.Repeat("я", 100)
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString(line)
		b.WriteString("\n")
	}

	chunks := chunkText(b.String(), 1000)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 1000)
	}

	// ничего не потерялось, кроме разрезанных переносов строк
	joined := strings.Join(chunks, "\n")
	assert.Equal(t, strings.Count(b.String(), "я"), strings.Count(joined, "я"))
}

func TestChunkTextWithoutNewlines(t *testing.T) {
	text := strings.Repeat("ю", 2500)
	chunks := chunkText(text, 1000)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len([]rune(chunks[0])))
	assert.Equal(t, 1000, len([]rune(chunks[1])))
	assert.Equal(t, 500, len([]rune(chunks[2])))
}
