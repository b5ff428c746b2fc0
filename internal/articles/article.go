package articles

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"
)

// Article содержит обработанную новость, готовую к публикации.
// После публикации статья не изменяется.
type Article struct {
	Title     string
	Summary   string
	Link      string
	Source    string
	FetchedAt time.Time
}

// Fingerprint возвращает ключ дедупликации статьи.
// Ключом служит hash только от ссылки: заголовок может быть
// переписан при редактировании, ссылка — нет.
func Fingerprint(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}

// SourceHost возвращает host ссылки ("https://habr.com/ru/post/1/" -> "habr.com").
// Если ссылку не получилось распарсить, возвращается она сама
func SourceHost(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	return u.Host
}
