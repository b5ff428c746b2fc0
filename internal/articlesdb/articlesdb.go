package articlesdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
)

/*
*	Структура базы данных
*
*	"articles"
*		| fingerprint (TEXT, PRIMARY KEY) — sha256 от ссылки
*		| title
*		| summary
*		| link
*		| source
*		| created_at (UNIX)
*
 */

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	fingerprint TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	summary     TEXT NOT NULL,
	link        TEXT NOT NULL,
	source      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);`

// DB хранит уже опубликованные статьи
type DB struct {
	sql *sql.DB
}

// Open открывает базу данных (или создаёт, если не существует)
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("articlesdb: не получилось создать каталог %s: %w", dir, err)
		}
	}

	adapter, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("articlesdb: не получилось открыть %s: %w", path, err)
	}

	if _, err := adapter.Exec(schema); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("articlesdb: не получилось создать таблицу: %w", err)
	}

	return &DB{sql: adapter}, nil
}

// Close закрывает базу данных
func (db *DB) Close() error {
	return db.sql.Close()
}

// Add добавляет статью, если её ещё нет.
// Возвращает true, если запись действительно была добавлена
func (db *DB) Add(a articles.Article) (bool, error) {
	res, err := db.sql.Exec(
		`INSERT OR IGNORE INTO articles (fingerprint, title, summary, link, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		articles.Fingerprint(a.Link), a.Title, a.Summary, a.Link, a.Source, time.Now().Unix(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists проверяет, была ли статья с таким fingerprint уже опубликована
func (db *DB) Exists(fingerprint string) (bool, error) {
	var one int
	err := db.sql.QueryRow(
		`SELECT 1 FROM articles WHERE fingerprint = ?`, fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// All возвращает все опубликованные статьи (новые раньше)
func (db *DB) All() ([]articles.Article, error) {
	rows, err := db.sql.Query(
		`SELECT title, summary, link, source, created_at FROM articles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]articles.Article, 0)
	for rows.Next() {
		var (
			a       articles.Article
			created int64
		)
		if err := rows.Scan(&a.Title, &a.Summary, &a.Link, &a.Source, &created); err != nil {
			return nil, err
		}
		a.FetchedAt = time.Unix(created, 0)
		result = append(result, a)
	}

	return result, rows.Err()
}

// Count возвращает количество статей в базе данных
func (db *DB) Count() (int64, error) {
	var counter int64
	err := db.sql.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&counter)
	return counter, err
}

// ClearAll очищает базу данных
func (db *DB) ClearAll() error {
	_, err := db.sql.Exec(`DELETE FROM articles`)
	return err
}
