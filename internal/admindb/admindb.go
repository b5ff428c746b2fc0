package admindb

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
)

/*
*	Структура базы данных
*
*	"admins"
*		|-> chat id -> время добавления (UNIX)
*	"channels"
*		|-> channel id -> время добавления (UNIX)
*
 */

var (
	adminsBucket   = []byte("admins")
	channelsBucket = []byte("channels")
)

// DB хранит список админов и список каналов для публикации
type DB struct {
	adapter *bolt.DB
}

// Open открывает базу данных (или создаёт, если не существует)
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("admindb: не получилось создать каталог %s: %w", dir, err)
		}
	}

	adapter, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("admindb: не получилось открыть %s: %w", path, err)
	}

	err = adapter.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(adminsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(channelsBucket)
		return err
	})
	if err != nil {
		adapter.Close()
		return nil, err
	}

	return &DB{adapter: adapter}, nil
}

// Close закрывает базу данных
func (db *DB) Close() {
	db.adapter.Close()
}

// Seed добавляет админов и каналы из конфигурации (уже существующие не трогает)
func (db *DB) Seed(admins, channels []int64) error {
	for _, id := range admins {
		if err := db.AddAdmin(id); err != nil {
			return err
		}
	}
	for _, id := range channels {
		if err := db.AddChannel(id); err != nil {
			return err
		}
	}
	return nil
}

// AddAdmin добавляет админа. Добавление существующего — не ошибка
func (db *DB) AddAdmin(id int64) error {
	return db.put(adminsBucket, id)
}

// DelAdmin удаляет админа
func (db *DB) DelAdmin(id int64) error {
	return db.del(adminsBucket, id)
}

// IsAdmin проверяет, может ли бот взаимодействовать с этим chat id
func (db *DB) IsAdmin(id int64) bool {
	var found bool
	db.adapter.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(adminsBucket).Get(key(id)) != nil
		return nil
	})
	return found
}

// Admins возвращает список всех админов
func (db *DB) Admins() ([]int64, error) {
	return db.list(adminsBucket)
}

// AddChannel добавляет канал для публикаций
func (db *DB) AddChannel(id int64) error {
	return db.put(channelsBucket, id)
}

// DelChannel удаляет канал
func (db *DB) DelChannel(id int64) error {
	return db.del(channelsBucket, id)
}

// Channels возвращает список всех каналов
func (db *DB) Channels() ([]int64, error) {
	return db.list(channelsBucket)
}

func (db *DB) put(bucket []byte, id int64) error {
	return db.adapter.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		k := key(id)
		if b.Get(k) != nil {
			return nil
		}
		return b.Put(k, []byte(strconv.FormatInt(time.Now().Unix(), 10)))
	})
}

func (db *DB) del(bucket []byte, id int64) error {
	return db.adapter.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key(id))
	})
}

func (db *DB) list(bucket []byte) ([]int64, error) {
	ids := make([]int64, 0)
	err := db.adapter.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func key(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}
