package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/topomap/internal/cache"
	"github.com/dgraph-io/badger/v3"
)

// tileNamespace отделяет тайлы от чанков в общей базе
const tileNamespace = "tiles/"

func tileKey(key string) []byte {
	return []byte(tileNamespace + key)
}

// Load загружает тайл. Отсутствующий ключ - cache.ErrCacheMiss.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	data, err := s.get(tileKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}

// Store сохраняет тайл
func (s *Store) Store(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tileKey(key), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// BatchLoad загружает несколько тайлов; отсутствующие пропускаются
func (s *Store) BatchLoad(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get(tileKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[key] = val
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return result, nil
}

// BatchStore сохраняет несколько тайлов одной пачкой
func (s *Store) BatchStore(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for key, value := range items {
		if err := wb.Set(tileKey(key), value); err != nil {
			return fmt.Errorf("ошибка пакетной записи: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка пакетной записи: %w", err)
	}
	return nil
}

// Delete удаляет тайл
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tileKey(key))
	})
}

// DeletePrefix удаляет все тайлы с префиксом ключа
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	if err := s.db.DropPrefix(tileKey(prefix)); err != nil {
		return fmt.Errorf("ошибка удаления префикса %s: %w", prefix, err)
	}
	s.log.Debug("Удалены тайлы с префиксом %s", prefix)
	return nil
}

// CountTiles возвращает число сохранённых тайлов с префиксом
func (s *Store) CountTiles(prefix string) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = tileKey(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

var _ cache.ColdStorage = (*Store)(nil)
