package storage

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/topomap/internal/logging"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// Store - постоянное хранилище сервера карт на BadgerDB.
// Хранит готовые тайлы (Cold Storage для кеша) и сгенерированные чанки мира.
type Store struct {
	db     *badger.DB
	dbPath string
	log    *logging.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mutex   sync.RWMutex
	isReady bool
}

// Open открывает хранилище в каталоге <dataPath>/tiles
func Open(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "tiles")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return open(opts, dbPath)
}

// OpenInMemory открывает хранилище без записи на диск (для тестов и утилит)
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, "")
}

func open(opts badger.Options, dbPath string) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	s := &Store{
		db:      db,
		dbPath:  dbPath,
		log:     logging.GetStorageLogger(),
		encoder: enc,
		decoder: dec,
		isReady: true,
	}
	s.log.Info("Хранилище открыто: %s", dbPath)
	return s, nil
}

// Close закрывает хранилище
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false

	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

// ready проверяет, что хранилище открыто; вызывать под s.mutex
func (s *Store) ready() error {
	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}

// get читает значение ключа; badger.ErrKeyNotFound возвращается как есть
func (s *Store) get(key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}
