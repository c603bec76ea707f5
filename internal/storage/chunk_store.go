package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
	"github.com/dgraph-io/badger/v3"
)

// chunkFormatVersion - версия двоичного формата чанка
const chunkFormatVersion = 1

// chunkHeaderSize: версия (1 байт) + высота (2 байта)
const chunkHeaderSize = 3

func chunkKey(coords world.ChunkCoord) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d", coords.X, coords.Z))
}

// SaveChunk сохраняет чанк в сжатом виде
func (s *Store) SaveChunk(chunk *world.Chunk) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	data := s.encoder.EncodeAll(encodeChunk(chunk), nil)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(chunk.Coords), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadChunk загружает чанк; если его нет - nil, nil
func (s *Store) LoadChunk(coords world.ChunkCoord, height int) (*world.Chunk, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	data, err := s.get(chunkKey(coords))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("чанк %v: ошибка распаковки: %w", coords, err)
	}
	return decodeChunk(coords, height, raw)
}

// encodeChunk упаковывает блоки и карту высот в little-endian
func encodeChunk(c *world.Chunk) []byte {
	buf := make([]byte, chunkHeaderSize+2*len(c.Blocks)+2*len(c.HeightMap))
	buf[0] = chunkFormatVersion
	binary.LittleEndian.PutUint16(buf[1:], uint16(c.Height))

	off := chunkHeaderSize
	for _, id := range c.Blocks {
		binary.LittleEndian.PutUint16(buf[off:], uint16(id))
		off += 2
	}
	for _, h := range c.HeightMap {
		binary.LittleEndian.PutUint16(buf[off:], uint16(h))
		off += 2
	}
	return buf
}

func decodeChunk(coords world.ChunkCoord, height int, raw []byte) (*world.Chunk, error) {
	if len(raw) < chunkHeaderSize || raw[0] != chunkFormatVersion {
		return nil, fmt.Errorf("чанк %v: неизвестный формат", coords)
	}
	stored := int(binary.LittleEndian.Uint16(raw[1:]))
	if stored != height {
		return nil, fmt.Errorf("чанк %v: высота %d не совпадает с высотой мира %d", coords, stored, height)
	}

	c := world.NewChunk(coords, height)
	want := chunkHeaderSize + 2*len(c.Blocks) + 2*len(c.HeightMap)
	if len(raw) != want {
		return nil, fmt.Errorf("чанк %v: размер %d, ожидалось %d", coords, len(raw), want)
	}

	off := chunkHeaderSize
	for i := range c.Blocks {
		c.Blocks[i] = block.BlockID(binary.LittleEndian.Uint16(raw[off:]))
		off += 2
	}
	for i := range c.HeightMap {
		c.HeightMap[i] = int16(binary.LittleEndian.Uint16(raw[off:]))
		off += 2
	}
	return c, nil
}

var _ world.ChunkStore = (*Store)(nil)
