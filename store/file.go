package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Luismorlan/ticket_chain/model"
)

// FileStore keeps the chain as one JSON array of blocks, the same document ExportChain produces.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]model.Block, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeChain(data)
}

// Save writes to a temporary file next to the target and renames it over, so a crash never
// leaves a half written chain behind.
func (s *FileStore) Save(blocks []model.Block) error {
	data, err := EncodeChain(blocks)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Close() error {
	return nil
}

// EncodeChain renders a chain as the indented JSON persistence document.
func EncodeChain(blocks []model.Block) ([]byte, error) {
	if blocks == nil {
		blocks = []model.Block{}
	}
	return json.MarshalIndent(blocks, "", "  ")
}

func DecodeChain(data []byte) ([]model.Block, error) {
	var blocks []model.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("store: malformed chain document: %w", err)
	}
	return blocks, nil
}
