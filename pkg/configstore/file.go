package configstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/pnpfeeder/pkg/feeder"
)

// FileStore keeps all configs in one protobuf encoded file.
// The file is replaced atomically on every Set.
type FileStore struct {
	Path string

	lock sync.Mutex
}

// NewFileStore creates a FileStore.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Get implements Store.
func (s *FileStore) Get(index int) (feeder.Config, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	img, err := s.load()
	if err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %v", ErrConfigGet, err)
	}
	for _, r := range img.Records {
		if r.Index == uint32(index) {
			return r.Config()
		}
	}
	return DefaultConfig(), nil
}

// Set implements Store.
func (s *FileStore) Set(index int, config feeder.Config) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	img, err := s.load()
	if err != nil {
		glog.Warningf("config file %s unreadable, rewriting: %v", s.Path, err)
		img = &Image{}
	}
	rec := NewRecord(index, config)
	replaced := false
	for n, r := range img.Records {
		if r.Index == rec.Index {
			img.Records[n], replaced = rec, true
			break
		}
	}
	if !replaced {
		img.Records = append(img.Records, rec)
		sort.Slice(img.Records, func(i, j int) bool {
			return img.Records[i].Index < img.Records[j].Index
		})
	}
	if err := s.save(img); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigSet, err)
	}
	return nil
}

func (s *FileStore) load() (*Image, error) {
	img := &Image{}
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return img, nil
	}
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(data, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *FileStore) save(img *Image) error {
	data, err := proto.Marshal(img)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(f.Name(), s.Path)
}
