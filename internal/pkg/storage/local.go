package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//WriterCloser keeps Writer interface and close function
type WriterCloser interface {
	io.Writer
	Close() error
}

//OpenFileFunc declares function to open file by name and return Writer
type OpenFileFunc func(fileName string) (WriterCloser, error)

//LocalSaver saves objects as files on local disk
type LocalSaver struct {
	// StoragePath is the main folder to save into
	StoragePath  string
	OpenFileFunc OpenFileFunc
}

//NewLocalSaver creates LocalSaver instance, the dir is created if missing
func NewLocalSaver(storagePath string) (*LocalSaver, error) {
	if storagePath == "" {
		return nil, errors.New("No storage path")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, errors.Wrapf(err, "Can't create dir %s", storagePath)
	}
	return &LocalSaver{StoragePath: storagePath, OpenFileFunc: openFile}, nil
}

//Save writes data to <StoragePath>/<key>
func (fs *LocalSaver) Save(ctx context.Context, key string, data []byte) error {
	fileName, err := fs.fileName(key)
	if err != nil {
		return err
	}
	f, err := fs.OpenFileFunc(fileName)
	if err != nil {
		return errors.Wrapf(err, "Can not create file %s", fileName)
	}
	defer f.Close()
	n, err := f.Write(data)
	if err != nil {
		return errors.Wrapf(err, "Can not save file %s", fileName)
	}
	cmdapp.Log.Infof("Saved file %s. Size = %d", fileName, n)
	return nil
}

//HealthyFunc returns func to check if the dir is writable and has enough space
func (fs *LocalSaver) HealthyFunc() func() error {
	return func() error {
		st, err := os.Stat(fs.StoragePath)
		if err != nil {
			return errors.Wrapf(err, "Can't access %s", fs.StoragePath)
		}
		if !st.IsDir() {
			return errors.Errorf("%s is not a dir", fs.StoragePath)
		}
		return nil
	}
}

func (fs *LocalSaver) fileName(key string) (string, error) {
	root := filepath.Clean(fs.StoragePath)
	res := filepath.Join(root, filepath.FromSlash(key))
	if !strings.HasPrefix(res, root+string(filepath.Separator)) {
		return "", errors.Errorf("Wrong key '%s'", key)
	}
	return res, nil
}

func openFile(fileName string) (WriterCloser, error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}
