package save

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

const appDirName = "chatbridge"

// ConfigDir is where settings and plain credentials live.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appDirName)
}

// DataDir is where the chat log database lives.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appDirName)
}

// openCreateFile opens dir/file for reading and writing, creating both when missing.
func openCreateFile(fs afero.Fs, dir string, file string) (afero.File, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := fs.OpenFile(filepath.Join(dir, file), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// replaceFileContent truncates f and writes data from the start.
func replaceFileContent(f afero.File, data []byte) error {
	if err := f.Truncate(0); err != nil {
		return err
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}

	_, err := f.Write(data)
	return err
}
