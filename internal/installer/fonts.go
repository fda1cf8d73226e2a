package installer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FontFilePermissions is the mode of installed font files.
const FontFilePermissions = 0o644

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func (p *Pipeline) isFontFile(name string) bool {
	return p.extensions[strings.ToLower(filepath.Ext(name))]
}

// placeFonts copies every font file found under srcDir into the install
// directory under its lower-cased base name, overwriting existing files.
// Files are visited in lexical order, so the last match wins on collisions.
func (p *Pipeline) placeFonts(srcDir string, emit emitter) ([]string, error) {
	var installed []string

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !p.isFontFile(d.Name()) {
			return nil
		}

		target := strings.ToLower(d.Name())
		if err := copyFile(path, filepath.Join(p.installDir, target)); err != nil {
			return fmt.Errorf("install %s: %w", d.Name(), err)
		}
		emit.info("Installed font: %s", d.Name())
		installed = append(installed, target)
		return nil
	})

	return installed, err
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FontFilePermissions)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
