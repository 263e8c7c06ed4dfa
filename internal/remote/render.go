package remote

import (
	"os"
	"path"

	"github.com/jhump/protoreflect/v2/protoprint"
)

// Render writes the registry's .proto contract files into outDir.
func Render(r *Registry, outDir string) error {
	pp := protoprint.Printer{}

	for _, fd := range r.Files() {
		fp := path.Join(outDir, fd.Path())
		if err := os.MkdirAll(path.Dir(fp), 0755); err != nil {
			return err
		}
		openedFile, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer openedFile.Close()

		if err = pp.PrintProtoFile(fd, openedFile); err != nil {
			return err
		}
	}
	return nil
}
