package converter

import (
	"path/filepath"
	"strings"
)

// Suffix is inserted between the stem and the extension of a converted image's name
const Suffix = "_trans"

// OutputPath returns the path the converted image for path is written to, next to the original.
// Only the final extension is kept apart, so b.c.tga becomes b.c_trans.tga.
func OutputPath(path string) string {
	dir, name := filepath.Split(path)
	stem, ext := splitExt(name)
	return dir + stem + Suffix + ext
}

// splitExt splits off the final extension of a file name. A leading or trailing dot doesn't start one.
func splitExt(name string) (stem string, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}

	return name[:i], name[i:]
}
