package config

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ReportEntryName turns path of a file into a name usable inside of the
// report archive on any platform: directories are dropped together with
// characters Windows does not allow in file names.
func ReportEntryName(path string) string {
	base := path[strings.LastIndexAny(path, `/\`)+1:]
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(`<>":|?*`+string(filepath.ListSeparator), sym) {
			return -1
		}
		return sym
	}, base), ". ")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}
