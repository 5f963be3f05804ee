package subscriber

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// ParseEnvFilesList splits a comma separated ENV_FILES value.
func ParseEnvFilesList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadEnvFiles merges the files in order; later files win.
func LoadEnvFiles(paths []string) (map[string]string, error) {
	combined := map[string]string{}
	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for k, v := range vars {
			combined[k] = v
		}
	}
	return combined, nil
}
