//go:build !unix

package preflight

import "os"

func checkAccess(path string, _ bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
