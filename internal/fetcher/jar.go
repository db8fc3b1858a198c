package fetcher

import (
	cookiejar "github.com/juju/persistent-cookiejar"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// Jar is a cookie jar backed by a file so provider session state (consent,
// bot mitigation) survives between runs.
type Jar struct {
	*cookiejar.Jar
	path string
}

// OpenJar loads the jar stored at path, starting empty when the file does not exist.
func OpenJar(path string) (*Jar, error) {
	j, err := cookiejar.New(&cookiejar.Options{
		Filename:         path,
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load cookies %s", path)
	}
	return &Jar{Jar: j, path: path}, nil
}

// Save writes the jar back to its file.
func (j *Jar) Save() error {
	return errors.Wrapf(j.Jar.Save(), "save cookies %s", j.path)
}

// Path returns the backing file.
func (j *Jar) Path() string {
	return j.path
}
