package values

import (
	"strings"

	"github.com/pkg/errors"
)

// VolumeMount is a single "SRC:TGT[:ro|:rw]" bind mount or named volume
// reference.
type VolumeMount struct {
	Source   string
	Target   string
	ReadOnly bool
}

var ErrInvalidVolumeFormat = errors.New("invalid volume format")

// ParseVolumeMount parses "SRC:TGT" with an optional trailing ":ro" or
// ":rw". The suffix is stripped before splitting the remainder on the first
// ":".
func ParseVolumeMount(s string) (VolumeMount, error) {
	readOnly := false
	body := s
	switch {
	case strings.HasSuffix(body, ":ro"):
		readOnly = true
		body = strings.TrimSuffix(body, ":ro")
	case strings.HasSuffix(body, ":rw"):
		body = strings.TrimSuffix(body, ":rw")
	}

	idx := strings.IndexByte(body, ':')
	if idx == -1 {
		return VolumeMount{}, errors.Wrapf(ErrInvalidVolumeFormat, "%q", s)
	}
	source, target := body[:idx], body[idx+1:]
	if source == "" || target == "" {
		return VolumeMount{}, errors.Wrapf(ErrInvalidVolumeFormat, "%q", s)
	}

	return VolumeMount{
		Source:   strings.Clone(source),
		Target:   strings.Clone(target),
		ReadOnly: readOnly,
	}, nil
}
