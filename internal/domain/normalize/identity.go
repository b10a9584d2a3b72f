package normalize

import (
	"github.com/google/uuid"
	"github.com/okian/kudosly/internal/domain/model"
)

var handleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://kudosly.dev/identity"))

// HandleIdentity derives a stable employee id from a source-scoped handle.
// It is best-effort: the id never comes from the directory, so it only matches
// an employee record registered under the same derived id.
func HandleIdentity(source model.Source, handle string) string {
	return "user-" + uuid.NewSHA1(handleNamespace, []byte(string(source)+":"+handle)).String()
}
