package normalize

import (
	"context"
	"fmt"

	"github.com/okian/kudosly/internal/domain/model"
)

// Defaults for the harness-only test source.
const (
	TestEmployeeID = "user-001"
	TestEffortType = model.Collaboration
)

// test reads employeeId and effortType straight from the payload. It is only
// reachable when the normalizer was built WithTestSource(true).
func (n *Normalizer) test(_ context.Context, p model.Payload) (string, model.Category, error) {
	employeeID, err := p.String("employeeId")
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if employeeID == "" {
		employeeID = TestEmployeeID
	}
	effortType, err := p.String("effortType")
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	hint := model.Category(effortType)
	if hint == "" {
		hint = TestEffortType
	}
	return employeeID, hint, nil
}
